package chart

import (
	"fmt"

	"github.com/banshee-data/gfe-panel/internal/panel"
)

// PanelFigure plots the observed outcome over time, one line per individual.
func PanelFigure(p *panel.Panel) Figure {
	fig := Figure{
		Title:     "Synthetic panel",
		XLabel:    "time",
		YLabel:    "Y",
		XTickStep: 5,
	}
	for i := range p.Membership {
		rows := p.IndividualRows(i)
		xs := make([]float64, len(rows))
		ys := make([]float64, len(rows))
		for j, r := range rows {
			xs[j] = float64(r.Time)
			ys[j] = r.Y
		}
		fig.Lines = append(fig.Lines, Line{
			Label: fmt.Sprintf("%d (g%d)", i, p.Membership[i]),
			X:     xs,
			Y:     ys,
		})
	}
	return fig
}

// TrendFigure plots the latent group trajectories.
func TrendFigure(p *panel.Panel) Figure {
	fig := Figure{
		Title:     "Latent group trends",
		XLabel:    "time",
		YLabel:    "Y0",
		XTickStep: 5,
	}
	colors := Palette(len(p.Trends))
	for g, traj := range p.Trends {
		xs := make([]float64, len(traj))
		for t := range traj {
			xs[t] = float64(t)
		}
		fig.Lines = append(fig.Lines, Line{
			Label: fmt.Sprintf("group %d", g+1),
			X:     xs,
			Y:     traj,
			Color: colors[g],
		})
	}
	return fig
}
