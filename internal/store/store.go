// Package store persists generated panels and estimator assignments in
// SQLite so runs can be listed, reloaded and scored later.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/gfe-panel/internal/gfe"
	"github.com/banshee-data/gfe-panel/internal/panel"
)

// ErrRunNotFound is returned when a run id is not in the database.
var ErrRunNotFound = errors.New("run not found")

// timeLayout keeps created_at sortable as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store wraps the SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Run summarises one stored panel.
type Run struct {
	ID          string    `json:"run_id"`
	CreatedAt   time.Time `json:"created_at"`
	Seed        uint64    `json:"seed"`
	Individuals int       `json:"individuals"`
	Periods     int       `json:"periods"`
	Groups      int       `json:"groups"`
}

// Open opens (creating if needed) the database at path and applies all
// pending migrations.
func Open(path string) (*Store, error) {
	s, err := OpenRaw(path)
	if err != nil {
		return nil, err
	}
	if err := s.MigrateUp(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// OpenRaw opens the database without touching the schema. The migrate
// command uses it so that it alone decides which migrations run.
func OpenRaw(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One writer at a time; SQLite serialises them anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores p and returns its new run id. Everything is written in a
// single transaction.
func (s *Store) SaveRun(p *panel.Panel) (string, error) {
	cfgJSON, err := json.Marshal(p.Config)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}

	id := uuid.New().String()
	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (run_id, created_at, seed, individuals, periods, group_count, config_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, s.now().UTC().Format(timeLayout), int64(p.Seed),
		p.Config.Individuals, p.Config.Periods, p.Config.Groups, string(cfgJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	trendStmt, err := tx.Prepare(`INSERT INTO group_trends (run_id, group_label, time, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare trends: %w", err)
	}
	defer trendStmt.Close()
	for g, traj := range p.Trends {
		for t, v := range traj {
			if _, err := trendStmt.Exec(id, g+1, t, v); err != nil {
				return "", fmt.Errorf("insert trend: %w", err)
			}
		}
	}

	obsStmt, err := tx.Prepare(`
		INSERT INTO observations (run_id, individual, time, group_label, x1, x2, y0, noise, y)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare observations: %w", err)
	}
	defer obsStmt.Close()
	for _, r := range p.Rows {
		if _, err := obsStmt.Exec(id, r.Individual, r.Time, r.Group, r.X1, r.X2, r.Y0, r.Noise, r.Y); err != nil {
			return "", fmt.Errorf("insert observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// LoadRun rebuilds the panel stored under id.
func (s *Store) LoadRun(id string) (*panel.Panel, error) {
	var (
		seed    int64
		cfgJSON string
	)
	err := s.db.QueryRow(`SELECT seed, config_json FROM runs WHERE run_id = ?`, id).Scan(&seed, &cfgJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	p := &panel.Panel{Seed: uint64(seed)}
	if err := json.Unmarshal([]byte(cfgJSON), &p.Config); err != nil {
		return nil, fmt.Errorf("decode config of run %s: %w", id, err)
	}

	if err := s.loadTrends(id, p); err != nil {
		return nil, err
	}
	if err := s.loadObservations(id, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) loadTrends(id string, p *panel.Panel) error {
	p.Trends = make([][]float64, p.Config.Groups)
	for g := range p.Trends {
		p.Trends[g] = make([]float64, p.Config.Periods)
	}
	rows, err := s.db.Query(`SELECT group_label, time, value FROM group_trends WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("query trends: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			label, t int
			v        float64
		)
		if err := rows.Scan(&label, &t, &v); err != nil {
			return fmt.Errorf("scan trend: %w", err)
		}
		if label < 1 || label > p.Config.Groups || t < 0 || t >= p.Config.Periods {
			return fmt.Errorf("run %s: trend (%d, %d) out of range", id, label, t)
		}
		p.Trends[label-1][t] = v
	}
	return rows.Err()
}

func (s *Store) loadObservations(id string, p *panel.Panel) error {
	p.Membership = make([]int, p.Config.Individuals)
	p.Rows = make([]panel.Observation, 0, p.Config.Individuals*p.Config.Periods)
	rows, err := s.db.Query(`
		SELECT individual, time, group_label, x1, x2, y0, noise, y
		FROM observations WHERE run_id = ?
		ORDER BY individual, time`, id)
	if err != nil {
		return fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var r panel.Observation
		if err := rows.Scan(&r.Individual, &r.Time, &r.Group, &r.X1, &r.X2, &r.Y0, &r.Noise, &r.Y); err != nil {
			return fmt.Errorf("scan observation: %w", err)
		}
		if r.Individual < 0 || r.Individual >= p.Config.Individuals {
			return fmt.Errorf("run %s: individual %d out of range", id, r.Individual)
		}
		p.Membership[r.Individual] = r.Group
		p.Rows = append(p.Rows, r)
	}
	return rows.Err()
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT run_id, created_at, seed, individuals, periods, group_count
		FROM runs ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			created string
			seed    int64
		)
		if err := rows.Scan(&r.ID, &created, &seed, &r.Individuals, &r.Periods, &r.Groups); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("run %s created_at: %w", r.ID, err)
		}
		r.Seed = uint64(seed)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and everything stored under it.
func (s *Store) DeleteRun(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"assignments", "observations", "group_trends"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE run_id = ?`, id); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	res, err := tx.Exec(`DELETE FROM runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return tx.Commit()
}

// SaveAssignments replaces the estimator assignments stored for a run.
func (s *Store) SaveAssignments(runID string, as []gfe.Assignment) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM runs WHERE run_id = ?`, runID).Scan(&exists); err != nil {
		return fmt.Errorf("query run: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	if _, err := tx.Exec(`DELETE FROM assignments WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("clear assignments: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO assignments (run_id, individual, time, assignment) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare assignments: %w", err)
	}
	defer stmt.Close()
	for _, a := range as {
		var t sql.NullInt64
		if a.Time >= 0 {
			t = sql.NullInt64{Int64: int64(a.Time), Valid: true}
		}
		if _, err := stmt.Exec(runID, a.Individual, t, a.Group); err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
	}
	return tx.Commit()
}

// LoadAssignments returns a run's assignments ordered by individual and
// time. Rows stored without a time come back with Time -1.
func (s *Store) LoadAssignments(runID string) ([]gfe.Assignment, error) {
	rows, err := s.db.Query(`
		SELECT individual, time, assignment FROM assignments
		WHERE run_id = ? ORDER BY individual, time`, runID)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	var out []gfe.Assignment
	for rows.Next() {
		var (
			a gfe.Assignment
			t sql.NullInt64
		)
		if err := rows.Scan(&a.Individual, &t, &a.Group); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		a.Time = -1
		if t.Valid {
			a.Time = int(t.Int64)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
