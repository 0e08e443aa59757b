package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gfe-panel/internal/gfe"
	"github.com/banshee-data/gfe-panel/internal/monitoring"
	"github.com/banshee-data/gfe-panel/internal/panel"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	monitoring.SetLogger(t.Logf)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func generate(t *testing.T, seed uint64) *panel.Panel {
	t.Helper()
	p, err := panel.GenerateSeeded(panel.DefaultConfig(), seed)
	require.NoError(t, err)
	return p
}

func TestOpenMigratesToLatest(t *testing.T) {
	s := openTestStore(t)
	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// Reopening an up-to-date database is a no-op.
	require.NoError(t, s.MigrateUp())
}

func TestMigrateDownAndUp(t *testing.T) {
	s, err := OpenRaw(filepath.Join(t.TempDir(), "raw.db"))
	require.NoError(t, err)
	defer s.Close()

	version, _, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	require.NoError(t, s.MigrateUp())
	require.NoError(t, s.MigrateDown())
	version, _, err = s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	_, err = s.db.Exec(`SELECT COUNT(*) FROM assignments`)
	assert.Error(t, err, "assignments table should be gone")

	require.NoError(t, s.MigrateUp())
	version, _, err = s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestSaveAndLoadRun(t *testing.T) {
	s := openTestStore(t)
	p := generate(t, 5)

	id, err := s.SaveRun(p)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.LoadRun(id)
	require.NoError(t, err)
	if diff := cmp.Diff(p, got); diff != "" {
		t.Errorf("LoadRun mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRunNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.LoadRun("no-such-run")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestListAndDeleteRuns(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	first, err := s.SaveRun(generate(t, 1))
	require.NoError(t, err)
	second, err := s.SaveRun(generate(t, 2))
	require.NoError(t, err)

	runs, err := s.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID, "newest first")
	assert.Equal(t, first, runs[1].ID)
	assert.Equal(t, uint64(2), runs[0].Seed)
	assert.Equal(t, 10, runs[0].Individuals)
	assert.Equal(t, 20, runs[0].Periods)
	assert.Equal(t, 3, runs[0].Groups)
	assert.True(t, runs[1].CreatedAt.Equal(base.Add(time.Second)))

	require.NoError(t, s.SaveAssignments(first, []gfe.Assignment{{Individual: 0, Time: -1, Group: 1}}))
	require.NoError(t, s.DeleteRun(first))

	runs, err = s.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, second, runs[0].ID)

	as, err := s.LoadAssignments(first)
	require.NoError(t, err)
	assert.Empty(t, as)

	assert.True(t, errors.Is(s.DeleteRun(first), ErrRunNotFound))
}

func TestAssignments(t *testing.T) {
	s := openTestStore(t)
	id, err := s.SaveRun(generate(t, 5))
	require.NoError(t, err)

	in := []gfe.Assignment{
		{Individual: 1, Time: 0, Group: 2},
		{Individual: 0, Time: 1, Group: 3},
		{Individual: 0, Time: 0, Group: 3},
	}
	require.NoError(t, s.SaveAssignments(id, in))

	got, err := s.LoadAssignments(id)
	require.NoError(t, err)
	want := []gfe.Assignment{
		{Individual: 0, Time: 0, Group: 3},
		{Individual: 0, Time: 1, Group: 3},
		{Individual: 1, Time: 0, Group: 2},
	}
	assert.Equal(t, want, got)

	// Saving again replaces the previous set.
	require.NoError(t, s.SaveAssignments(id, []gfe.Assignment{{Individual: 4, Time: -1, Group: 1}}))
	got, err = s.LoadAssignments(id)
	require.NoError(t, err)
	assert.Equal(t, []gfe.Assignment{{Individual: 4, Time: -1, Group: 1}}, got)

	err = s.SaveAssignments("missing", in)
	assert.True(t, errors.Is(err, ErrRunNotFound))
}
