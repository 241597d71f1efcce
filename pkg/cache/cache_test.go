package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warranty-analytics/pkg/models"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{InMemory: true}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLoad_Empty(t *testing.T) {
	s := openMemory(t)
	_, err := s.Load(0)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSaveLoad(t *testing.T) {
	s := openMemory(t)
	fetched := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	regs := []models.Registration{
		{ID: "1", ProductName: "Dental Pod", CreatedAt: fetched.Add(-time.Hour),
			FieldData: models.FieldData{Reason: "Cracked"}},
		{ID: "2", ProductName: "Zima Go"},
	}
	require.NoError(t, s.Save(regs, fetched))

	snap, err := s.Load(0)
	require.NoError(t, err)
	assert.True(t, snap.FetchedAt.Equal(fetched))
	require.Len(t, snap.Registrations, 2)
	assert.Equal(t, "Cracked", snap.Registrations[0].FieldData.Reason)
	assert.True(t, snap.Registrations[0].CreatedAt.Equal(fetched.Add(-time.Hour)))
}

func TestLoad_Stale(t *testing.T) {
	s := openMemory(t)
	fetched := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fetched.Add(3 * time.Hour) }
	require.NoError(t, s.Save([]models.Registration{{ID: "1"}}, fetched))

	snap, err := s.Load(2 * time.Hour)
	assert.ErrorIs(t, err, ErrStale)
	assert.Len(t, snap.Registrations, 1, "stale snapshot is still returned")

	_, err = s.Load(4 * time.Hour)
	assert.NoError(t, err)
}

func TestLoad_StaleBeforeEntryExpires(t *testing.T) {
	s, err := Open(Config{InMemory: true, TTL: 7 * 24 * time.Hour}, nil)
	require.NoError(t, err)
	defer s.Close()

	// Fetched a day ago on the wall clock: past the freshness age, well inside the TTL.
	require.NoError(t, s.Save([]models.Registration{{ID: "1"}}, time.Now().Add(-24*time.Hour)))

	snap, err := s.Load(6 * time.Hour)
	assert.ErrorIs(t, err, ErrStale)
	require.Len(t, snap.Registrations, 1)
	assert.Equal(t, "1", snap.Registrations[0].ID)
}

func TestLoad_AgeUsesWallClock(t *testing.T) {
	s := openMemory(t)
	// A snapshot taken just now is fresh even when analyses run as of a past date.
	require.NoError(t, s.Save([]models.Registration{{ID: "1"}}, time.Now()))
	_, err := s.Load(time.Hour)
	assert.NoError(t, err)
}

func TestSave_Replaces(t *testing.T) {
	s := openMemory(t)
	now := time.Now()
	require.NoError(t, s.Save([]models.Registration{{ID: "1"}, {ID: "2"}}, now))
	require.NoError(t, s.Save([]models.Registration{{ID: "3"}}, now))

	snap, err := s.Load(0)
	require.NoError(t, err)
	require.Len(t, snap.Registrations, 1)
	assert.Equal(t, "3", snap.Registrations[0].ID)
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := Open(Config{}, nil)
	assert.Error(t, err)
}

func TestOpen_OnDisk(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Config{Dir: dir, TTL: time.Hour}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Save([]models.Registration{{ID: "disk"}}, time.Now()))
	require.NoError(t, s.Close())

	s, err = Open(Config{Dir: dir, TTL: time.Hour}, nil)
	require.NoError(t, err)
	defer s.Close()
	snap, err := s.Load(0)
	require.NoError(t, err)
	assert.Equal(t, "disk", snap.Registrations[0].ID)
}
