package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sateviss/youtube-archive/internal/domain"
)

const testChannel = "https://www.youtube.com/@chan"

func TestStateStore_MutateAndPersist(t *testing.T) {
	repo := newMemRepo(nil)
	store, err := NewStateStore(repo)
	require.NoError(t, err)

	committed := false
	err = store.MutateAndPersist(func(state domain.State) error {
		state[testChannel] = domain.NewChannelRecord(testChannel, "Chan")
		return nil
	}, func() { committed = true })
	require.NoError(t, err)

	assert.True(t, committed)
	assert.Contains(t, repo.Saved(), testChannel)
	store.View(func(state domain.State) {
		assert.Equal(t, "Chan", state[testChannel].Title)
	})
}

func TestStateStore_SaveFailureKeepsState(t *testing.T) {
	repo := newMemRepo(domain.State{testChannel: domain.NewChannelRecord(testChannel, "Chan")})
	store, err := NewStateStore(repo)
	require.NoError(t, err)

	repo.failSaves = true
	committed := false
	err = store.MutateAndPersist(func(state domain.State) error {
		state[testChannel].Title = "Renamed"
		state[testChannel].Videos["a"] = &domain.VideoRecord{Title: "A", Status: domain.StatusChecked}
		return nil
	}, func() { committed = true })

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.False(t, committed)

	snapshot := store.Snapshot()
	assert.Equal(t, "Chan", snapshot[testChannel].Title)
	assert.Empty(t, snapshot[testChannel].Videos)
}

func TestStateStore_MutateErrorSkipsSave(t *testing.T) {
	repo := newMemRepo(nil)
	store, err := NewStateStore(repo)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.MutateAndPersist(func(state domain.State) error {
		state[testChannel] = domain.NewChannelRecord(testChannel, "Chan")
		return boom
	}, nil)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, repo.saves)
	assert.Empty(t, store.Snapshot())
}

func TestStateStore_SnapshotIsDetached(t *testing.T) {
	store, err := NewStateStore(newMemRepo(domain.State{testChannel: domain.NewChannelRecord(testChannel, "Chan")}))
	require.NoError(t, err)

	snapshot := store.Snapshot()
	snapshot[testChannel].Title = "Changed"

	assert.Equal(t, "Chan", store.Snapshot()[testChannel].Title)
}
