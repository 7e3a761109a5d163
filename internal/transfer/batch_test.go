package transfer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentient-soup/reelname/internal/library"
	"github.com/sentient-soup/reelname/internal/transfer"
)

func TestExpandGroups(t *testing.T) {
	store := newStore(t)
	a := addMovie(t, store, "Alpha", 1)
	b := addMovie(t, store, "Beta", 1)

	// a second, unconfirmed job in Beta's group
	extra := &library.Job{
		GroupID:       b.GroupID,
		Status:        library.StatusMatched,
		SourcePath:    "/src/beta-extra.mkv",
		FileName:      "beta-extra.mkv",
		FileExtension: ".mkv",
	}
	require.NoError(t, store.AddJob(extra))

	ids, err := transfer.ExpandGroups(store, []int64{*a.GroupID, *b.GroupID}, []int64{a.ID, 99})
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, 99, b.ID}, ids)

	_, err = transfer.ExpandGroups(store, nil, nil)
	assert.ErrorIs(t, err, transfer.ErrNothingToTransfer)
}
