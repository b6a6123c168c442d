package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPostRepositoryAdjustCounterFloorsAtZero(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewPostRepository(db)

	author := seedUser(t, db, "author")
	post := seedPost(t, db, author.ID)

	require.NoError(t, repo.AdjustCounter(context.Background(), post.ID, PostCounterLikes, 2))
	require.NoError(t, repo.AdjustCounter(context.Background(), post.ID, PostCounterLikes, -1))

	stored, err := repo.FindByID(context.Background(), post.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), stored.Likes)

	// A decrement past zero clamps instead of going negative.
	require.NoError(t, repo.AdjustCounter(context.Background(), post.ID, PostCounterLikes, -5))

	stored, err = repo.FindByID(context.Background(), post.ID)
	require.NoError(t, err)
	require.Zero(t, stored.Likes)
}

func TestPostRepositoryAdjustCounterUnknownColumnOrPost(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewPostRepository(db)

	author := seedUser(t, db, "author")
	post := seedPost(t, db, author.ID)

	require.Error(t, repo.AdjustCounter(context.Background(), post.ID, "author_id", 1))

	err := repo.AdjustCounter(context.Background(), post.ID+1000, PostCounterLikes, 1)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestPostRepositorySetCounterOverwrites(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewPostRepository(db)

	author := seedUser(t, db, "author")
	post := seedPost(t, db, author.ID)

	require.NoError(t, repo.SetCounter(context.Background(), post.ID, PostCounterComments, 7))
	require.NoError(t, repo.SetCounter(context.Background(), post.ID, PostCounterShares, -3))

	stored, err := repo.FindByID(context.Background(), post.ID)
	require.NoError(t, err)
	require.Equal(t, int64(7), stored.Comments)
	require.Zero(t, stored.Shares)
}
