package memory

import (
	"context"
	"testing"

	"habit-tracker/internal/repository"
	"habit-tracker/internal/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Repository {
		return New()
	})
}

func TestRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := New()
	habit := repotest.Habit("h-1", "Read", 0)
	require.NoError(t, repo.UpsertHabit(ctx, habit))

	habit.Tiers[0].Badge = "mutated"
	got, err := repo.GetHabit(ctx, "h-1")
	require.NoError(t, err)
	assert.Equal(t, "red", got.Tiers[0].Badge, "caller mutation must not leak into the store")

	got.Reminders[0].Hour = 23
	again, err := repo.GetHabit(ctx, "h-1")
	require.NoError(t, err)
	assert.Equal(t, 7, again.Reminders[0].Hour)
	assert.NoError(t, repo.Close())
}
