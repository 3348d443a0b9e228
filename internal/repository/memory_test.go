package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sportconnect-go/internal/model"
)

func TestMemoryProfileRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProfileRepository()

	_, err := repo.FindByID(ctx, "u1")
	require.ErrorIs(t, err, ErrNotFound)

	age := 35
	require.NoError(t, repo.Save(ctx, &model.Profile{ID: "u1", Name: "Ana", Age: &age}))
	got, err := repo.FindByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "Ana", got.Name)
	require.Equal(t, 35, *got.Age)
	created := got.CreatedAt

	require.NoError(t, repo.Save(ctx, &model.Profile{ID: "u1", Name: "Ana María"}))
	got, err = repo.FindByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "Ana María", got.Name)
	require.Equal(t, created, got.CreatedAt)
}

func TestMemoryRecommendationRepository_NewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRecommendationRepository()
	base := time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &model.Recommendation{UserID: "u1", Answer: "a", CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, &model.Recommendation{UserID: "u1", Answer: "c", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &model.Recommendation{UserID: "u2", Answer: "other", CreatedAt: base.Add(2 * time.Hour)}))
	// 与上一条同一时间，ID 更大的排在前面
	require.NoError(t, repo.Create(ctx, &model.Recommendation{UserID: "u1", Answer: "d", CreatedAt: base.Add(time.Hour)}))

	recos, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	var answers []string
	for _, r := range recos {
		answers = append(answers, r.Answer)
	}
	require.Equal(t, []string{"d", "c", "a"}, answers)

	latest, err := repo.Latest(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "d", latest.Answer)

	empty, err := repo.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)

	_, err = repo.Latest(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryConversationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryConversationRepository()

	id, err := repo.GetOrCreateConversationID(ctx, "u1")
	require.NoError(t, err)
	again, err := repo.GetOrCreateConversationID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, id, again)

	other, err := repo.GetOrCreateConversationID(ctx, "u2")
	require.NoError(t, err)
	require.NotEqual(t, id, other)

	history, err := repo.GetConversationHistory(ctx, id)
	require.NoError(t, err)
	require.Empty(t, history)

	var msgs []model.ChatMessage
	for i := 0; i < 25; i++ {
		msgs = append(msgs, model.ChatMessage{Role: model.RoleUser, Text: fmt.Sprintf("m%d", i)})
	}
	require.NoError(t, repo.UpdateConversationHistory(ctx, id, msgs))

	history, err = repo.GetConversationHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 20)
	require.Equal(t, "m5", history[0].Text)
	require.Equal(t, "m24", history[19].Text)
}
