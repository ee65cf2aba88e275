package repository

import (
	"context"
	"testing"
	"time"

	"fashion-muse-go/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSessionRepo(t *testing.T, maxTurns int) (*miniredis.Miniredis, SessionRepository) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewSessionRepository(rdb, time.Hour, maxTurns)
}

func TestSessionRepository_EmptyHistory(t *testing.T) {
	_, repo := setupSessionRepo(t, 0)

	history, err := repo.GetHistory(context.Background(), "sid-1")
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestSessionRepository_AppendAndGet(t *testing.T) {
	mr, repo := setupSessionRepo(t, 0)
	ctx := context.Background()

	reply := model.Reply{Title: "Elegant Eras", Points: []string{"one", "two"}}
	stored, err := repo.AppendTurns(ctx, "sid-1", model.UserTurn("Victorian ball gown"), model.AssistantTurn(reply))
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	history, err := repo.GetHistory(ctx, "sid-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.RoleUser, history[0].Role)
	assert.Equal(t, "Victorian ball gown", history[0].Text)
	assert.Equal(t, model.RoleAssistant, history[1].Role)
	require.NotNil(t, history[1].Reply)
	assert.Equal(t, reply, *history[1].Reply)

	assert.True(t, mr.Exists("fashion_muse:session:sid-1:history"))
	assert.Equal(t, time.Hour, mr.TTL("fashion_muse:session:sid-1:history"))

	// 不同会话互不影响
	other, err := repo.GetHistory(ctx, "sid-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSessionRepository_Clear(t *testing.T) {
	_, repo := setupSessionRepo(t, 0)
	ctx := context.Background()

	_, err := repo.AppendTurns(ctx, "sid-1", model.UserTurn("hi"))
	require.NoError(t, err)
	require.NoError(t, repo.ClearHistory(ctx, "sid-1"))

	history, err := repo.GetHistory(ctx, "sid-1")
	require.NoError(t, err)
	assert.Empty(t, history)

	// 清空不存在的会话不报错
	assert.NoError(t, repo.ClearHistory(ctx, "missing"))
}

func TestSessionRepository_MaxTurnsKeepsUserFirst(t *testing.T) {
	// 5 会被向下取偶为 4
	_, repo := setupSessionRepo(t, 5)
	ctx := context.Background()

	var stored []model.Turn
	for _, q := range []string{"q1", "q2", "q3"} {
		var err error
		stored, err = repo.AppendTurns(ctx, "sid-1",
			model.UserTurn(q), model.AssistantTurn(model.Reply{Title: "a-" + q, Points: []string{"p"}}))
		require.NoError(t, err)
	}

	history, err := repo.GetHistory(ctx, "sid-1")
	require.NoError(t, err)
	require.Len(t, history, 4)
	// 返回值与实际保存的内容一致
	assert.Equal(t, history, stored)
	assert.Equal(t, model.RoleUser, history[0].Role)
	assert.Equal(t, "q2", history[0].Text)
	assert.Equal(t, "q3", history[2].Text)
}

func TestSessionRepository_CorruptData(t *testing.T) {
	mr, repo := setupSessionRepo(t, 0)
	require.NoError(t, mr.Set("fashion_muse:session:sid-1:history", "not json"))

	_, err := repo.GetHistory(context.Background(), "sid-1")
	assert.Error(t, err)
}

func TestSessionRepository_AppendStoreDown(t *testing.T) {
	mr, repo := setupSessionRepo(t, 0)
	mr.Close()

	stored, err := repo.AppendTurns(context.Background(), "sid-1", model.UserTurn("hi"))
	assert.Error(t, err)
	assert.Nil(t, stored)
}
