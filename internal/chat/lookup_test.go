package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZorinDanil/vestnik/internal/apperr"
	"github.com/ZorinDanil/vestnik/internal/models"
)

type fakeDirectory struct {
	findErr     error
	found       *models.Chat
	created     *models.Chat
	createCalls int
}

func (f *fakeDirectory) FindChatByParticipants(ctx context.Context, participants []string, token string) (*models.Chat, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.found, nil
}

func (f *fakeDirectory) CreateChat(ctx context.Context, participants []string, token string) (*models.Chat, error) {
	f.createCalls++
	return f.created, nil
}

func TestFindOrCreate(t *testing.T) {
	t.Run("existing chat is reused", func(t *testing.T) {
		dir := &fakeDirectory{found: &models.Chat{ID: "c1"}}
		chat, err := FindOrCreate(context.Background(), dir, []string{"u2"}, "tok")
		require.NoError(t, err)
		assert.Equal(t, "c1", chat.ID)
		assert.Zero(t, dir.createCalls)
	})

	t.Run("not found falls back to create", func(t *testing.T) {
		dir := &fakeDirectory{
			findErr: apperr.NotFound("chat not found"),
			created: &models.Chat{ID: "c2"},
		}
		chat, err := FindOrCreate(context.Background(), dir, []string{"u2"}, "tok")
		require.NoError(t, err)
		assert.Equal(t, "c2", chat.ID)
		assert.Equal(t, 1, dir.createCalls)
	})

	t.Run("other lookup failures are surfaced", func(t *testing.T) {
		dir := &fakeDirectory{findErr: apperr.Unauthorized("bad token")}
		_, err := FindOrCreate(context.Background(), dir, []string{"u2"}, "tok")
		require.Error(t, err)
		assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
		assert.Zero(t, dir.createCalls)
	})
}
