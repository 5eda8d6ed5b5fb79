package chat

import (
	"context"

	"github.com/ZorinDanil/vestnik/internal/apperr"
	"github.com/ZorinDanil/vestnik/internal/models"
)

// Directory is the chat lookup surface of the chat service.
// *api.ChatClient satisfies it.
type Directory interface {
	FindChatByParticipants(ctx context.Context, participants []string, token string) (*models.Chat, error)
	CreateChat(ctx context.Context, participants []string, token string) (*models.Chat, error)
}

// FindOrCreate returns the chat between the caller and the given
// peers, creating it when the lookup comes back NotFound. Other lookup
// failures are surfaced as-is.
func FindOrCreate(ctx context.Context, dir Directory, participants []string, token string) (*models.Chat, error) {
	chat, err := dir.FindChatByParticipants(ctx, participants, token)
	if err == nil {
		return chat, nil
	}
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		return nil, err
	}
	return dir.CreateChat(ctx, participants, token)
}
