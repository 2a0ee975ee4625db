package ports

import (
	"context"

	"github.com/kirillkom/course-assistant/internal/core/domain"
)

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=mocks/mock_inbound.go -package=mocks github.com/kirillkom/course-assistant/internal/core/ports ChatService

// ChatService is the inbound contract host surfaces (HTTP, CLI) talk to.
type ChatService interface {
	Chat(ctx context.Context, message string) domain.ChatReply
	Clear()
	History(n int) []domain.ConversationTurn
	// SessionID identifies the current session; Clear starts a new one.
	SessionID() string
}
