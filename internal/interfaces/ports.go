package interfaces

import (
	"context"

	"elevex/internal/entities"
)

// Answerer is the retrieval backend that answers technical questions.
type Answerer interface {
	Ask(ctx context.Context, question string, askCtx entities.AskContext) (entities.Answer, error)
}

// RemoteSessionStore is the durable cross-device session store. Saving a
// session is an upsert of the header plus a wholesale replace of its
// messages, per the sync protocol.
type RemoteSessionStore interface {
	UpsertSession(ctx context.Context, s entities.ChatSession) error
	ReplaceMessages(ctx context.Context, sessionID string, msgs []entities.Message) error
	DeleteSession(ctx context.Context, sessionID string) error
	ListSessionsForUser(ctx context.Context, userID string) ([]entities.ChatSession, error)
	ListMessages(ctx context.Context, sessionID string) ([]entities.Message, error)
}

// ModelCatalog exposes the brand/model inventory read paths chat needs.
type ModelCatalog interface {
	ListBrands(ctx context.Context) ([]entities.Brand, error)
	ListModelsByBrand(ctx context.Context, brandName string) ([]entities.Model, error)
}
