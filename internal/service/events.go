package service

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/bankprep/internal/model"
)

// Publisher delivers committed mutation events.
type Publisher interface {
	Publish(ctx context.Context, ev model.Event) error
}

// NopPublisher discards events.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, model.Event) error { return nil }

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// emit publishes ev; failures are logged and never reach the caller.
func emit(ctx context.Context, pub Publisher, log *zap.Logger, typ model.EventType, userID string, payload map[string]any) {
	id, err := newID()
	if err != nil {
		log.Warn("event id", zap.Error(err))
		return
	}
	ev := model.Event{ID: id, Type: typ, UserID: userID, OccurredAt: time.Now().UTC(), Payload: payload}
	if err := pub.Publish(ctx, ev); err != nil {
		log.Warn("publish event",
			zap.String("type", string(typ)),
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}
