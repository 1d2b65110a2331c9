package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"imaginarium/internal/logger"
	"imaginarium/internal/push"
	"imaginarium/internal/queue"
)

// Handler delivers queued push events. Each event gets a single send
// attempt; provider failures are logged and not retried.
type Handler struct {
	sender push.Sender
	log    logrus.FieldLogger
}

func NewHandler(sender push.Sender, log logrus.FieldLogger) *Handler {
	return &Handler{sender: sender, log: logger.Component(log, "PushWorker")}
}

func (h *Handler) HandleEvent(ctx context.Context, event queue.PushEvent) error {
	start := time.Now()

	switch event.Type {
	case queue.EventPushRequested:
		if !h.sender.ValidToken(event.Message.To) {
			h.log.WithField("type", event.Type).Warn("dropping push with malformed token")
			return nil
		}
		push.SendLogged(ctx, h.sender, h.log, []push.Message{event.Message})
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	h.log.WithFields(logrus.Fields{"type": event.Type, "duration": time.Since(start)}).Debug("event handled")
	return nil
}
