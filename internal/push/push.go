// Package push delivers notification messages to devices.
package push

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"imaginarium/internal/logger"
)

// Message is one notification for one device token.
type Message struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Ticket is the provider's per-message answer.
type Ticket struct {
	Token  string
	Status string // "ok" or "error"
	ID     string
	Error  string
}

func (t Ticket) OK() bool { return t.Status == TicketOK }

const (
	TicketOK    = "ok"
	TicketError = "error"
)

// Sender is a push provider. ValidToken is the provider's token format
// predicate; callers must not send to tokens it rejects.
type Sender interface {
	ValidToken(token string) bool
	Send(ctx context.Context, msgs []Message) ([]Ticket, error)
}

// Dispatcher hands a message off for delivery without waiting for the
// provider.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

const directSendTimeout = 15 * time.Second

// ErrDispatcherClosed is returned by Dispatch once Wait has been called.
var ErrDispatcherClosed = errors.New("push dispatcher closed")

// DirectDispatcher sends on a background goroutine with a single attempt.
type DirectDispatcher struct {
	sender Sender
	log    logrus.FieldLogger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDirectDispatcher(sender Sender, log logrus.FieldLogger) *DirectDispatcher {
	return &DirectDispatcher{sender: sender, log: logger.Component(log, "PushDispatcher")}
}

func (d *DirectDispatcher) Dispatch(ctx context.Context, msg Message) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), directSendTimeout)
		defer cancel()
		SendLogged(sendCtx, d.sender, d.log, []Message{msg})
	}()
	return nil
}

// Wait stops accepting messages and blocks until in-flight sends finish.
func (d *DirectDispatcher) Wait() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}

// SendLogged performs one send attempt and logs the outcome. Errors never
// leave this function.
func SendLogged(ctx context.Context, sender Sender, log logrus.FieldLogger, msgs []Message) {
	tickets, err := sender.Send(ctx, msgs)
	if err != nil {
		log.WithError(err).WithField("messages", len(msgs)).Warn("push send failed")
		return
	}

	failed := 0
	for _, t := range tickets {
		if !t.OK() {
			failed++
			log.WithFields(logrus.Fields{"token": truncate(t.Token, 24), "error": t.Error}).Warn("push ticket rejected")
		}
	}
	log.WithFields(logrus.Fields{"sent": len(tickets) - failed, "failed": failed}).Info("push delivered")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
