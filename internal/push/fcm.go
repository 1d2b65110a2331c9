package push

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"imaginarium/internal/logger"
)

// FCM accepts at most 500 messages per SendEach call.
const fcmBatchSize = 500

// FCMClient sends through Firebase Cloud Messaging.
type FCMClient struct {
	client *messaging.Client
	log    logrus.FieldLogger
}

// NewFCMClient builds service-account credentials from the env values. The
// private key in .env usually carries literal "\n" sequences.
func NewFCMClient(ctx context.Context, projectID, clientEmail, privateKey string, log logrus.FieldLogger) (*FCMClient, error) {
	if projectID == "" || clientEmail == "" || privateKey == "" {
		return nil, fmt.Errorf("missing firebase configuration")
	}
	privateKey = strings.ReplaceAll(privateKey, "\\n", "\n")

	credsJSON := fmt.Sprintf(`{
		"type": "service_account",
		"project_id": %q,
		"private_key": %q,
		"client_email": %q,
		"token_uri": "https://oauth2.googleapis.com/token"
	}`, projectID, privateKey, clientEmail)

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsJSON([]byte(credsJSON)))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("get messaging client: %w", err)
	}

	l := logger.Component(log, "FCM")
	l.WithField("project", projectID).Info("fcm initialized")
	return &FCMClient{client: client, log: l}, nil
}

// ValidToken only rejects obviously malformed registration tokens; FCM
// tokens have no fixed prefix.
func (c *FCMClient) ValidToken(token string) bool {
	return len(token) >= 32 && !strings.ContainsAny(token, " \t\n") && !IsExpoPushToken(token)
}

func (c *FCMClient) Send(ctx context.Context, msgs []Message) ([]Ticket, error) {
	tickets := make([]Ticket, 0, len(msgs))
	valid := make([]*messaging.Message, 0, len(msgs))
	tokens := make([]string, 0, len(msgs))

	for _, m := range msgs {
		if !c.ValidToken(m.To) {
			tickets = append(tickets, Ticket{Token: m.To, Status: TicketError, Error: "InvalidToken"})
			continue
		}
		valid = append(valid, &messaging.Message{
			Token: m.To,
			Notification: &messaging.Notification{
				Title: m.Title,
				Body:  m.Body,
			},
			Data: m.Data,
			Android: &messaging.AndroidConfig{
				Priority: "high",
				Notification: &messaging.AndroidNotification{
					Sound: "default",
				},
			},
			APNS: &messaging.APNSConfig{
				Payload: &messaging.APNSPayload{
					Aps: &messaging.Aps{Sound: "default"},
				},
			},
		})
		tokens = append(tokens, m.To)
	}

	for start := 0; start < len(valid); start += fcmBatchSize {
		end := min(start+fcmBatchSize, len(valid))
		resp, err := c.client.SendEach(ctx, valid[start:end])
		if err != nil {
			return tickets, fmt.Errorf("send each: %w", err)
		}
		for i, r := range resp.Responses {
			t := Ticket{Token: tokens[start+i], Status: TicketOK, ID: r.MessageID}
			if !r.Success {
				t.Status = TicketError
				if r.Error != nil {
					t.Error = r.Error.Error()
				}
			}
			tickets = append(tickets, t)
		}
	}
	return tickets, nil
}
