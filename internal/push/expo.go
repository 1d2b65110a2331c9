package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"imaginarium/internal/logger"
)

const (
	DefaultExpoPushURL = "https://exp.host/--/api/v2/push/send"

	// Expo accepts at most 100 messages per request.
	expoBatchSize = 100
)

// ExpoClient sends through Expo's push API. Tokens look like
// "ExponentPushToken[xxx]"; no credentials are needed.
type ExpoClient struct {
	url        string
	httpClient *http.Client
	log        logrus.FieldLogger
}

type expoMessage struct {
	To       string            `json:"to"`
	Title    string            `json:"title,omitempty"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	Sound    string            `json:"sound,omitempty"`
	Priority string            `json:"priority,omitempty"`
}

type expoResponse struct {
	Data []struct {
		Status  string `json:"status"`
		ID      string `json:"id"`
		Message string `json:"message,omitempty"`
		Details struct {
			Error string `json:"error,omitempty"`
		} `json:"details,omitempty"`
	} `json:"data"`
}

func NewExpoClient(url string, log logrus.FieldLogger) *ExpoClient {
	if url == "" {
		url = DefaultExpoPushURL
	}
	return &ExpoClient{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger.Component(log, "ExpoPush"),
	}
}

// IsExpoPushToken is the Expo token format predicate.
func IsExpoPushToken(token string) bool {
	return (strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[")) &&
		strings.HasSuffix(token, "]")
}

func (c *ExpoClient) ValidToken(token string) bool {
	return IsExpoPushToken(token)
}

// Send skips malformed tokens and posts the rest in batches. Skipped tokens
// come back as error tickets.
func (c *ExpoClient) Send(ctx context.Context, msgs []Message) ([]Ticket, error) {
	tickets := make([]Ticket, 0, len(msgs))
	valid := make([]expoMessage, 0, len(msgs))

	for _, m := range msgs {
		if !IsExpoPushToken(m.To) {
			c.log.WithField("token", truncate(m.To, 20)).Warn("skipping invalid token format")
			tickets = append(tickets, Ticket{Token: m.To, Status: TicketError, Error: "InvalidToken"})
			continue
		}
		valid = append(valid, expoMessage{
			To:       m.To,
			Title:    m.Title,
			Body:     m.Body,
			Data:     m.Data,
			Sound:    "default",
			Priority: "high",
		})
	}

	for start := 0; start < len(valid); start += expoBatchSize {
		end := min(start+expoBatchSize, len(valid))
		batch, err := c.sendBatch(ctx, valid[start:end])
		if err != nil {
			return tickets, err
		}
		tickets = append(tickets, batch...)
	}
	return tickets, nil
}

func (c *ExpoClient) sendBatch(ctx context.Context, batch []expoMessage) ([]Ticket, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("marshal messages: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("expo api error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out expoResponse
	if err := json.Unmarshal(body, &out); err != nil {
		// Accepted by Expo, just not parseable. Report every message as sent.
		c.log.WithError(err).Warn("failed to parse expo response")
		tickets := make([]Ticket, len(batch))
		for i, m := range batch {
			tickets[i] = Ticket{Token: m.To, Status: TicketOK}
		}
		return tickets, nil
	}

	tickets := make([]Ticket, len(batch))
	for i, m := range batch {
		t := Ticket{Token: m.To, Status: TicketError, Error: "MissingTicket"}
		if i < len(out.Data) {
			d := out.Data[i]
			t = Ticket{Token: m.To, Status: d.Status, ID: d.ID, Error: d.Details.Error}
			if t.Error == "" && d.Status != TicketOK {
				t.Error = d.Message
			}
		}
		tickets[i] = t
	}
	return tickets, nil
}
