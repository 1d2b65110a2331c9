package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"imaginarium/internal/push"
)

// Event types on the push stream.
const (
	EventPushRequested = "push_requested"
)

const (
	StreamPush        = "stream:push"
	ConsumerGroupPush = "push_workers"
)

// PushEvent asks a worker to deliver one push message.
type PushEvent struct {
	Type      string       `json:"type"`
	Timestamp int64        `json:"timestamp"`
	Message   push.Message `json:"message"`
}

func NewPushRequestedEvent(msg push.Message) PushEvent {
	return PushEvent{
		Type:      EventPushRequested,
		Timestamp: time.Now().Unix(),
		Message:   msg,
	}
}

// ToMap serializes the event into the "type"/"data" fields stored by XADD.
func (e PushEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

func ParsePushEvent(values map[string]interface{}) (PushEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return PushEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event PushEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return PushEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
