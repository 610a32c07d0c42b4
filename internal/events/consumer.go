package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Consume decodes attempt events from topic and hands them to handle until
// ctx is done. Messages that fail to decode are acked and dropped; handler
// errors nack the message for redelivery.
func Consume(ctx context.Context, sub message.Subscriber, topic string, handle func(context.Context, AttemptRecordedEvent) error) error {
	if topic == "" {
		topic = DefaultTopic
	}
	messages, err := sub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	for msg := range messages {
		var event AttemptRecordedEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			msg.Ack()
			continue
		}
		if err := handle(msg.Context(), event); err != nil {
			msg.Nack()
			continue
		}
		msg.Ack()
	}
	return nil
}
