package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"feedback_service/internal/domain"
	"feedback_service/internal/errdefs"
)

const (
	DefaultTopic = "feedback-events"

	headerKind     = "kind"
	headerSequence = "sequence"
)

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventProducer publishes change events keyed by submission id, so every
// event of one record lands on the same partition in sequence order.
type EventProducer struct {
	writer Writer
}

func NewEventProducer(brokers []string, topic string) *EventProducer {
	if topic == "" {
		topic = DefaultTopic
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	return &EventProducer{writer: writer}
}

func NewEventProducerWithWriter(w Writer) *EventProducer {
	return &EventProducer{writer: w}
}

// Send writes events in one batch. Broker failures are reported as
// transport errors so callers can retry them.
func (p *EventProducer) Send(ctx context.Context, events ...domain.ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, evt := range events {
		msg, err := EncodeEvent(evt)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return errdefs.Transport("kafka write", err)
	}
	return nil
}

func (p *EventProducer) Close() error {
	return p.writer.Close()
}

func EncodeEvent(evt domain.ChangeEvent) (kafka.Message, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal change event %d: %w", evt.Sequence, err)
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(evt.SubmissionID, 10)),
		Value: data,
		Time:  evt.OccurredAt,
		Headers: []kafka.Header{
			{Key: headerKind, Value: []byte(evt.Kind)},
			{Key: headerSequence, Value: []byte(strconv.FormatInt(evt.Sequence, 10))},
		},
	}, nil
}

func DecodeEvent(msg kafka.Message) (domain.ChangeEvent, error) {
	var evt domain.ChangeEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return domain.ChangeEvent{}, fmt.Errorf("failed to unmarshal change event: %w", err)
	}
	if !evt.Kind.IsValid() {
		return domain.ChangeEvent{}, fmt.Errorf("unknown change event kind %q", evt.Kind)
	}
	return evt, nil
}
