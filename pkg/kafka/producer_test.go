package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback_service/internal/domain"
	"feedback_service/internal/errdefs"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func sampleEvent(seq int64) domain.ChangeEvent {
	f := &domain.FeedbackSubmission{
		ID:        12,
		Category:  domain.CategoryPolicy,
		Subject:   "Dress code",
		Message:   "Outdated",
		Status:    domain.StatusInProgress,
		CreatedAt: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC),
	}
	evt := domain.NewStatusChangedEvent(f, domain.StatusPending, time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC))
	evt.Sequence = seq
	return evt
}

func TestEventProducer_Send(t *testing.T) {
	w := &fakeWriter{}
	p := NewEventProducerWithWriter(w)

	require.NoError(t, p.Send(context.Background(), sampleEvent(4), sampleEvent(5)))
	require.Len(t, w.msgs, 2)

	msg := w.msgs[0]
	assert.Equal(t, "12", string(msg.Key))
	assert.Equal(t, headerKind, msg.Headers[0].Key)
	assert.Equal(t, "statusChanged", string(msg.Headers[0].Value))
	assert.Equal(t, "4", string(msg.Headers[1].Value))

	evt, err := DecodeEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, int64(4), evt.Sequence)
	assert.Equal(t, domain.StatusPending, evt.Payload.PreviousStatus)
	require.NotNil(t, evt.Payload.Submission)
	assert.Equal(t, domain.StatusInProgress, evt.Payload.Submission.Status)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestEventProducer_SendEmpty(t *testing.T) {
	w := &fakeWriter{err: errors.New("must not be called")}
	assert.NoError(t, NewEventProducerWithWriter(w).Send(context.Background()))
}

func TestEventProducer_BrokerDownIsRetryable(t *testing.T) {
	w := &fakeWriter{err: kafka.LeaderNotAvailable}
	err := NewEventProducerWithWriter(w).Send(context.Background(), sampleEvent(1))
	assert.ErrorIs(t, err, errdefs.ErrTransport)
	assert.True(t, errdefs.IsRetryable(err))
}

func TestDecodeEvent_Rejects(t *testing.T) {
	_, err := DecodeEvent(kafka.Message{Value: []byte("not-json")})
	assert.Error(t, err)

	_, err = DecodeEvent(kafka.Message{Value: []byte(`{"sequence":1,"kind":"exploded"}`)})
	assert.Error(t, err)
}
