package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"feedback_service/internal/domain"
	feedbackkafka "feedback_service/pkg/kafka"
)

const maxLoggedValue = 256

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("cannot create logger: %v", err))
	}
	defer func() { _ = logger.Sync() }()

	brokers := splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092"))
	topic := getEnv("KAFKA_TOPIC", feedbackkafka.DefaultTopic)
	groupID := getEnv("KAFKA_GROUP_ID", "feedback-notifier")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting feedback notifier",
		zap.String("topic", topic),
		zap.Strings("brokers", brokers),
		zap.String("group_id", groupID),
	)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   topic,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("Notifier shutting down")
				return
			}
			logger.Error("Failed to fetch message", zap.Error(err))
			continue
		}

		processMessage(logger, msg)

		if err := reader.CommitMessages(ctx, msg); err != nil {
			logger.Error("Failed to commit message", zap.Error(err))
		}
	}
}

// notification is what a submitter would be told about their feedback.
type notification struct {
	TrackingCode string
	Email        string
	Text         string
}

// notificationFor decides whether evt warrants telling the submitter.
// Anonymous submitters and submitters without an email are never contacted.
func notificationFor(evt domain.ChangeEvent) (notification, bool) {
	f := evt.Payload.Submission
	if f == nil || f.IsAnonymous() || f.Submitter.Email == nil {
		return notification{}, false
	}

	n := notification{TrackingCode: f.TrackingCode(), Email: *f.Submitter.Email}
	switch evt.Kind {
	case domain.EventResponseAttached:
		n.Text = fmt.Sprintf("Your feedback %s has received a response.", n.TrackingCode)
	case domain.EventStatusChanged:
		if f.Status != domain.StatusResolved {
			return notification{}, false
		}
		n.Text = fmt.Sprintf("Your feedback %s has been resolved.", n.TrackingCode)
	default:
		return notification{}, false
	}
	return n, true
}

func processMessage(logger *zap.Logger, msg kafka.Message) {
	evt, err := feedbackkafka.DecodeEvent(msg)
	if err != nil {
		logger.Warn("Failed to decode change event",
			zap.String("topic", msg.Topic),
			zap.ByteString("value", truncateBytes(msg.Value, maxLoggedValue)),
			zap.Error(err),
		)
		return
	}

	n, ok := notificationFor(evt)
	if !ok {
		logger.Debug("Change event needs no notification",
			zap.Int64("sequence", evt.Sequence),
			zap.String("kind", string(evt.Kind)),
		)
		return
	}

	logger.Info("Notifying submitter",
		zap.Int64("sequence", evt.Sequence),
		zap.String("tracking_code", n.TrackingCode),
		zap.String("email", n.Email),
		zap.String("text", n.Text),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitAndTrim(csv string) []string {
	out := []string{}
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func truncateBytes(data []byte, limit int) []byte {
	if len(data) <= limit {
		return data
	}
	return data[:limit]
}
