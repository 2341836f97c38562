package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vibast-solutions/ms-go-contacts/app/dto"
	"github.com/vibast-solutions/ms-go-contacts/app/entity"
	"github.com/vibast-solutions/ms-go-contacts/app/service"

	"github.com/sirupsen/logrus"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrInvalidEvent     = errors.New("invalid profile event")
	ErrUnknownEventType = errors.New("unknown profile event type")
)

const (
	EventTypeUpsert = "upsert"
	EventTypeDelete = "delete"
)

type ProfileEvent struct {
	Type    string              `json:"type"`
	Profile *dto.ProfilePayload `json:"profile"`
}

type KafkaConfig struct {
	Brokers  []string
	Topic    string
	Group    string
	ClientID string
}

// DecodeEvent parses a record value. The record key stands in for a missing
// profile user id.
func DecodeEvent(key, value []byte) (string, *entity.ContactProfile, error) {
	var event ProfileEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	eventType := strings.ToLower(strings.TrimSpace(event.Type))
	if eventType != EventTypeUpsert && eventType != EventTypeDelete {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownEventType, event.Type)
	}

	payload := event.Profile
	if payload == nil {
		payload = &dto.ProfilePayload{}
	}
	profile := payload.ToEntity()
	if profile.UserID == "" {
		profile.UserID = strings.TrimSpace(string(key))
	}
	if profile.UserID == "" {
		return "", nil, fmt.Errorf("%w: missing user_id", ErrInvalidEvent)
	}

	return eventType, profile, nil
}

// EventHandler applies decoded profile events to the index.
type EventHandler struct {
	sink service.ProfileSink
}

func NewEventHandler(sink service.ProfileSink) *EventHandler {
	return &EventHandler{sink: sink}
}

// Handle never fails on a bad payload: the record is logged and skipped so
// its offset is committed instead of being redelivered forever.
func (h *EventHandler) Handle(record *kgo.Record) {
	eventType, profile, err := DecodeEvent(record.Key, record.Value)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"topic":     record.Topic,
			"partition": record.Partition,
			"offset":    record.Offset,
		}).WithError(err).Warn("Skipping profile event")
		return
	}

	switch eventType {
	case EventTypeDelete:
		h.sink.Remove(service.SourceKafka, profile)
	default:
		h.sink.Consume(service.SourceKafka, profile)
	}
}

type KafkaConsumer struct {
	client  *kgo.Client
	handler *EventHandler
	topic   string
}

func NewKafkaConsumer(cfg KafkaConfig, handler *EventHandler) (*KafkaConsumer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.Group == "" {
		return nil, errors.New("kafka brokers, topic and group are required")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &KafkaConsumer{
		client:  client,
		handler: handler,
		topic:   cfg.Topic,
	}, nil
}

// Start polls until ctx is cancelled, committing offsets after every
// handled batch. The client is closed on return.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	defer c.client.Close()

	logrus.WithField("topic", c.topic).Info("Starting contact profile consumer")

	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			logrus.WithField("topic", c.topic).Info("Stopping contact profile consumer")
			return nil
		}

		for _, fetchErr := range fetches.Errors() {
			logrus.WithFields(logrus.Fields{
				"topic":     fetchErr.Topic,
				"partition": fetchErr.Partition,
			}).WithError(fetchErr.Err).Error("Kafka fetch failed")
		}

		fetches.EachRecord(c.handler.Handle)

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil && ctx.Err() == nil {
			logrus.WithError(err).Error("Failed to commit profile event offsets")
		}
	}
}
