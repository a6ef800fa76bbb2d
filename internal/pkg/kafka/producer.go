package kafka

import (
	"FollowTracker/internal/api/config"
	"FollowTracker/internal/model"
	"context"
	log "log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// FollowingDeltaEvent 一条新增关注事件
type FollowingDeltaEvent struct {
	NotificationID      uint64    `json:"notification_id"`
	TrackedAccountID    uint64    `json:"tracked_account_id"`
	TrackedHandle       string    `json:"tracked_handle"`
	TrackedDisplayName  string    `json:"tracked_display_name"`
	FollowedExternalID  string    `json:"followed_external_id"`
	FollowedHandle      string    `json:"followed_handle"`
	FollowedDisplayName string    `json:"followed_display_name"`
	DetectedAt          time.Time `json:"detected_at"`
	Summary             string    `json:"summary"`
}

// DeltaProducer 把新增关注写入 Kafka，按被追踪账号 handle 分区
type DeltaProducer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewDeltaProducer(cfg config.KafkaConfig) (*DeltaProducer, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, newSaramaConfig(cfg))
	if err != nil {
		return nil, err
	}
	return NewDeltaProducerWith(producer, cfg.DeltaTopic), nil
}

// NewDeltaProducerWith 使用已有的 SyncProducer
func NewDeltaProducerWith(producer sarama.SyncProducer, topic string) *DeltaProducer {
	return &DeltaProducer{producer: producer, topic: topic}
}

func (s *DeltaProducer) Deliver(ctx context.Context, summary string, items []*model.UndeliveredNotification) bool {
	if len(items) == 0 {
		return true
	}

	msgs := make([]*sarama.ProducerMessage, 0, len(items))
	for _, it := range items {
		payload, err := json.Marshal(&FollowingDeltaEvent{
			NotificationID:      it.ID,
			TrackedAccountID:    it.TrackedAccountID,
			TrackedHandle:       it.TrackedHandle,
			TrackedDisplayName:  it.TrackedDisplayName,
			FollowedExternalID:  it.FollowedExternalID,
			FollowedHandle:      it.FollowedHandle,
			FollowedDisplayName: it.FollowedDisplayName,
			DetectedAt:          it.DetectedAt,
			Summary:             summary,
		})
		if err != nil {
			log.ErrorContext(ctx, "marshal following delta event error", "id", it.ID, "err", err)
			return false
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: s.topic,
			Key:   sarama.StringEncoder(it.TrackedHandle),
			Value: sarama.ByteEncoder(payload),
		})
	}

	if err := s.producer.SendMessages(msgs); err != nil {
		log.ErrorContext(ctx, "failed to publish following delta events", "topic", s.topic, "err", err)
		return false
	}

	log.InfoContext(ctx, "published following delta events", "topic", s.topic, "count", len(msgs))
	return true
}

func (s *DeltaProducer) Close() error {
	return s.producer.Close()
}
