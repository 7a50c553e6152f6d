package notify

import (
	"context"
	"fmt"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/domain/service"
)

// Publisher is the subset of pkg/kafka.Producer the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// KafkaNotifier publishes alerts as JSON keyed by series id, so one series
// always lands on the same partition.
type KafkaNotifier struct {
	pub   Publisher
	topic string
}

var _ service.AlertNotifier = (*KafkaNotifier)(nil)

func NewKafkaNotifier(pub Publisher, topic string) *KafkaNotifier {
	return &KafkaNotifier{pub: pub, topic: topic}
}

func (n *KafkaNotifier) Name() string { return "kafka" }

func (n *KafkaNotifier) Notify(ctx context.Context, a models.Alert) error {
	if err := n.pub.Publish(ctx, n.topic, []byte(a.SeriesID), a); err != nil {
		return fmt.Errorf("%w: kafka %s: %v", models.ErrDispatch, n.topic, err)
	}
	return nil
}
