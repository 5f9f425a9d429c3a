package jetstream

import (
	"booth-queue/common/constant"
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// CreateQueueStream declares the work queue stream carrying email dispatch
// and activity events. Consumers must filter on disjoint subjects.
func CreateQueueStream(ctx context.Context, js jetstream.JetStream) (jetstream.Stream, error) {
	cfg := jetstream.StreamConfig{
		Name:      constant.QueueStreamName,
		Retention: jetstream.WorkQueuePolicy,
		Subjects:  []string{constant.AllWildcard},
		MaxBytes:  5 * 1024 * 1024,
		MaxAge:    24 * time.Hour,
	}

	st, err := js.CreateOrUpdateStream(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create stream %s: %w", constant.QueueStreamName, err)
	}

	return st, nil
}

// CreateConsumer declares a durable consumer for one subject filter.
func CreateConsumer(ctx context.Context, st jetstream.Stream, durable, filter string) (jetstream.Consumer, error) {
	cons, err := st.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       durable,
		FilterSubject: filter,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    5,
		BackOff:       []time.Duration{time.Second, 5 * time.Second, 15 * time.Second, 30 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("create consumer %s: %w", durable, err)
	}

	return cons, nil
}
