package cmd

import (
	"booth-queue/common/constant"
	"context"
	"errors"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"
)

type msgHandler func(ctx context.Context, msg jetstream.Msg) error

// consume pulls from cons until ctx is done. A handler error naks the
// message so the consumer backoff schedules the redelivery.
func consume(ctx context.Context, cons jetstream.Consumer, name string, handle msgHandler) {
	iter, err := cons.Messages()
	if err != nil {
		slog.ErrorContext(ctx, "failed to open message iterator",
			slog.String("consumer", name), slog.Any(constant.LogFieldErr, err))
		return
	}

	done := make(chan struct{})

	go func() {
		defer close(done)

		for {
			select {
			case <-ctx.Done():
				return
			default:
				msg, err := iter.Next()
				if errors.Is(err, jetstream.ErrMsgIteratorClosed) {
					return
				}
				if err != nil {
					slog.ErrorContext(ctx, "Error fetching message", slog.Any(constant.LogFieldErr, err))
					continue
				}

				if msg == nil {
					continue
				}

				if err := handle(ctx, msg); err != nil {
					if err := msg.Nak(); err != nil {
						slog.ErrorContext(ctx, "Error rejecting message",
							slog.Any(constant.LogFieldErr, err),
							slog.String("subject", msg.Subject()))
					}
					continue
				}

				if err := msg.Ack(); err != nil {
					slog.ErrorContext(ctx, "Error acknowledging message",
						slog.Any(constant.LogFieldErr, err),
						slog.Any(constant.LogFieldPayload, string(msg.Data())),
						slog.String("subject", msg.Subject()),
					)
					continue
				}
			}
		}
	}()

	slog.InfoContext(ctx, name+" queue consumer started")

	<-ctx.Done()

	iter.Stop()
	<-done

	slog.InfoContext(ctx, name+" queue consumer stopped")
}
