package rtdb

import (
	"booth-queue/common/constant"
	"context"
	"log/slog"
)

// Subscribe streams the value at path. The current value is delivered first,
// then a new snapshot after every committed write that changed it. The
// channel is closed once ctx is done or the subscription breaks.
func (c *Client) Subscribe(ctx context.Context, path string) (<-chan Snapshot, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	pubsub := c.rdb.Subscribe(ctx, c.channel(segs[0]))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	first, err := c.Get(ctx, path)
	if err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan Snapshot, 1)

	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		last := first

		select {
		case out <- first:
		case <-ctx.Done():
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				written, err := splitPath(msg.Payload)
				if err != nil || !overlaps(segs, written) {
					continue
				}

				snap, err := c.Get(ctx, path)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					slog.WarnContext(ctx, "rtdb subscription read failed",
						slog.String(constant.LogFieldPath, path),
						slog.Any(constant.LogFieldErr, err))
					continue
				}

				if snap.Equal(last) {
					continue
				}
				last = snap

				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
