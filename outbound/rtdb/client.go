// Package rtdb is a client for the booth realtime database. The database is a
// tree of JSON values addressed by slash separated paths. The tree is split
// into documents by a layout of path patterns; each document is one Redis key
// written with WATCH/MULTI, so unrelated counters and entries never conflict.
package rtdb

import (
	"booth-queue/common/constant"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

const DefaultMaxRetries = 25

const (
	retryBackoffBase = time.Millisecond
	retryBackoffMax  = 50 * time.Millisecond
)

var (
	ErrInvalidPath = errors.New("rtdb: invalid path")
	ErrMaxRetries  = errors.New("rtdb: transaction retries exhausted")
)

type Options struct {
	Prefix     string
	MaxRetries int
	// Layout overrides DefaultLayout.
	Layout []string
}

type Client struct {
	rdb        *redis.Client
	prefix     string
	maxRetries int
	layout     layout
	locks      *keyLocks
}

func New(rdb *redis.Client, opts Options) *Client {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "rtdb"
	}

	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	patterns := opts.Layout
	if patterns == nil {
		patterns = DefaultLayout
	}

	return &Client{
		rdb:        rdb,
		prefix:     prefix,
		maxRetries: maxRetries,
		layout:     parseLayout(patterns),
		locks:      &keyLocks{},
	}
}

// TxResult reports the outcome of Transaction. Snapshot holds the value at the
// path after the transaction, whether or not it wrote.
type TxResult struct {
	Committed bool
	Snapshot  Snapshot
}

// TransactionFunc receives the current value at the path, nil when absent, and
// returns the value to store. Returning abort leaves the data untouched. It may
// run several times and must not have side effects.
type TransactionFunc func(current any) (next any, abort bool)

// Get reads the subtree at path once.
func (c *Client) Get(ctx context.Context, path string) (Snapshot, error) {
	segs, err := splitPath(path)
	if err != nil {
		return Snapshot{}, err
	}

	value, err := c.read(newReader(ctx, c.rdb, nil), segs)
	if err != nil {
		return Snapshot{}, err
	}

	return newSnapshot(segs, value), nil
}

// Set overwrites the subtree at path. A nil value removes it.
func (c *Client) Set(ctx context.Context, path string, value any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}

	v, err := normalize(value)
	if err != nil {
		return err
	}

	_, _, err = c.commit(ctx, segs, func(any) (any, bool, error) {
		return v, true, nil
	})
	return err
}

// Update merges fields into the subtree at path. Field names may be relative
// paths; other children are left as they are.
func (c *Client) Update(ctx context.Context, path string, fields map[string]any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}

	type write struct {
		segs  []string
		value any
	}

	writes := make([]write, 0, len(fields))
	for name, value := range fields {
		fieldSegs, err := splitPath(name)
		if err != nil {
			return err
		}

		v, err := normalize(value)
		if err != nil {
			return err
		}

		writes = append(writes, write{segs: fieldSegs, value: v})
	}

	_, _, err = c.commit(ctx, segs, func(current any) (any, bool, error) {
		node := clone(current)
		for _, w := range writes {
			node = setAt(node, w.segs, w.value)
		}
		return node, true, nil
	})
	return err
}

// Push stores value under a new time ordered child key of path.
func (c *Client) Push(ctx context.Context, path string, value any) (string, error) {
	key := ulid.Make().String()
	if err := c.Set(ctx, strings.TrimSuffix(path, "/")+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

// Transaction atomically replaces the value at path with the result of fn,
// retrying from a fresh read whenever the document changed underneath.
func (c *Client) Transaction(ctx context.Context, path string, fn TransactionFunc) (TxResult, error) {
	segs, err := splitPath(path)
	if err != nil {
		return TxResult{}, err
	}

	value, committed, err := c.commit(ctx, segs, func(current any) (any, bool, error) {
		next, abort := fn(clone(current))
		if abort {
			return nil, false, nil
		}

		v, err := normalize(next)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	})
	if err != nil {
		return TxResult{}, err
	}

	return TxResult{Committed: committed, Snapshot: newSnapshot(segs, value)}, nil
}

// commit runs fn on the value at segs under WATCH of every key it reads. fn
// returns the new value and whether to write it. The value at segs after the
// call is returned. Commits of one process to the same document queue up
// behind each other; conflicts with other writers back off and retry.
func (c *Client) commit(ctx context.Context, segs []string, fn func(current any) (any, bool, error)) (any, bool, error) {
	changed := strings.Join(segs, "/")

	if loc, ok := c.locate(segs); ok {
		release, err := c.locks.acquire(ctx, loc.key)
		if err != nil {
			return nil, false, err
		}
		defer release()
	}

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := backoff(ctx, attempt); err != nil {
				return nil, false, err
			}
		}

		var result any
		var wrote bool

		err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
			r := newReader(ctx, tx, tx)

			current, err := c.read(r, segs)
			if err != nil {
				return err
			}

			next, write, err := fn(current)
			if err != nil {
				return err
			}

			if !write {
				result = current
				return nil
			}

			if containsServerValue(next) {
				now, err := tx.Time(ctx).Result()
				if err != nil {
					return err
				}
				next = resolve(next, now.UnixMilli())
			}

			p := newPlan()
			if err := c.write(r, segs, next, p); err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if err := p.apply(ctx, pipe); err != nil {
					return err
				}
				pipe.Publish(ctx, c.channel(segs[0]), changed)
				return nil
			})
			if err != nil {
				return err
			}

			result = next
			wrote = true
			return nil
		})

		if errors.Is(err, redis.TxFailedErr) {
			slog.DebugContext(ctx, "rtdb write conflict, retrying",
				slog.String(constant.LogFieldPath, changed),
				slog.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, false, err
		}

		return result, wrote, nil
	}

	return nil, false, fmt.Errorf("%w: %s", ErrMaxRetries, changed)
}

// backoff sleeps a random duration bounded by an exponential ceiling.
func backoff(ctx context.Context, attempt int) error {
	ceiling := min(retryBackoffBase<<min(attempt, 6), retryBackoffMax)

	t := time.NewTimer(rand.N(ceiling) + 1)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
