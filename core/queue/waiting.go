package queue

import (
	"booth-queue/common/constant"
	"booth-queue/model"
	"booth-queue/outbound/rtdb"
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// ActiveWaiting derives the waiting view from the full list: entries that are
// neither completed nor cancelled, ascending by ticket number.
func ActiveWaiting(list map[string]model.WaitingEntry) []model.WaitingEntry {
	active := make([]model.WaitingEntry, 0, len(list))
	for key, entry := range list {
		if entry.Status == model.StatusCompleted || entry.Status == model.StatusCancelled {
			continue
		}
		entry.Key = key
		active = append(active, entry)
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].Number < active[j].Number
	})

	return active
}

func decodeWaitingList(snap rtdb.Snapshot) (map[string]model.WaitingEntry, error) {
	list := make(map[string]model.WaitingEntry)
	if err := snap.Decode(&list); err != nil {
		return nil, fmt.Errorf("decode waiting list: %w", err)
	}
	return list, nil
}

// ListActiveWaiting reads the waiting list once.
func (a *Allocator) ListActiveWaiting(ctx context.Context, boothID string) ([]model.WaitingEntry, error) {
	snap, err := a.Store.Get(ctx, fmt.Sprintf(constant.PathBoothWaitingList, boothID))
	if err != nil {
		return nil, err
	}

	list, err := decodeWaitingList(snap)
	if err != nil {
		return nil, err
	}

	return ActiveWaiting(list), nil
}

// WatchActiveWaiting recomputes the waiting view on every change of the
// waiting list until ctx is done.
func (a *Allocator) WatchActiveWaiting(ctx context.Context, boothID string) (<-chan []model.WaitingEntry, error) {
	snaps, err := a.Store.Subscribe(ctx, fmt.Sprintf(constant.PathBoothWaitingList, boothID))
	if err != nil {
		return nil, err
	}

	out := make(chan []model.WaitingEntry, 1)

	go func() {
		defer close(out)

		for snap := range snaps {
			list, err := decodeWaitingList(snap)
			if err != nil {
				slog.WarnContext(ctx, "skipping undecodable waiting list",
					slog.String(constant.LogFieldBoothId, boothID), slog.Any(constant.LogFieldErr, err))
				continue
			}

			select {
			case out <- ActiveWaiting(list):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
