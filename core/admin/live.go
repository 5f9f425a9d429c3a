package admin

import (
	"booth-queue/common/constant"
	"booth-queue/common/vars"
	"booth-queue/core/queue"
	"booth-queue/model"
	"booth-queue/outbound/rtdb"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

type liveSource int

const (
	sourceSlots liveSource = iota
	sourceCurrentCall
	sourceWaitingList
)

type liveUpdate struct {
	source liveSource
	snap   rtdb.Snapshot
}

// Live merges the slot, call and waiting list subscriptions of the booth
// into dashboard states. The first state is sent once every source has
// reported. The channel closes when ctx is done.
func (v *View) Live(ctx context.Context) (<-chan model.Dashboard, error) {
	ctx, cancel := context.WithCancel(ctx)

	paths := map[liveSource]string{
		sourceSlots:       fmt.Sprintf(constant.PathBoothSlots, v.BoothID),
		sourceCurrentCall: fmt.Sprintf(constant.PathBoothCurrentCall, v.BoothID),
		sourceWaitingList: fmt.Sprintf(constant.PathBoothWaitingList, v.BoothID),
	}

	updates := make(chan liveUpdate)
	for source, path := range paths {
		snaps, err := v.Store.Subscribe(ctx, path)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("subscribe %s: %w", path, err)
		}

		go func(source liveSource, snaps <-chan rtdb.Snapshot) {
			for snap := range snaps {
				select {
				case updates <- liveUpdate{source: source, snap: snap}:
				case <-ctx.Done():
					return
				}
			}
			// a broken subscription ends the whole view
			cancel()
		}(source, snaps)
	}

	out := make(chan model.Dashboard, 1)

	go func() {
		defer close(out)
		defer cancel()

		seen := make(map[liveSource]bool, len(paths))
		state := model.Dashboard{
			BoothID: v.BoothID,
			Title:   v.Printer.Sprintf(constant.DashboardTitle, v.BoothID),
			Slots:   []model.SlotStatus{},
			Waiting: []model.WaitingRow{},
		}

		for {
			select {
			case <-ctx.Done():
				return
			case u := <-updates:
				if err := v.apply(&state, u); err != nil {
					slog.WarnContext(ctx, "skipping undecodable dashboard update",
						slog.String(constant.LogFieldBoothId, v.BoothID),
						slog.String(constant.LogFieldPath, u.snap.Path()),
						slog.Any(constant.LogFieldErr, err))
					continue
				}

				seen[u.source] = true
				if len(seen) < len(paths) {
					continue
				}

				select {
				case out <- state:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (v *View) apply(state *model.Dashboard, u liveUpdate) error {
	switch u.source {
	case sourceSlots:
		slots := make(map[string]int)
		if err := u.snap.Decode(&slots); err != nil {
			return err
		}
		state.Slots = SlotStatuses(slots)

	case sourceCurrentCall:
		state.CurrentCall = u.snap.Int()

	case sourceWaitingList:
		list := make(map[string]model.WaitingEntry)
		if err := u.snap.Decode(&list); err != nil {
			return err
		}
		state.Waiting = WaitingRows(queue.ActiveWaiting(list))
		state.WaitingCount = len(state.Waiting)
	}

	return nil
}

// SlotStatuses orders the remaining seats by time label.
func SlotStatuses(slots map[string]int) []model.SlotStatus {
	statuses := make([]model.SlotStatus, 0, len(slots))
	for label, remaining := range slots {
		statuses = append(statuses, model.SlotStatus{TimeLabel: label, Remaining: remaining})
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].TimeLabel < statuses[j].TimeLabel
	})

	return statuses
}

func WaitingRows(entries []model.WaitingEntry) []model.WaitingRow {
	rows := make([]model.WaitingRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, model.WaitingRow{
			Key:       e.Key,
			Number:    e.Number,
			Name:      e.Name,
			PartySize: e.PartySize,
			Time:      time.UnixMilli(e.Timestamp).Format(constant.WaitingTimeLayout),
			Status:    e.Status,
		})
	}
	return rows
}

// Run keeps the shared dashboard cache current until ctx is done.
func (v *View) Run(ctx context.Context) error {
	states, err := v.Live(ctx)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "dashboard render loop started", slog.String(constant.LogFieldBoothId, v.BoothID))

	for state := range states {
		vars.SetDashboard(&state)
	}

	slog.InfoContext(ctx, "dashboard render loop stopped", slog.String(constant.LogFieldBoothId, v.BoothID))
	return nil
}
