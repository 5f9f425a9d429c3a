// Package queue allocates walk-in ticket numbers and moves waiting entries
// through their statuses. All state lives in the realtime database; the only
// shared mutable cells are the per booth last_number and current_call
// counters, both advanced with compare-and-set transactions.
package queue

import (
	"booth-queue/common"
	"booth-queue/common/constant"
	"booth-queue/common/errs"
	"booth-queue/common/otel"
	"booth-queue/model"
	"booth-queue/outbound/rtdb"
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
)

// Store is the part of the realtime database the allocator needs.
type Store interface {
	Get(ctx context.Context, path string) (rtdb.Snapshot, error)
	Set(ctx context.Context, path string, value any) error
	Push(ctx context.Context, path string, value any) (string, error)
	Transaction(ctx context.Context, path string, fn rtdb.TransactionFunc) (rtdb.TxResult, error)
	Subscribe(ctx context.Context, path string) (<-chan rtdb.Snapshot, error)
}

type Allocator struct {
	Store    Store
	Validate *validator.Validate
}

func NewAllocator(store Store, validate *validator.Validate) *Allocator {
	return &Allocator{Store: store, Validate: validate}
}

// IssueTicket hands out the next ticket number of the booth and appends the
// walk-in to the waiting list. The entry is only written once the counter
// commit succeeded. An absent counter starts at 1; an absent current_call
// reads as 0.
func (a *Allocator) IssueTicket(ctx context.Context, boothID string, entry model.EntryData) (int64, error) {
	if err := a.Validate.Struct(entry); err != nil {
		return 0, err
	}

	ctx, span := otel.Tracer.Start(ctx, "Allocator.IssueTicket")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	boothAttr := slog.String(constant.LogFieldBoothId, boothID)

	res, err := a.Store.Transaction(ctx, fmt.Sprintf(constant.PathBoothLastNumber, boothID), func(current any) (any, bool) {
		return rtdb.Int(current) + 1, false
	})
	if err != nil || !res.Committed {
		slog.ErrorContext(ctx, "failed to allocate ticket number", traceIdAttr, boothAttr, slog.Any(constant.LogFieldErr, err))
		common.UtilSpanError(span, err)
		return 0, allocationError(err)
	}

	number := res.Snapshot.Int()

	key, err := a.Store.Push(ctx, fmt.Sprintf(constant.PathBoothWaitingList, boothID), map[string]any{
		"number":    number,
		"name":      entry.Name,
		"partySize": entry.PartySize,
		"phone":     entry.Phone,
		"timestamp": rtdb.ServerTimestamp,
		"status":    model.StatusWaiting,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to append waiting entry", traceIdAttr, boothAttr,
			slog.Int64("number", number), slog.Any(constant.LogFieldErr, err))
		common.UtilSpanError(span, err)
		return 0, fmt.Errorf("%w: append waiting entry %d: %v", errs.ErrUpdateFailed, number, err)
	}

	slog.InfoContext(ctx, "ticket issued", traceIdAttr, boothAttr,
		slog.Int64("number", number), slog.String("entry_key", key))

	return number, nil
}

// CallNext advances the announced number. It does not look at the waiting
// list.
func (a *Allocator) CallNext(ctx context.Context, boothID string) (int64, error) {
	ctx, span := otel.Tracer.Start(ctx, "Allocator.CallNext")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	boothAttr := slog.String(constant.LogFieldBoothId, boothID)

	res, err := a.Store.Transaction(ctx, fmt.Sprintf(constant.PathBoothCurrentCall, boothID), func(current any) (any, bool) {
		return rtdb.Int(current) + 1, false
	})
	if err != nil || !res.Committed {
		slog.ErrorContext(ctx, "failed to advance call number", traceIdAttr, boothAttr, slog.Any(constant.LogFieldErr, err))
		common.UtilSpanError(span, err)
		return 0, allocationError(err)
	}

	called := res.Snapshot.Int()
	slog.InfoContext(ctx, "next number called", traceIdAttr, boothAttr, slog.Int64("current_call", called))

	return called, nil
}

// ResetQueue overwrites the whole queue record. It is not ordered against
// concurrent IssueTicket or CallNext calls; the last writer wins.
func (a *Allocator) ResetQueue(ctx context.Context, boothID string) error {
	ctx, span := otel.Tracer.Start(ctx, "Allocator.ResetQueue")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	err := a.Store.Set(ctx, fmt.Sprintf(constant.PathBoothQueue, boothID), map[string]any{
		"current_call": 0,
		"last_number":  0,
		"waiting_list": nil,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to reset queue", traceIdAttr,
			slog.String(constant.LogFieldBoothId, boothID), slog.Any(constant.LogFieldErr, err))
		common.UtilSpanError(span, err)
		return fmt.Errorf("%w: reset queue: %v", errs.ErrUpdateFailed, err)
	}

	slog.InfoContext(ctx, "queue reset", traceIdAttr, slog.String(constant.LogFieldBoothId, boothID))
	return nil
}

// SetEntryStatus rewrites only the status field of one waiting entry. An
// unknown entry key is silently ignored.
func (a *Allocator) SetEntryStatus(ctx context.Context, boothID, entryKey, status string) error {
	if !model.ValidStatus(status) {
		return fmt.Errorf("%w: %q", errs.ErrInvalidStatus, status)
	}

	ctx, span := otel.Tracer.Start(ctx, "Allocator.SetEntryStatus")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	res, err := a.Store.Transaction(ctx, fmt.Sprintf(constant.PathBoothEntry, boothID, entryKey), func(current any) (any, bool) {
		entry := rtdb.Map(current)
		if entry == nil {
			return nil, true
		}

		entry["status"] = status
		return entry, false
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to update entry status", traceIdAttr,
			slog.String(constant.LogFieldBoothId, boothID),
			slog.String("entry_key", entryKey),
			slog.Any(constant.LogFieldErr, err))
		common.UtilSpanError(span, err)
		return fmt.Errorf("%w: entry %s: %v", errs.ErrUpdateFailed, entryKey, err)
	}

	if !res.Committed {
		slog.WarnContext(ctx, "entry not found, status unchanged", traceIdAttr, slog.String("entry_key", entryKey))
		return nil
	}

	slog.InfoContext(ctx, "entry status updated", traceIdAttr,
		slog.String("entry_key", entryKey), slog.String("status", status))
	return nil
}

func allocationError(err error) error {
	if err == nil {
		return fmt.Errorf("%w: transaction not committed", errs.ErrAllocationFailed)
	}
	return fmt.Errorf("%w: %v", errs.ErrAllocationFailed, err)
}
