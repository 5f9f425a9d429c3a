// Package admin is the booth operator view: live dashboard state plus the
// commands an operator can run against the queue and the reservations.
package admin

import (
	"booth-queue/common"
	"booth-queue/common/constant"
	"booth-queue/common/contract"
	"booth-queue/common/errs"
	"booth-queue/common/otel"
	"booth-queue/core/queue"
	"booth-queue/model"
	"context"
	"log/slog"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// AccessPolicy decides whether admin content is shown. It is evaluated per
// request against the caller's session.
type AccessPolicy struct {
	RequiresAuth bool
}

// Visible reports whether a caller may see the admin view.
func (p AccessPolicy) Visible(authenticated bool) bool {
	return !p.RequiresAuth || authenticated
}

// Store is the part of the realtime database the view needs.
type Store interface {
	queue.Store
	Update(ctx context.Context, path string, fields map[string]any) error
}

type View struct {
	BoothID   string
	BoothName string
	Policy    AccessPolicy
	Store     Store
	Allocator *queue.Allocator
	Mailer    contract.Mailer
	Printer   *message.Printer
}

func NewView(boothID, boothName string, policy AccessPolicy, store Store, allocator *queue.Allocator, mailer contract.Mailer) *View {
	return &View{
		BoothID:   boothID,
		BoothName: boothName,
		Policy:    policy,
		Store:     store,
		Allocator: allocator,
		Mailer:    mailer,
		Printer:   message.NewPrinter(language.Korean),
	}
}

func (v *View) notice(format string, args ...any) string {
	return v.Printer.Sprintf(format, args...)
}

// CallNext announces the next number and returns it with the operator notice.
func (v *View) CallNext(ctx context.Context) (int64, string, error) {
	called, err := v.Allocator.CallNext(ctx, v.BoothID)
	if err != nil {
		return 0, "", err
	}
	return called, v.notice(constant.NoticeCallNext, called), nil
}

// ResetQueue clears the booth queue. The caller must have confirmed.
func (v *View) ResetQueue(ctx context.Context, confirm bool) (string, error) {
	if !confirm {
		return "", errs.ErrConfirmationRequired
	}

	if err := v.Allocator.ResetQueue(ctx, v.BoothID); err != nil {
		return "", err
	}
	return v.notice(constant.NoticeQueueReset), nil
}

func (v *View) SetEntryStatus(ctx context.Context, entryKey, status string) (string, error) {
	if err := v.Allocator.SetEntryStatus(ctx, v.BoothID, entryKey, status); err != nil {
		return "", err
	}
	return v.notice(constant.NoticeStatusUpdated), nil
}

// IssueTicket registers a walk-in and returns the issued number.
func (v *View) IssueTicket(ctx context.Context, entry model.EntryData) (int64, string, error) {
	ctx, span := otel.Tracer.Start(ctx, "View.IssueTicket")
	defer span.End()

	number, err := v.Allocator.IssueTicket(ctx, v.BoothID, entry)
	if err != nil {
		common.UtilSpanError(span, err)
		slog.WarnContext(ctx, "walk-in registration failed", common.ExtractTraceIDFromCtx(ctx),
			slog.String(constant.LogFieldBoothId, v.BoothID), slog.Any(constant.LogFieldErr, err))
		return 0, "", err
	}
	return number, v.notice(constant.NoticeTicketIssued, number), nil
}
