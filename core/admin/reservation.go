package admin

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
)

// LoadReservations reads all reservations once and keeps those of this booth,
// ordered by store key.
func (v *View) LoadReservations(ctx context.Context) ([]model.Reservation, error) {
	ctx, span := otel.Tracer.Start(ctx, "View.LoadReservations")
	defer span.End()

	snap, err := v.Store.Get(ctx, constant.PathReservations)
	if err != nil {
		common.UtilSpanError(span, err)
		return nil, fmt.Errorf("load reservations: %w", err)
	}

	reservations := make([]model.Reservation, 0)
	for _, child := range snap.Children() {
		var r model.Reservation
		if err := child.Decode(&r); err != nil {
			slog.WarnContext(ctx, "skipping undecodable reservation", common.ExtractTraceIDFromCtx(ctx),
				slog.String("reservation_key", child.Key()), slog.Any(constant.LogFieldErr, err))
			continue
		}

		if r.BoothID != v.BoothID {
			continue
		}

		r.Key = child.Key()
		withDefaultStatus(&r)
		reservations = append(reservations, r)
	}

	return reservations, nil
}

// Reservation reads one reservation. A missing one is ErrReservationNotFound.
func (v *View) Reservation(ctx context.Context, key string) (model.Reservation, error) {
	snap, err := v.Store.Get(ctx, fmt.Sprintf(constant.PathReservation, key))
	if err != nil {
		return model.Reservation{}, fmt.Errorf("load reservation %s: %w", key, err)
	}

	if !snap.Exists() {
		return model.Reservation{}, fmt.Errorf("%w: %s", errs.ErrReservationNotFound, key)
	}

	var r model.Reservation
	if err := snap.Decode(&r); err != nil {
		return model.Reservation{}, fmt.Errorf("decode reservation %s: %w", key, err)
	}
	r.Key = key
	withDefaultStatus(&r)

	return r, nil
}

// withDefaultStatus fills the status of reservations written without one.
func withDefaultStatus(r *model.Reservation) {
	if r.Status == "" {
		r.Status = constant.ReservationStatusDefault
	}
}

func (v *View) CheckIn(ctx context.Context, key string) (string, error) {
	ctx, span := otel.Tracer.Start(ctx, "View.CheckIn")
	defer span.End()

	err := v.Store.Update(ctx, fmt.Sprintf(constant.PathReservation, key), map[string]any{
		"status": constant.ReservationStatusCheckedIn,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to check in reservation", common.ExtractTraceIDFromCtx(ctx),
			slog.String("reservation_key", key), slog.Any(constant.LogFieldErr, err))
		common.UtilSpanError(span, err)
		return "", fmt.Errorf("%w: check in %s: %v", errs.ErrUpdateFailed, key, err)
	}

	return v.notice(constant.NoticeCheckedIn), nil
}

// RequestEmailNotification flags the reservation for the email worker. A
// reservation without an email address is rejected before anything is
// written.
func (v *View) RequestEmailNotification(ctx context.Context, key string) (string, error) {
	ctx, span := otel.Tracer.Start(ctx, "View.RequestEmailNotification")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	r, err := v.Reservation(ctx, key)
	if err != nil {
		common.UtilSpanError(span, err)
		return "", err
	}

	if r.Email == "" {
		slog.WarnContext(ctx, "email requested for reservation without email", traceIdAttr,
			slog.String("reservation_key", key))
		return "", fmt.Errorf("%w: %s", errs.ErrEmailMissing, key)
	}

	err = v.Store.Update(ctx, fmt.Sprintf(constant.PathReservation, key), map[string]any{
		"requestEmail":     true,
		"requestTimestamp": rtdb.ServerTimestamp,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to flag email request", traceIdAttr,
			slog.String("reservation_key", key), slog.Any(constant.LogFieldErr, err))
		common.UtilSpanError(span, err)
		return "", fmt.Errorf("%w: email request %s: %v", errs.ErrUpdateFailed, key, err)
	}

	return v.notice(constant.NoticeEmailRequested), nil
}

// EmailRequest builds the mail endpoint payload for a reservation.
func (v *View) EmailRequest(r model.Reservation) model.EmailRequest {
	return model.EmailRequest{
		To:            r.Email,
		Name:          r.Name,
		ReservationID: r.DisplayID(),
		TimeSlot:      r.TimeSlot,
		BoothName:     v.BoothName,
	}
}

// SendEmail posts the reservation notice right away. The endpoint is not
// called when the reservation has no email address.
func (v *View) SendEmail(ctx context.Context, key string) (string, error) {
	ctx, span := otel.Tracer.Start(ctx, "View.SendEmail")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	r, err := v.Reservation(ctx, key)
	if err != nil {
		common.UtilSpanError(span, err)
		return "", err
	}

	if r.Email == "" {
		return "", fmt.Errorf("%w: %s", errs.ErrEmailMissing, key)
	}

	if err := v.Mailer.Send(ctx, v.EmailRequest(r)); err != nil {
		slog.ErrorContext(ctx, "failed to send reservation email", traceIdAttr,
			slog.String("reservation_key", key), slog.Any(constant.LogFieldErr, err))
		common.UtilSpanError(span, err)
		return "", err
	}

	if err := v.MarkEmailSent(ctx, key); err != nil {
		slog.WarnContext(ctx, "email sent but not stamped", traceIdAttr,
			slog.String("reservation_key", key), slog.Any(constant.LogFieldErr, err))
	}

	return v.notice(constant.NoticeEmailSent), nil
}

func (v *View) MarkEmailSent(ctx context.Context, key string) error {
	return v.Store.Update(ctx, fmt.Sprintf(constant.PathReservation, key), map[string]any{
		"emailSentAt": rtdb.ServerTimestamp,
	})
}
