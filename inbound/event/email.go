package event

import (
	"booth-queue/common"
	"booth-queue/common/constant"
	"booth-queue/common/contract"
	"booth-queue/common/errs"
	"booth-queue/common/otel"
	"booth-queue/model"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// EmailStamper records delivery on the reservation.
type EmailStamper interface {
	MarkEmailSent(ctx context.Context, key string) error
}

type EmailEvent struct {
	BoothID   string
	Mailer    contract.Mailer
	Stamper   EmailStamper
	Publisher contract.Publisher
	Timeout   time.Duration
}

// SendEmailHandler posts one queued reservation email. A returned error asks
// for redelivery; rejected requests are acknowledged and logged.
func (in EmailEvent) SendEmailHandler(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, in.Timeout)
	defer cancel()

	var req model.SendEmailEventMessage
	err := json.Unmarshal(msg, &req)
	if err != nil {
		slog.WarnContext(ctx, "send email event unmarshal error", slog.Any(constant.LogFieldErr, err))
		return nil
	}

	ctx, span := otel.Tracer.Start(ctx, "EmailEvent.SendEmailHandler")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	keyAttr := slog.String("reservation_key", req.ReservationKey)

	err = in.Mailer.Send(ctx, req.Email)
	if err != nil {
		common.UtilSpanError(span, err)

		var sendErr *errs.EmailSendError
		if errors.As(err, &sendErr) && sendErr.Status >= http.StatusBadRequest && sendErr.Status < http.StatusInternalServerError {
			slog.ErrorContext(ctx, "email rejected by endpoint, dropping", traceIdAttr, keyAttr,
				slog.Int("status", sendErr.Status), slog.String(constant.LogFieldResponse, sendErr.Message))
			return nil
		}

		slog.ErrorContext(ctx, "send email event error", traceIdAttr, keyAttr, slog.Any(constant.LogFieldErr, err))
		return err
	}

	if err := in.Stamper.MarkEmailSent(ctx, req.ReservationKey); err != nil {
		slog.WarnContext(ctx, "email sent but not stamped", traceIdAttr, keyAttr, slog.Any(constant.LogFieldErr, err))
	}

	common.PublishActivity(ctx, in.Publisher, model.ActivityEventMessage{
		BoothID: in.BoothID,
		Action:  model.ActivityEmailSent,
		Subject: req.ReservationKey,
		Detail:  req.Email.To,
	})

	slog.InfoContext(ctx, "reservation email sent", traceIdAttr, keyAttr)
	return nil
}
