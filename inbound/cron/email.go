package cron

import (
	"booth-queue/common"
	"booth-queue/common/constant"
	"booth-queue/common/contract"
	"booth-queue/model"
	"context"
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// EmailRequests is the reservation side of the email worker.
type EmailRequests interface {
	PendingEmailRequests(ctx context.Context) ([]model.Reservation, error)
	ClaimEmailRequest(ctx context.Context, key string) (model.Reservation, bool, error)
	ReleaseEmailRequest(ctx context.Context, key string) error
	EmailRequest(r model.Reservation) model.EmailRequest
}

// EmailRequestCron moves flagged reservations onto the email queue.
type EmailRequestCron struct {
	Cfg       *viper.Viper
	Requests  EmailRequests
	Publisher contract.Publisher
}

func (in EmailRequestCron) Start(ctx context.Context) {
	ticker := time.NewTicker(in.Cfg.GetDuration("cron.email.interval"))
	defer ticker.Stop()

	in.dispatch(ctx)

	slog.Info("email request cron started")

	for {
		select {
		case <-ticker.C:
			in.dispatch(ctx)
		case <-ctx.Done():
			slog.Info("email request cron stopped")
			return
		}
	}
}

func (in EmailRequestCron) dispatch(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, in.Cfg.GetDuration("cron.email.timeout"))
	defer cancel()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	pending, err := in.Requests.PendingEmailRequests(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load email requests", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return
	}

	if len(pending) == 0 {
		return
	}

	slog.DebugContext(ctx, "dispatching email requests", traceIdAttr, slog.Int("count", len(pending)))

	for _, r := range pending {
		keyAttr := slog.String("reservation_key", r.Key)

		claimed, ok, err := in.Requests.ClaimEmailRequest(ctx, r.Key)
		if err != nil {
			slog.ErrorContext(ctx, "failed to claim email request", traceIdAttr, keyAttr, slog.Any(constant.LogFieldErr, err))
			continue
		}
		if !ok {
			continue
		}

		if claimed.Email == "" {
			slog.WarnContext(ctx, "email request without address dropped", traceIdAttr, keyAttr)
			continue
		}

		err = common.PublishMessage(ctx, in.Publisher, constant.SubjectSendEmail, model.SendEmailEventMessage{
			ReservationKey: claimed.Key,
			Email:          in.Requests.EmailRequest(claimed),
		})
		if err != nil {
			if err := in.Requests.ReleaseEmailRequest(ctx, r.Key); err != nil {
				slog.ErrorContext(ctx, "failed to release email request", traceIdAttr, keyAttr, slog.Any(constant.LogFieldErr, err))
			}
			continue
		}

		slog.InfoContext(ctx, "email request queued", traceIdAttr, keyAttr)
	}
}
