package event

import (
	"booth-queue/common"
	"booth-queue/common/constant"
	"booth-queue/common/otel"
	"booth-queue/model"
	"booth-queue/outbound/activity"
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

type ActivityEvent struct {
	Querier *activity.Queries
	Timeout time.Duration
}

func (in ActivityEvent) RecordHandler(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, in.Timeout)
	defer cancel()

	var req model.ActivityEventMessage
	err := json.Unmarshal(msg, &req)
	if err != nil || req.Action == "" {
		slog.WarnContext(ctx, "record activity event unmarshal error",
			slog.Any(constant.LogFieldErr, err), slog.String(constant.LogFieldPayload, string(msg)))
		return nil
	}

	ctx, span := otel.Tracer.Start(ctx, "ActivityEvent.RecordHandler")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	occurredAt, err := time.Parse(time.RFC3339Nano, req.OccurredAt)
	if err != nil {
		occurredAt = time.Now().UTC()
	}

	id, err := in.Querier.InsertActivity(ctx, activity.InsertActivityParams{
		BoothID:    req.BoothID,
		Action:     req.Action,
		Subject:    req.Subject,
		Number:     req.Number,
		Detail:     req.Detail,
		Actor:      req.Actor,
		OccurredAt: occurredAt,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to insert activity", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		common.UtilSpanError(span, err)
		return err
	}

	slog.DebugContext(ctx, "activity recorded", traceIdAttr, slog.Int64("id", id), slog.String("action", req.Action))
	return nil
}
