package http

import (
	"booth-queue/common"
	"booth-queue/common/constant"
	"booth-queue/common/contract"
	"booth-queue/common/otel"
	"booth-queue/core/admin"
	"booth-queue/model"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

type QueueHttp struct {
	View      *admin.View
	Publisher contract.Publisher
	Validate  *validator.Validate
}

func RegisterQueueHttp(mux *http.ServeMux, view *admin.View, publisher contract.Publisher, validate *validator.Validate) *QueueHttp {
	in := &QueueHttp{View: view, Publisher: publisher, Validate: validate}

	mux.HandleFunc("POST /api/queue/tickets", in.issueTicket)
	mux.HandleFunc("POST /api/queue/call-next", RequireAdmin(view.Policy, in.callNext))
	mux.HandleFunc("POST /api/queue/reset", RequireAdmin(view.Policy, in.reset))
	mux.HandleFunc("PUT /api/queue/entries/{key}/status", RequireAdmin(view.Policy, in.setEntryStatus))
	mux.HandleFunc("GET /api/queue/waiting", RequireAdmin(view.Policy, in.waiting))

	return in
}

// issueTicket is the walk-in registration. It is open to everyone.
func (in *QueueHttp) issueTicket(w http.ResponseWriter, r *http.Request) {
	var req model.EntryData
	if err := decodeJSON(r, &req); err != nil {
		writeErrorResponse(w, err)
		return
	}

	ctx, span := otel.Tracer.Start(r.Context(), "QueueHttp.issueTicket")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	slog.InfoContext(ctx, "issue ticket receive request", slog.Any(constant.LogFieldPayload, req), traceIdAttr)

	number, notice, err := in.View.IssueTicket(ctx, req)
	if err != nil {
		common.UtilSpanError(span, err)
		writeErrorResponse(w, err)
		return
	}

	common.PublishActivity(ctx, in.Publisher, model.ActivityEventMessage{
		BoothID: in.View.BoothID,
		Action:  model.ActivityTicketIssued,
		Number:  number,
		Detail:  req.Name,
		Actor:   actor(r),
	})

	writeJSONResponse(w, http.StatusCreated, model.NoticeResponse{
		Notice: notice,
		Data:   model.IssueTicketResponse{Number: number},
	})
}

func (in *QueueHttp) callNext(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer.Start(r.Context(), "QueueHttp.callNext")
	defer span.End()

	called, notice, err := in.View.CallNext(ctx)
	if err != nil {
		common.UtilSpanError(span, err)
		writeErrorResponse(w, err)
		return
	}

	common.PublishActivity(ctx, in.Publisher, model.ActivityEventMessage{
		BoothID: in.View.BoothID,
		Action:  model.ActivityCallNext,
		Number:  called,
		Actor:   actor(r),
	})

	writeJSONResponse(w, http.StatusOK, model.NoticeResponse{
		Notice: notice,
		Data:   model.CallNextResponse{CurrentCall: called},
	})
}

func (in *QueueHttp) reset(w http.ResponseWriter, r *http.Request) {
	var req model.ResetQueueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorResponse(w, err)
		return
	}

	ctx, span := otel.Tracer.Start(r.Context(), "QueueHttp.reset")
	defer span.End()

	notice, err := in.View.ResetQueue(ctx, req.Confirm)
	if err != nil {
		common.UtilSpanError(span, err)
		writeErrorResponse(w, err)
		return
	}

	common.PublishActivity(ctx, in.Publisher, model.ActivityEventMessage{
		BoothID: in.View.BoothID,
		Action:  model.ActivityQueueReset,
		Actor:   actor(r),
	})

	writeJSONResponse(w, http.StatusOK, model.NoticeResponse{Notice: notice})
}

func (in *QueueHttp) setEntryStatus(w http.ResponseWriter, r *http.Request) {
	var req model.SetEntryStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorResponse(w, err)
		return
	}

	if err := in.Validate.Struct(req); err != nil {
		writeErrorResponse(w, err)
		return
	}

	ctx, span := otel.Tracer.Start(r.Context(), "QueueHttp.setEntryStatus")
	defer span.End()

	key := r.PathValue("key")

	notice, err := in.View.SetEntryStatus(ctx, key, req.Status)
	if err != nil {
		common.UtilSpanError(span, err)
		writeErrorResponse(w, err)
		return
	}

	common.PublishActivity(ctx, in.Publisher, model.ActivityEventMessage{
		BoothID: in.View.BoothID,
		Action:  model.ActivityEntryStatus,
		Subject: key,
		Detail:  req.Status,
		Actor:   actor(r),
	})

	writeJSONResponse(w, http.StatusOK, model.NoticeResponse{Notice: notice})
}

func (in *QueueHttp) waiting(w http.ResponseWriter, r *http.Request) {
	entries, err := in.View.Allocator.ListActiveWaiting(r.Context(), in.View.BoothID)
	if err != nil {
		writeErrorResponse(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, admin.WaitingRows(entries))
}
