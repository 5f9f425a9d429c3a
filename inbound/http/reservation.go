package http

import (
	"booth-queue/common"
	"booth-queue/common/contract"
	"booth-queue/common/otel"
	"booth-queue/core/admin"
	"booth-queue/model"
	"net/http"
)

type ReservationHttp struct {
	View      *admin.View
	Publisher contract.Publisher
}

func RegisterReservationHttp(mux *http.ServeMux, view *admin.View, publisher contract.Publisher) *ReservationHttp {
	in := &ReservationHttp{View: view, Publisher: publisher}

	mux.HandleFunc("GET /api/reservations", RequireAdmin(view.Policy, in.list))
	mux.HandleFunc("POST /api/reservations/{key}/check-in", RequireAdmin(view.Policy, in.checkIn))
	mux.HandleFunc("POST /api/reservations/{key}/email-request", RequireAdmin(view.Policy, in.requestEmail))
	mux.HandleFunc("POST /api/reservations/{key}/email", RequireAdmin(view.Policy, in.sendEmail))

	return in
}

func (in *ReservationHttp) list(w http.ResponseWriter, r *http.Request) {
	reservations, err := in.View.LoadReservations(r.Context())
	if err != nil {
		writeErrorResponse(w, err)
		return
	}

	res := model.ListReservationsResponse{Reservations: make([]model.ReservationResponse, 0, len(reservations))}
	for _, rv := range reservations {
		res.Reservations = append(res.Reservations, model.ReservationResponse{
			Key:       rv.Key,
			DisplayID: rv.DisplayID(),
			Name:      rv.Name,
			StudentID: rv.StudentID,
			Email:     rv.Email,
			TimeSlot:  rv.TimeSlot,
			PartySize: rv.PartySize,
			Status:    rv.Status,
		})
	}

	writeJSONResponse(w, http.StatusOK, res)
}

func (in *ReservationHttp) checkIn(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer.Start(r.Context(), "ReservationHttp.checkIn")
	defer span.End()

	key := r.PathValue("key")

	notice, err := in.View.CheckIn(ctx, key)
	if err != nil {
		common.UtilSpanError(span, err)
		writeErrorResponse(w, err)
		return
	}

	common.PublishActivity(ctx, in.Publisher, model.ActivityEventMessage{
		BoothID: in.View.BoothID,
		Action:  model.ActivityCheckIn,
		Subject: key,
		Actor:   actor(r),
	})

	writeJSONResponse(w, http.StatusOK, model.NoticeResponse{Notice: notice})
}

func (in *ReservationHttp) requestEmail(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer.Start(r.Context(), "ReservationHttp.requestEmail")
	defer span.End()

	key := r.PathValue("key")

	notice, err := in.View.RequestEmailNotification(ctx, key)
	if err != nil {
		common.UtilSpanError(span, err)
		writeErrorResponse(w, err)
		return
	}

	common.PublishActivity(ctx, in.Publisher, model.ActivityEventMessage{
		BoothID: in.View.BoothID,
		Action:  model.ActivityEmailRequested,
		Subject: key,
		Actor:   actor(r),
	})

	writeJSONResponse(w, http.StatusAccepted, model.NoticeResponse{Notice: notice})
}

func (in *ReservationHttp) sendEmail(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer.Start(r.Context(), "ReservationHttp.sendEmail")
	defer span.End()

	key := r.PathValue("key")

	notice, err := in.View.SendEmail(ctx, key)
	if err != nil {
		common.UtilSpanError(span, err)
		writeErrorResponse(w, err)
		return
	}

	common.PublishActivity(ctx, in.Publisher, model.ActivityEventMessage{
		BoothID: in.View.BoothID,
		Action:  model.ActivityEmailSent,
		Subject: key,
		Actor:   actor(r),
	})

	writeJSONResponse(w, http.StatusOK, model.NoticeResponse{Notice: notice})
}
