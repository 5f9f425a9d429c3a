package http

import (
	"booth-queue/common/constant"
	"booth-queue/common/errs"
	"booth-queue/common/vars"
	"booth-queue/core/admin"
	"booth-queue/model"
	"booth-queue/outbound/activity"
	"net/http"
	"strconv"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

type DashboardHttp struct {
	Policy  admin.AccessPolicy
	BoothID string
	Querier *activity.Queries
}

func RegisterDashboardHttp(mux *http.ServeMux, view *admin.View, querier *activity.Queries) *DashboardHttp {
	in := &DashboardHttp{Policy: view.Policy, BoothID: view.BoothID, Querier: querier}

	mux.HandleFunc("GET /health", in.health)
	mux.HandleFunc("GET /api/dashboard", RequireAdmin(in.Policy, in.dashboard))
	mux.HandleFunc("GET /api/activities", RequireAdmin(in.Policy, in.activities))

	return in
}

func (in *DashboardHttp) health(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (in *DashboardHttp) dashboard(w http.ResponseWriter, r *http.Request) {
	d := vars.GetDashboard()
	if d == nil {
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusServiceUnavailable, Message: errorPrinter.Sprintf(constant.NoticeDashboardNotReady)})
		return
	}

	writeJSONResponse(w, http.StatusOK, d)
}

func (in *DashboardHttp) activities(w http.ResponseWriter, r *http.Request) {
	limit := defaultActivityLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeErrorResponse(w, &errs.HttpError{Code: http.StatusBadRequest, Message: errorPrinter.Sprintf(constant.NoticeInvalidLimit)})
			return
		}
		limit = min(n, maxActivityLimit)
	}

	items, err := in.Querier.ListRecentActivities(r.Context(), in.BoothID, int32(limit))
	if err != nil {
		writeErrorResponse(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, model.ListActivitiesResponse{Activities: items})
}
