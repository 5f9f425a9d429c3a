package http

import (
	"booth-queue/common/vars"
	"booth-queue/core/admin"
	"booth-queue/model"
	"booth-queue/outbound/activity"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/suite"
)

type DashboardHttpTestSuite struct {
	AdminHttpSuite

	PgxMock pgxmock.PgxPoolIface
}

func (s *DashboardHttpTestSuite) SetupTest() {
	pool, err := pgxmock.NewPool()
	s.Require().NoError(err)
	s.PgxMock = pool

	s.setup(admin.AccessPolicy{RequiresAuth: true}, func(mux *http.ServeMux) {
		RegisterDashboardHttp(mux, s.View, activity.New(pool))
	})

	vars.SetDashboard(nil)
}

func (s *DashboardHttpTestSuite) TearDownTest() {
	s.NoError(s.PgxMock.ExpectationsWereMet())
	s.PgxMock.Close()
	vars.SetDashboard(nil)
	s.AdminHttpSuite.TearDownTest()
}

func TestDashboardHttpTestSuite(t *testing.T) {
	suite.Run(t, new(DashboardHttpTestSuite))
}

func (s *DashboardHttpTestSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", "", "")

	s.Equal(http.StatusOK, w.Code)
	s.Equal(`{"status":"ok"}`, strings.TrimSpace(w.Body.String()))
}

func (s *DashboardHttpTestSuite) TestDashboard() {
	w := s.do(http.MethodGet, "/api/dashboard", "", "")
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/dashboard", "", "good")
	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.Equal(`{"error":"대시보드를 준비 중입니다."}`, strings.TrimSpace(w.Body.String()))

	vars.SetDashboard(&model.Dashboard{
		BoothID:      "CR1",
		Title:        "통합 부스 관리 대시보드 (CR1)",
		Slots:        []model.SlotStatus{{TimeLabel: "10:00", Remaining: 3}},
		CurrentCall:  4,
		Waiting:      []model.WaitingRow{{Key: "a", Number: 5, Name: "Kim", PartySize: 2, Time: "09:15:00", Status: model.StatusWaiting}},
		WaitingCount: 1,
	})

	w = s.do(http.MethodGet, "/api/dashboard", "", "good")
	s.Equal(http.StatusOK, w.Code)

	var got model.Dashboard
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	s.Equal(int64(4), got.CurrentCall)
	s.Equal(1, got.WaitingCount)
	s.Equal("Kim", got.Waiting[0].Name)
	s.Equal(3, got.Slots[0].Remaining)
}

func (s *DashboardHttpTestSuite) TestActivities() {
	at := time.Date(2026, 5, 14, 10, 30, 0, 0, time.UTC)
	columns := []string{"id", "booth_id", "action", "subject", "number", "detail", "actor", "occurred_at"}

	tests := []struct {
		name           string
		query          string
		setupMock      func()
		expectedStatus int
		expectedCount  int
	}{
		{
			name:           "invalid limit",
			query:          "?limit=abc",
			setupMock:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "non positive limit",
			query:          "?limit=0",
			setupMock:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "default limit",
			query: "",
			setupMock: func() {
				s.PgxMock.ExpectQuery("FROM queue_activities").
					WithArgs("CR1", int32(50)).
					WillReturnRows(pgxmock.NewRows(columns).
						AddRow(int64(2), "CR1", model.ActivityCallNext, "", int64(5), "", "admin@booth.kr", at).
						AddRow(int64(1), "CR1", model.ActivityTicketIssued, "", int64(5), "", "", at))
			},
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name:  "limit is capped",
			query: "?limit=1000",
			setupMock: func() {
				s.PgxMock.ExpectQuery("FROM queue_activities").
					WithArgs("CR1", int32(200)).
					WillReturnRows(pgxmock.NewRows(columns))
			},
			expectedStatus: http.StatusOK,
			expectedCount:  0,
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			tc.setupMock()

			w := s.do(http.MethodGet, "/api/activities"+tc.query, "", "good")
			s.Equal(tc.expectedStatus, w.Code)

			if tc.expectedStatus == http.StatusOK {
				var res model.ListActivitiesResponse
				s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
				s.Len(res.Activities, tc.expectedCount)
			}
		})
	}
}
