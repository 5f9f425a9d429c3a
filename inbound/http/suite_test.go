package http

import (
	"booth-queue/common/contract/mocks"
	"booth-queue/core/admin"
	"booth-queue/core/queue"
	"booth-queue/outbound/rtdb"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

// AdminHttpSuite wires the admin handlers over an in-memory realtime store.
type AdminHttpSuite struct {
	suite.Suite

	Server *miniredis.Miniredis
	Redis  *redis.Client
	Store  *rtdb.Client

	Mailer    *mocks.MockMailer
	Publisher *mocks.MockPublisher
	Validate  *validator.Validate

	View    *admin.View
	Handler http.Handler
}

func (s *AdminHttpSuite) setup(policy admin.AccessPolicy, register func(mux *http.ServeMux)) {
	ctrl := gomock.NewController(s.T())

	s.Server = miniredis.RunT(s.T())
	s.Server.SetTime(time.UnixMilli(1_700_000_000_000))

	s.Redis = redis.NewClient(&redis.Options{Addr: s.Server.Addr()})
	s.Store = rtdb.New(s.Redis, rtdb.Options{Prefix: "test"})

	s.Mailer = mocks.NewMockMailer(ctrl)
	s.Publisher = mocks.NewMockPublisher(ctrl)
	s.Validate = validator.New()

	s.View = admin.NewView("CR1", "Coffee Booth", policy, s.Store, queue.NewAllocator(s.Store, s.Validate), s.Mailer)

	mux := http.NewServeMux()
	register(mux)

	verifier := verifierStub{tokens: map[string]string{"good": "admin@booth.kr"}}
	s.Handler = SessionMiddleware(verifier)(mux)

	slog.SetLogLoggerLevel(slog.LevelDebug)
}

func (s *AdminHttpSuite) TearDownTest() {
	if err := s.Redis.Close(); err != nil {
		s.T().Fatalf("failed to close redis: %v", err)
	}
}

func (s *AdminHttpSuite) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, req)
	return w
}

func (s *AdminHttpSuite) seed(path string, value any) {
	s.Require().NoError(s.Store.Set(context.Background(), path, value))
}
