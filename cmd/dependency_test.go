package cmd

import (
	"booth-queue/common/errs"
	"booth-queue/outbound/auth"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const sampleConfig = `{
  "env": "dev",
  "booth": {"id": "CR1", "name": "Coffee Booth"},
  "access": {"requires_auth": true},
  "store": {"addr": "localhost:6379", "max_retries": 10},
  "auth": {
    "jwt_secret": "secret",
    "admins": [{"email": "admin@booth.kr", "password_hash": "$2a$10$hash"}]
  },
  "cron": {"email": {"interval": "2s"}}
}`

type LoadConfigTestSuite struct {
	suite.Suite

	Dir string
}

func (s *LoadConfigTestSuite) SetupTest() {
	s.Dir = s.T().TempDir()
}

func TestLoadConfigTestSuite(t *testing.T) {
	suite.Run(t, new(LoadConfigTestSuite))
}

func (s *LoadConfigTestSuite) writeFile(name, content string) string {
	path := filepath.Join(s.Dir, name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *LoadConfigTestSuite) TestFromFile() {
	cfg, err := loadConfig(context.Background(), s.writeFile("config.json", sampleConfig))
	s.Require().NoError(err)

	s.Equal("CR1", cfg.GetString("booth.id"))
	s.Equal("Coffee Booth", cfg.GetString("booth.name"))
	s.True(cfg.GetBool("access.requires_auth"))
	s.Equal(10, cfg.GetInt("store.max_retries"))
	s.Equal(2*time.Second, cfg.GetDuration("cron.email.interval"))

	// defaults fill what the file leaves out
	s.Equal("rtdb", cfg.GetString("store.prefix"))
	s.Equal(8080, cfg.GetInt("server.port"))
	s.Equal(10*time.Second, cfg.GetDuration("cron.email.timeout"))

	var accounts []auth.Account
	s.Require().NoError(cfg.UnmarshalKey("auth.admins", &accounts))
	s.Equal([]auth.Account{{Email: "admin@booth.kr", PasswordHash: "$2a$10$hash"}}, accounts)
}

func (s *LoadConfigTestSuite) TestEnvOverride() {
	s.T().Setenv("BOOTH_BOOTH_NAME", "Tea Booth")
	s.T().Setenv("BOOTH_SERVER_PORT", "9090")

	cfg, err := loadConfig(context.Background(), s.writeFile("config.json", sampleConfig))
	s.Require().NoError(err)

	s.Equal("Tea Booth", cfg.GetString("booth.name"))
	s.Equal(9090, cfg.GetInt("server.port"))
}

func (s *LoadConfigTestSuite) TestFromURL() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/config.json":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(sampleConfig))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg, err := loadConfig(context.Background(), srv.URL+"/config.json")
	s.Require().NoError(err)
	s.Equal("CR1", cfg.GetString("booth.id"))

	_, err = loadConfig(context.Background(), srv.URL+"/missing.json")
	s.ErrorIs(err, errs.ErrConfigLoadFailed)
}

func (s *LoadConfigTestSuite) TestFailures() {
	tests := []struct {
		name   string
		source func() string
	}{
		{
			name:   "missing file",
			source: func() string { return filepath.Join(s.Dir, "absent.json") },
		},
		{
			name:   "malformed json",
			source: func() string { return s.writeFile("broken.json", `{"booth": {"id": "CR1"`) },
		},
		{
			name:   "booth id missing",
			source: func() string { return s.writeFile("empty.json", `{"booth": {"name": "Coffee Booth"}}`) },
		},
		{
			name:   "unreachable url",
			source: func() string { return "http://127.0.0.1:1/config.json" },
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			cfg, err := loadConfig(context.Background(), tc.source())

			s.Nil(cfg)
			s.ErrorIs(err, errs.ErrConfigLoadFailed)
		})
	}
}
