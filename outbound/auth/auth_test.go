package auth

import (
	"booth-queue/common/errs"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type AuthOutboundTestSuite struct {
	suite.Suite

	RedisMock redismock.ClientMock
	Auth      *AuthOutbound
	Now       time.Time
}

func (s *AuthOutboundTestSuite) SetupTest() {
	rdb, mock := redismock.NewClientMock()
	s.RedisMock = mock
	s.Now = time.Date(2026, 5, 14, 10, 0, 0, 0, time.UTC)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	s.Require().NoError(err)

	s.Auth = &AuthOutbound{
		Redis:    rdb,
		Secret:   []byte("test-secret"),
		TTL:      time.Hour,
		Accounts: []Account{{Email: "admin@booth.kr", PasswordHash: string(hash)}},
		Now:      func() time.Time { return s.Now },
	}
}

func (s *AuthOutboundTestSuite) TearDownTest() {
	s.NoError(s.RedisMock.ExpectationsWereMet())
}

func TestAuthOutboundTestSuite(t *testing.T) {
	suite.Run(t, new(AuthOutboundTestSuite))
}

func (s *AuthOutboundTestSuite) TestSignIn() {
	testCases := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{name: "valid", email: "admin@booth.kr", password: "s3cret"},
		{name: "email case insensitive", email: "Admin@Booth.kr", password: "s3cret"},
		{name: "wrong password", email: "admin@booth.kr", password: "nope", wantErr: true},
		{name: "unknown account", email: "guest@booth.kr", password: "s3cret", wantErr: true},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			token, expiresAt, err := s.Auth.SignIn(context.Background(), tc.email, tc.password)
			if tc.wantErr {
				s.ErrorIs(err, errs.ErrAuthFailed)
				s.Empty(token)
				return
			}

			s.Require().NoError(err)
			s.NotEmpty(token)
			s.Equal(s.Now.Add(time.Hour), expiresAt)
		})
	}
}

func (s *AuthOutboundTestSuite) TestVerify() {
	token, _, err := s.Auth.SignIn(context.Background(), "admin@booth.kr", "s3cret")
	s.Require().NoError(err)

	claims, err := s.Auth.parse(token)
	s.Require().NoError(err)

	s.RedisMock.ExpectExists("auth:revoked:" + claims.ID).SetVal(0)
	got, err := s.Auth.Verify(context.Background(), token)
	s.Require().NoError(err)
	s.Equal("admin@booth.kr", got.Email)

	s.RedisMock.ExpectExists("auth:revoked:" + claims.ID).SetVal(1)
	_, err = s.Auth.Verify(context.Background(), token)
	s.ErrorIs(err, errs.ErrAuthFailed)

	s.RedisMock.ExpectExists("auth:revoked:" + claims.ID).SetErr(errors.New("connection refused"))
	_, err = s.Auth.Verify(context.Background(), token)
	s.Error(err)
	s.NotErrorIs(err, errs.ErrAuthFailed)
}

func (s *AuthOutboundTestSuite) TestVerifyRejectsBadTokens() {
	token, _, err := s.Auth.SignIn(context.Background(), "admin@booth.kr", "s3cret")
	s.Require().NoError(err)

	other := *s.Auth
	other.Secret = []byte("other-secret")
	_, err = other.Verify(context.Background(), token)
	s.ErrorIs(err, errs.ErrAuthFailed)

	s.Now = s.Now.Add(2 * time.Hour)
	_, err = s.Auth.Verify(context.Background(), token)
	s.ErrorIs(err, errs.ErrAuthFailed)

	_, err = s.Auth.Verify(context.Background(), "not-a-token")
	s.ErrorIs(err, errs.ErrAuthFailed)
}

func (s *AuthOutboundTestSuite) TestSignOut() {
	token, _, err := s.Auth.SignIn(context.Background(), "admin@booth.kr", "s3cret")
	s.Require().NoError(err)

	claims, err := s.Auth.parse(token)
	s.Require().NoError(err)

	s.Now = s.Now.Add(15 * time.Minute)
	s.RedisMock.ExpectSet("auth:revoked:"+claims.ID, "1", 45*time.Minute).SetVal("OK")

	s.NoError(s.Auth.SignOut(context.Background(), token))
}
