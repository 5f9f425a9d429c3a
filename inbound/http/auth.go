package http

import (
	"booth-queue/common"
	"booth-queue/common/constant"
	"booth-queue/common/errs"
	"booth-queue/core/admin"
	"booth-queue/model"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/message"
)

type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (string, time.Time, error)
	SignOut(ctx context.Context, token string) error
}

type AuthHttp struct {
	Auth     Authenticator
	Policy   admin.AccessPolicy
	Validate *validator.Validate
	Printer  *message.Printer
}

func RegisterAuthHttp(mux *http.ServeMux, authenticator Authenticator, policy admin.AccessPolicy, validate *validator.Validate, printer *message.Printer) *AuthHttp {
	in := &AuthHttp{Auth: authenticator, Policy: policy, Validate: validate, Printer: printer}

	mux.HandleFunc("POST /api/auth/login", in.login)
	mux.HandleFunc("POST /api/auth/logout", in.logout)
	mux.HandleFunc("GET /api/session", in.session)

	return in
}

func (in *AuthHttp) login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorResponse(w, err)
		return
	}

	if err := in.Validate.Struct(req); err != nil {
		writeErrorResponse(w, err)
		return
	}

	ctx := r.Context()
	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	token, expiresAt, err := in.Auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		slog.WarnContext(ctx, "admin sign in rejected", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, &errs.HttpError{
			Code:    http.StatusUnauthorized,
			Message: in.Printer.Sprintf(constant.NoticeLoginFailed),
		})
		return
	}

	slog.InfoContext(ctx, "admin signed in", traceIdAttr, slog.String("email", req.Email))

	writeJSONResponse(w, http.StatusOK, model.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	})
}

func (in *AuthHttp) logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeErrorResponse(w, errs.ErrAuthFailed)
		return
	}

	if err := in.Auth.SignOut(r.Context(), token); err != nil {
		writeErrorResponse(w, err)
		return
	}

	writeJSONResponse(w, http.StatusNoContent, nil)
}

// session tells the client whether to show the admin view.
func (in *AuthHttp) session(w http.ResponseWriter, r *http.Request) {
	claims, authenticated := sessionFromContext(r.Context())

	res := model.SessionResponse{
		RequiresAuth: in.Policy.RequiresAuth,
		Visible:      in.Policy.Visible(authenticated),
	}
	if authenticated {
		res.Email = claims.Email
	}

	writeJSONResponse(w, http.StatusOK, res)
}
