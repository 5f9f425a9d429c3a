// Package email posts reservation notices to the mail sending endpoint.
package email

import (
	"booth-queue/common/errs"
	"booth-queue/model"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 10 * time.Second

type EmailOutbound struct {
	Cfg      *viper.Viper
	client   *http.Client
	endpoint string
}

func (out *EmailOutbound) Init() {
	out.endpoint = out.Cfg.GetString("email.endpoint")

	timeout := out.Cfg.GetDuration("email.timeout")
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	out.client = &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Send posts one request. Any non-2xx answer becomes an *errs.EmailSendError
// carrying the server message when the body has one, and an empty message
// otherwise.
func (out *EmailOutbound) Send(ctx context.Context, req model.EmailRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return &errs.EmailSendError{Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, out.endpoint, bytes.NewReader(body))
	if err != nil {
		return &errs.EmailSendError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := out.client.Do(httpReq)
	if err != nil {
		return &errs.EmailSendError{Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}

	sendErr := &errs.EmailSendError{Status: res.StatusCode}

	var errRes model.EmailErrorResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 64*1024)).Decode(&errRes); err == nil && errRes.Message != "" {
		sendErr.Message = errRes.Message
	}

	return sendErr
}
