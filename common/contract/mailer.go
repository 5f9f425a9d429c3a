package contract

import (
	"booth-queue/model"
	"context"
)

//go:generate mockgen -source=mailer.go -destination=mocks/mailer.go -package=mocks

type Mailer interface {
	Send(ctx context.Context, req model.EmailRequest) error
}
