package cmd

import (
	"booth-queue/common/constant"
	commonJs "booth-queue/common/jetstream"
	"booth-queue/inbound/event"
	"context"
	"log"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/viper"
)

func runQueueEmailCmd(ctx context.Context, cfg *viper.Viper) {
	stopProfile := startProfile(cfg, "email")
	defer stopProfile()

	rdb := newRedis(cfg)
	defer rdb.Close()

	natsConn := newNats(cfg)
	defer natsConn.Close()

	js := newJs(natsConn)
	st := createQueueStream(ctx, js)

	mailer := newMailer(cfg)
	view := newView(cfg, newStore(cfg, rdb), validator.New(), mailer)

	emailEvent := event.EmailEvent{
		BoothID:   view.BoothID,
		Mailer:    mailer,
		Stamper:   view,
		Publisher: js,
		Timeout:   cfg.GetDuration("queue.email.timeout"),
	}

	cons, err := commonJs.CreateConsumer(ctx, st, "consumer:email", constant.EmailWildcard)
	if err != nil {
		log.Fatalln(err)
	}

	consume(ctx, cons, "email", func(ctx context.Context, msg jetstream.Msg) error {
		switch msg.Subject() {
		case constant.SubjectSendEmail:
			return emailEvent.SendEmailHandler(ctx, msg.Data())
		}

		slog.WarnContext(ctx, "dropping message with unknown subject", slog.String("subject", msg.Subject()))
		return nil
	})
}
