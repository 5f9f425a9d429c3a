package cmd

import (
	"booth-queue/common/constant"
	commonJs "booth-queue/common/jetstream"
	"booth-queue/inbound/event"
	"booth-queue/outbound/activity"
	"context"
	"log"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/viper"
)

func runQueueActivityCmd(ctx context.Context, cfg *viper.Viper) {
	stopProfile := startProfile(cfg, "activity")
	defer stopProfile()

	db := newDb(cfg)
	defer db.Close()

	querier := activity.New(db)
	if err := querier.Migrate(ctx); err != nil {
		log.Fatalln(err)
	}

	natsConn := newNats(cfg)
	defer natsConn.Close()

	js := newJs(natsConn)
	st := createQueueStream(ctx, js)

	activityEvent := event.ActivityEvent{
		Querier: querier,
		Timeout: cfg.GetDuration("queue.activity.timeout"),
	}

	cons, err := commonJs.CreateConsumer(ctx, st, "consumer:activity", constant.ActivityWildcard)
	if err != nil {
		log.Fatalln(err)
	}

	consume(ctx, cons, "activity", func(ctx context.Context, msg jetstream.Msg) error {
		switch msg.Subject() {
		case constant.SubjectRecordActivity:
			return activityEvent.RecordHandler(ctx, msg.Data())
		}

		slog.WarnContext(ctx, "dropping message with unknown subject", slog.String("subject", msg.Subject()))
		return nil
	})
}
