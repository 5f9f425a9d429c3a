package cmd

import (
	"booth-queue/common/otel"
	inboundCron "booth-queue/inbound/cron"
	inboundHttp "booth-queue/inbound/http"
	"booth-queue/outbound/activity"
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func runHttpServerCmd(ctx context.Context, cfg *viper.Viper) {
	stopProfile := startProfile(cfg, "http")
	defer stopProfile()

	shutdownTracer := otel.Setup(ctx, cfg.GetString("otel.endpoint"))
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slog.Warn("failed to flush traces", slog.Any("error", err))
		}
	}()

	validate := validator.New()

	db := newDb(cfg)
	defer db.Close()

	rdb := newRedis(cfg)
	defer rdb.Close()

	natsConn := newNats(cfg)
	defer natsConn.Close()

	js := newJs(natsConn)
	createQueueStream(ctx, js)

	view := newView(cfg, newStore(cfg, rdb), validate, newMailer(cfg))
	authenticator := newAuth(cfg, rdb)
	querier := activity.New(db)

	apiMux := http.NewServeMux()
	inboundHttp.RegisterQueueHttp(apiMux, view, js, validate)
	inboundHttp.RegisterReservationHttp(apiMux, view, js)
	inboundHttp.RegisterAuthHttp(apiMux, authenticator, view.Policy, validate, view.Printer)
	inboundHttp.RegisterDashboardHttp(apiMux, view, querier)

	timeoutMiddleware := inboundHttp.TimeoutMiddleware(cfg.GetDuration("server.request_timeout"))

	// the websocket route stays outside the timeout handler
	mux := http.NewServeMux()
	mux.Handle("/", timeoutMiddleware(apiMux))
	inboundHttp.RegisterLiveHttp(mux, view)

	handler := inboundHttp.CorsMiddleware(inboundHttp.SessionMiddleware(authenticator)(mux))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.GetInt("server.port")),
		Handler:           otelhttp.NewHandler(handler, "booth-queue"),
		ReadTimeout:       5 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalln("unable to start server", err)
		}
	}()

	slog.Info("http server started", slog.String("addr", srv.Addr), slog.String("booth_id", view.BoothID))

	go func() {
		if err := view.Run(ctx); err != nil {
			slog.ErrorContext(ctx, "dashboard render loop failed", slog.Any("error", err))
		}
	}()

	emailCron := &inboundCron.EmailRequestCron{
		Cfg:       cfg,
		Requests:  view,
		Publisher: js,
	}

	go func() {
		emailCron.Start(ctx)
	}()

	<-ctx.Done()

	ctxShutDown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutDown); err != nil {
		log.Fatalln("unable to shutdown server", err)
	}

	slog.Info("http server stopped")
}
