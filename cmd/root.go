package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func Start() {
	// a missing .env is fine outside local development
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		source string
		cfg    *viper.Viper
	)

	rootCmd := &cobra.Command{
		Use:   "booth-queue",
		Short: "Walk-in queue and reservation admin for festival booths",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg = newCfg(ctx, source)
			slog.SetLogLoggerLevel(slog.Level(cfg.GetInt("log.level")))
		},
	}

	defaultSource := os.Getenv("BOOTH_CONFIG")
	if defaultSource == "" {
		defaultSource = "config.json"
	}
	rootCmd.PersistentFlags().StringVar(&source, "config", defaultSource, "config file path or http(s) url")

	cmd := []*cobra.Command{
		{
			Use:   "serve-http",
			Short: "Run HTTP server",
			Run: func(cmd *cobra.Command, args []string) {
				runHttpServerCmd(ctx, cfg)
			},
		},
		{
			Use:   "serve-queue:email",
			Short: "Run queue email server",
			Run: func(cmd *cobra.Command, args []string) {
				runQueueEmailCmd(ctx, cfg)
			},
		},
		{
			Use:   "serve-queue:activity",
			Short: "Run queue activity server",
			Run: func(cmd *cobra.Command, args []string) {
				runQueueActivityCmd(ctx, cfg)
			},
		},
		{
			Use:   "dev",
			Short: "Run dev server, for testing purpose",
			Run: func(cmd *cobra.Command, args []string) {
				go func() {
					runQueueEmailCmd(ctx, cfg)
				}()
				go func() {
					runQueueActivityCmd(ctx, cfg)
				}()
				runHttpServerCmd(ctx, cfg)
			},
		},
	}

	rootCmd.AddCommand(cmd...)
	if err := rootCmd.Execute(); err != nil {
		log.Fatalln(err)
	}
}
