package cmd

import (
	"booth-queue/common/errs"
	commonJs "booth-queue/common/jetstream"
	"booth-queue/common/otel"
	"booth-queue/core/admin"
	"booth-queue/core/queue"
	"booth-queue/outbound/auth"
	emailOutbound "booth-queue/outbound/email"
	"booth-queue/outbound/rtdb"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

const configFetchTimeout = 10 * time.Second

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func openConfig(ctx context.Context, source string) (io.ReadCloser, error) {
	if !isURL(source) {
		return os.Open(source)
	}

	ctx, cancel := context.WithTimeout(ctx, configFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		res.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	// the body must be fully read before cancel runs
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	if err != nil {
		return nil, err
	}

	return io.NopCloser(bytes.NewReader(body)), nil
}

// loadConfig reads the JSON config once from a file path or an http(s) URL.
// Environment variables prefixed with BOOTH_ override file values.
func loadConfig(ctx context.Context, source string) (*viper.Viper, error) {
	r, err := openConfig(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errs.ErrConfigLoadFailed, source, err)
	}
	defer r.Close()

	config := viper.New()
	config.SetConfigType("json")
	config.SetEnvPrefix("BOOTH")
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()

	config.SetDefault("server.port", 8080)
	config.SetDefault("server.request_timeout", 20*time.Second)
	config.SetDefault("store.prefix", "rtdb")
	config.SetDefault("store.max_retries", 25)
	config.SetDefault("auth.token_ttl", 12*time.Hour)
	config.SetDefault("email.timeout", 10*time.Second)
	config.SetDefault("cron.email.interval", 5*time.Second)
	config.SetDefault("cron.email.timeout", 10*time.Second)
	config.SetDefault("queue.email.timeout", 15*time.Second)
	config.SetDefault("queue.activity.timeout", 5*time.Second)

	if err := config.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errs.ErrConfigLoadFailed, source, err)
	}

	if config.GetString("booth.id") == "" {
		return nil, fmt.Errorf("%w: %s: booth.id is required", errs.ErrConfigLoadFailed, source)
	}

	return config, nil
}

func newCfg(ctx context.Context, source string) *viper.Viper {
	config, err := loadConfig(ctx, source)
	if err != nil {
		log.Fatalln(err)
	}

	if tz := config.GetString("server.timezone"); tz != "" {
		if err := os.Setenv("TZ", tz); err != nil {
			log.Fatalln(err)
		}
	}

	return config
}

// startProfile writes CPU and heap profiles named after the command when
// running with env "dev".
func startProfile(cfg *viper.Viper, name string) func() {
	if cfg.GetString("env") != "dev" {
		return func() {}
	}

	cpu, err := os.Create(name + "-cpu.prof")
	if err != nil {
		log.Fatalf("could not create CPU profile: %v", err)
	}

	if err := pprof.StartCPUProfile(cpu); err != nil {
		log.Fatalf("could not start CPU profile: %v", err)
	}

	return func() {
		pprof.StopCPUProfile()
		cpu.Close()

		mem, err := os.Create(name + "-mem.prof")
		if err != nil {
			log.Printf("could not create memory profile: %v", err)
			return
		}
		defer mem.Close()

		if err := pprof.WriteHeapProfile(mem); err != nil {
			log.Printf("could not write memory profile: %v", err)
		}
	}
}

func newDb(cfg *viper.Viper) *pgxpool.Pool {
	username := cfg.GetString("db.user")
	password := cfg.GetString("db.password")
	host := cfg.GetString("db.host")
	port := cfg.GetInt("db.port")
	database := cfg.GetString("db.name")
	maxConn := cfg.GetInt("db.pool.max")
	minConn := cfg.GetInt("db.pool.min")
	timezone := cfg.GetString("server.timezone")

	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s", username, password, host, port, database)
	if timezone != "" {
		connString += "?timezone=" + timezone
	}

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		log.Fatalln(err)
	}

	if maxConn > 0 {
		config.MaxConns = int32(maxConn)
	}
	config.MinConns = int32(minConn)
	config.ConnConfig.Tracer = otel.PgxTracer{}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		log.Fatalln(err)
	}

	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatalln(err)
	}

	return pool
}

func newRedis(cfg *viper.Viper) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.GetString("store.addr"),
		Password: cfg.GetString("store.password"),
		DB:       cfg.GetInt("store.db"),
	})

	err := rdb.Ping(context.Background()).Err()
	if err != nil {
		log.Fatalln(err)
	}

	return rdb
}

func newStore(cfg *viper.Viper, rdb *redis.Client) *rtdb.Client {
	return rtdb.New(rdb, rtdb.Options{
		Prefix:     cfg.GetString("store.prefix"),
		MaxRetries: cfg.GetInt("store.max_retries"),
	})
}

func newNats(cfg *viper.Viper) *nats.Conn {
	conn, err := nats.Connect(cfg.GetString("nats.addr"))
	if err != nil {
		log.Fatalln(err)
	}

	return conn
}

func newJs(conn *nats.Conn) jetstream.JetStream {
	js, err := jetstream.New(conn)
	if err != nil {
		log.Fatalln(err)
	}

	return js
}

func createQueueStream(ctx context.Context, js jetstream.JetStream) jetstream.Stream {
	st, err := commonJs.CreateQueueStream(ctx, js)
	if err != nil {
		log.Fatalln(err)
	}

	return st
}

func newMailer(cfg *viper.Viper) *emailOutbound.EmailOutbound {
	mailer := &emailOutbound.EmailOutbound{Cfg: cfg}
	mailer.Init()
	return mailer
}

func newView(cfg *viper.Viper, store *rtdb.Client, validate *validator.Validate, mailer *emailOutbound.EmailOutbound) *admin.View {
	boothID := cfg.GetString("booth.id")

	boothName := cfg.GetString("booth.name")
	if boothName == "" {
		boothName = boothID
	}

	policy := admin.AccessPolicy{RequiresAuth: cfg.GetBool("access.requires_auth")}

	return admin.NewView(boothID, boothName, policy, store, queue.NewAllocator(store, validate), mailer)
}

func newAuth(cfg *viper.Viper, rdb *redis.Client) *auth.AuthOutbound {
	var accounts []auth.Account
	if err := cfg.UnmarshalKey("auth.admins", &accounts); err != nil {
		log.Fatalln("invalid auth.admins", err)
	}

	secret := cfg.GetString("auth.jwt_secret")
	if secret == "" && cfg.GetBool("access.requires_auth") {
		log.Fatalln("auth.jwt_secret is required when access.requires_auth is set")
	}

	return &auth.AuthOutbound{
		Redis:    rdb,
		Secret:   []byte(secret),
		TTL:      cfg.GetDuration("auth.token_ttl"),
		Accounts: accounts,
	}
}
