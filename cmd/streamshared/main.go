package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/streamshare/streamshare/pkg/coalesce"
	"github.com/streamshare/streamshare/pkg/config"
	"github.com/streamshare/streamshare/pkg/httpserver"
	"github.com/streamshare/streamshare/pkg/logger"
	"github.com/streamshare/streamshare/pkg/origin"
	"github.com/streamshare/streamshare/pkg/urlsign"
)

type appConfig struct {
	LogLevel  slog.Level    `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat logger.Format `env:"LOG_FORMAT" envDefault:"json"`

	// Base64url-encoded 32-byte keys for locator sealing.
	EncryptionKey string `env:"URLSIGN_ENC_KEY,required"`
	SigningKey    string `env:"URLSIGN_SIGN_KEY,required"`

	// SignEndpoint enables POST /v1/sign for minting share tokens.
	// Meant for trusted deployments only; issuance normally lives upstream.
	SignEndpoint bool          `env:"SIGN_ENDPOINT_ENABLED" envDefault:"false"`
	SignTTL      time.Duration `env:"SIGN_TTL" envDefault:"1h"`

	MaxSessions   int           `env:"BROKER_MAX_SESSIONS" envDefault:"0"`
	ChunkSize     int           `env:"BROKER_CHUNK_SIZE" envDefault:"32768"`
	OriginTimeout time.Duration `env:"ORIGIN_HTTP_TIMEOUT" envDefault:"0"`
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}
	var srvCfg httpserver.Config
	if err := config.Load(&srvCfg); err != nil {
		return err
	}
	var s3Cfg origin.S3Config
	if err := config.Load(&s3Cfg); err != nil {
		return err
	}

	log := logger.New(
		logger.WithLevel(cfg.LogLevel),
		logger.WithFormat(cfg.LogFormat),
		logger.WithService("streamshared"),
	)
	logger.SetAsDefault(log)

	signer, err := newSigner(cfg)
	if err != nil {
		return err
	}

	httpOpts := origin.DefaultHTTPOptions()
	httpOpts.Timeout = cfg.OriginTimeout
	httpFetcher := origin.NewHTTPFetcher(httpOpts)

	s3Fetcher, err := origin.NewS3Fetcher(ctx, s3Cfg)
	if err != nil {
		return err
	}

	router := origin.NewRouter()
	router.Register("http", httpFetcher)
	router.Register("https", httpFetcher)
	router.Register("s3", s3Fetcher)

	broker := coalesce.New(router,
		coalesce.WithLogger(log),
		coalesce.WithMaxSessions(cfg.MaxSessions),
		coalesce.WithChunkSize(cfg.ChunkSize),
	)

	h := newHandler(broker, signer, cfg.SignTTL, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)
	r.Get("/healthz", httpserver.HealthCheckHandler())
	r.Route("/v1", func(r chi.Router) {
		r.Get("/share", h.share)
		r.Get("/stats", h.stats)
		if cfg.SignEndpoint {
			r.Post("/sign", h.sign)
		}
	})

	return httpserver.New(srvCfg, log).Run(ctx, r)
}

func newSigner(cfg appConfig) (*urlsign.Signer, error) {
	encKey, err := base64.RawURLEncoding.DecodeString(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("decode URLSIGN_ENC_KEY: %w", err)
	}
	signKey, err := base64.RawURLEncoding.DecodeString(cfg.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("decode URLSIGN_SIGN_KEY: %w", err)
	}
	return urlsign.New(encKey, signKey)
}
