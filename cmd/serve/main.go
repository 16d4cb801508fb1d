package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/postsearch/httpapi"
	"github.com/letmevibethatforyou/postsearch/internal/backend"
	"github.com/letmevibethatforyou/postsearch/internal/config"
	"github.com/letmevibethatforyou/postsearch/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	if err := newApp().Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "serve",
		Usage: "Serve the post search endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML config file",
				EnvVars: []string{"POSTSEARCH_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "write-config",
				Usage: "Write the effective configuration to this TOML file and exit",
			},
			&cli.StringFlag{
				Name:    "listen",
				Aliases: []string{"l"},
				Usage:   "Address to listen on",
				EnvVars: []string{"POSTSEARCH_LISTEN"},
			},
			&cli.StringFlag{
				Name:    "endpoint",
				Usage:   "Public URL of the search action handed to widgets",
				EnvVars: []string{"POSTSEARCH_ENDPOINT"},
			},
			&cli.StringFlag{
				Name:    "nonce-secret",
				Usage:   "Secret used to sign nonces",
				EnvVars: []string{"POSTSEARCH_NONCE_SECRET"},
			},
			&cli.StringFlag{
				Name:    "backend",
				Aliases: []string{"b"},
				Usage:   "Search backend: memory or algolia",
				EnvVars: []string{"POSTSEARCH_BACKEND"},
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "JSON file of posts for the memory backend",
				EnvVars: []string{"POSTSEARCH_DATA"},
			},
			&cli.StringFlag{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Algolia index name",
				EnvVars: []string{"ALGOLIA_INDEX"},
			},
			&cli.StringFlag{
				Name:    "algolia-secret-arn",
				Usage:   "ARN of AWS Secrets Manager secret containing Algolia credentials",
				EnvVars: []string{"ALGOLIA_SECRET_ARN"},
			},
		},
		Action: runAction,
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	override := func(flag string, dst *string) {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}
	override("listen", &cfg.Listen)
	override("endpoint", &cfg.Endpoint)
	override("nonce-secret", &cfg.NonceSecret)
	override("backend", &cfg.Backend)
	override("data", &cfg.DataFile)
	override("index", &cfg.Algolia.Index)
	override("algolia-secret-arn", &cfg.Algolia.SecretARN)

	return cfg, nil
}

func runAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if path := c.String("write-config"); path != "" {
		if err := cfg.Save(path); err != nil {
			return errors.Wrap(err, "failed to write config")
		}
		slog.InfoContext(ctx, "wrote configuration", "path", path)
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	searcher, err := backend.Open(ctx, backend.Options{
		Kind:             cfg.Backend,
		DataFile:         cfg.DataFile,
		AlgoliaIndex:     cfg.Algolia.Index,
		AlgoliaSecretARN: cfg.Algolia.SecretARN,
	})
	if err != nil {
		return errors.Wrap(err, "failed to open search backend")
	}

	nonces, err := service.NewNonceManager([]byte(cfg.NonceSecret), cfg.NonceLifetime.Duration)
	if err != nil {
		return err
	}
	svc := service.New(searcher, nonces,
		service.WithDateFormat(cfg.DateFormat),
		service.WithMaxPostsPerPage(cfg.MaxPostsPerPage),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	api := httpapi.NewServer(svc,
		httpapi.WithRegistry(reg),
		httpapi.WithEndpoint(cfg.Endpoint),
		httpapi.WithWidgetDefaults(httpapi.WidgetDefaults{
			PostsPerPage: cfg.Widget.PostsPerPage,
			PostType:     cfg.Widget.PostType,
		}),
	)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.InfoContext(ctx, "listening", "addr", cfg.Listen, "backend", cfg.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server failed")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
