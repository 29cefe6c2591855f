package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/formtree"
	"github.com/dmitrymomot/formtree/middlewares"
	"github.com/dmitrymomot/formtree/pkg/definitions"
	"github.com/dmitrymomot/formtree/pkg/formmodel"
	"github.com/dmitrymomot/formtree/pkg/i18n"
	"github.com/dmitrymomot/formtree/pkg/logger"
)

func newServeCmd(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := newViper(*cfgFile)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(v, cmd.Flags())
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().String("prefix", "/forms", "path prefix of the form endpoints")
	cmd.Flags().StringSlice("allowed-origins", nil, "origins allowed to embed forms (CORS); empty disables CORS")
	cmd.Flags().Bool("revalidate", true, "check cached definitions against their source")
	cmd.Flags().Duration("recheck-interval", 0, "minimum time between source checks of one definition")
	return cmd
}

func logExtractors() []logger.ContextExtractor {
	return []logger.ContextExtractor{
		middlewares.RequestIDExtractor(),
		logger.FormIDExtractor(),
		logger.InstanceIDExtractor(),
	}
}

func newCatalog(cfg *Config) (*i18n.Catalog, error) {
	opts := []i18n.Option{
		i18n.WithDefaultLanguage(cfg.I18n.DefaultLanguage),
		i18n.WithBuiltinMessages(),
	}
	if cfg.I18n.Dir != "" {
		opts = append(opts, i18n.WithYAMLDir(os.DirFS(cfg.I18n.Dir)))
	}
	return i18n.New(opts...)
}

func newManager(cfg *Config, cat *i18n.Catalog, log *slog.Logger) (*definitions.Manager, error) {
	src, err := cfg.source()
	if err != nil {
		return nil, err
	}
	return definitions.NewManager(src,
		definitions.WithLogger(log),
		definitions.WithRevalidate(cfg.Forms.Revalidate),
		definitions.WithRecheckInterval(cfg.Forms.RecheckEvery),
		definitions.WithTTL(cfg.Forms.CacheTTL),
		definitions.WithFormOptions(
			formmodel.WithLogger(log),
			formmodel.WithLocalizer(cat.Translator),
		),
	), nil
}

// server is the wired application.
type server struct {
	app     *formtree.App
	manager *definitions.Manager
}

func newServer(cfg *Config, log *slog.Logger) (*server, error) {
	cat, err := newCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	manager, err := newManager(cfg, cat, log)
	if err != nil {
		return nil, err
	}
	s3store, err := cfg.uploadStore()
	if err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("upload store: %w", err)
	}
	var store formmodel.PartStore
	if s3store != nil {
		store = s3store
	}

	instances := formtree.NewFormStore(
		formtree.WithInstanceTTL(cfg.Forms.InstanceTTL),
		formtree.WithMaxInstances(cfg.Forms.MaxInstances),
	)
	forms := formtree.NewFormsHandler(manager,
		formtree.WithFormStore(instances),
		formtree.WithPathPrefix(cfg.Forms.Prefix),
		formtree.WithMaxMemory(cfg.Forms.MaxMemory),
		formtree.WithCompletion(completion(store, cfg.Uploads.S3.Prefix)),
	)

	var mw []formtree.Middleware
	if len(cfg.Forms.AllowedOrigins) > 0 {
		mw = append(mw, middlewares.CORS(middlewares.WithAllowOrigins(cfg.Forms.AllowedOrigins...)))
	}
	mw = append(mw,
		middlewares.RequestID(),
		middlewares.Recover(),
		middlewares.Locale(cat),
		middlewares.Timeout(cfg.RequestTimeout),
	)

	app := formtree.New(
		formtree.WithCustomLogger(log),
		formtree.WithMiddleware(mw...),
		formtree.WithHandlers(forms),
		formtree.WithHealthChecks(
			formtree.WithReadinessCheck("definitions", manager.Healthcheck()),
		),
		formtree.WithShutdownHook(func(context.Context) error { return instances.Close() }),
		formtree.WithShutdownHook(func(context.Context) error { return manager.Close() }),
	)
	return &server{app: app, manager: manager}, nil
}

func serve(ctx context.Context, cfg *Config) error {
	log := cfg.logger()
	srv, err := newServer(cfg, log)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return srv.app.Run(cfg.Addr,
		formtree.WithContext(ctx),
		formtree.ShutdownTimeout(cfg.ShutdownTimeout),
		formtree.StartupHook(func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			if err := srv.manager.Healthcheck()(ctx); err != nil {
				_ = srv.manager.Close()
				return fmt.Errorf("definitions source unavailable: %w", err)
			}
			return nil
		}),
	)
}
