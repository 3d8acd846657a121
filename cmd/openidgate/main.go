package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/openidgate/internal/app"
	"github.com/dropDatabas3/openidgate/internal/config"
	"github.com/dropDatabas3/openidgate/internal/observability/logger"
	"github.com/dropDatabas3/openidgate/internal/openid"
	"github.com/dropDatabas3/openidgate/internal/openid/providers"
	"github.com/dropDatabas3/openidgate/internal/store/pg"
	migrations "github.com/dropDatabas3/openidgate/migrations/postgres"
)

var version = "dev"

func main() {
	// .env is optional
	_ = godotenv.Load()

	var cfgPath string
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "openidgate",
		Short:         "OpenID broker gateway (Loginza / Rpxnow)",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if c.App.Version == "" {
				c.App.Version = version
			}
			cfg = c
			logger.Init(logger.Config{
				Env:         c.App.Env,
				Level:       c.Log.Level,
				ServiceName: c.App.Name,
				Version:     c.App.Version,
			})
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", os.Getenv("CONFIG_PATH"), "ruta a config.yaml (env CONFIG_PATH)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context(), cfg)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply the embedded SQL migrations (storage.driver=postgres)",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return migrate(cmd.Context(), cfg)
			},
		},
		&cobra.Command{
			Use:   "resolve <identity-url>",
			Short: "Show the provider, username and email an identity would produce",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return resolve(cmd, cfg, args[0])
			},
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := root.ExecuteContext(ctx)
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.L()
	c, err := app.Build(ctx, cfg, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Warn("cleanup error", logger.Err(err))
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      c.Handler,
		ReadTimeout:  config.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: config.Duration(cfg.Server.WriteTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", logger.String("addr", srv.Addr), logger.String("version", cfg.App.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", logger.Duration(c.ShutdownTimeout()))
	sctx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func migrate(ctx context.Context, cfg *config.Config) error {
	if cfg.Storage.Driver != "postgres" {
		return fmt.Errorf("migrate requires storage.driver=postgres (got %q)", cfg.Storage.Driver)
	}
	repo, closeFn, err := app.StoreOnly(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := pg.Migrate(ctx, repo.(*pg.Store).Pool(), migrations.SchemaFS, migrations.SchemaDir)
	if err != nil {
		return err
	}
	logger.L().Info("migrations done",
		logger.Any("applied", res.Applied),
		logger.Any("skipped", res.Skipped),
		logger.Duration(res.Duration),
	)
	return nil
}

func resolve(cmd *cobra.Command, cfg *config.Config, identity string) error {
	src := providers.StaticSource{
		Fields:        openid.Profile{"identity": identity},
		IdentityField: "identity",
	}
	p, err := providers.ByIdentity(src, providers.WithPasswordLength(cfg.OpenID.PasswordLength))
	if err != nil {
		return err
	}
	out := map[string]any{
		"provider":         p.Name(),
		"prefix":           p.UsernamePrefix(),
		"needs_extra_form": p.NeedsExtraForm(),
	}
	if username, err := p.GenerateUsername(""); err == nil {
		out["username"] = username
	} else {
		out["error"] = err.Error()
	}
	if rec, err := p.GenerateUserData(openid.RequestContext{}); err == nil {
		out["email"] = rec.Email
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
