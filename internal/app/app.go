// Package app wires the configured components into a Container.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/openidgate/internal/avatar"
	"github.com/dropDatabas3/openidgate/internal/cache"
	"github.com/dropDatabas3/openidgate/internal/config"
	"github.com/dropDatabas3/openidgate/internal/email"
	healthctrl "github.com/dropDatabas3/openidgate/internal/http/controllers/health"
	openidctrl "github.com/dropDatabas3/openidgate/internal/http/controllers/openid"
	mw "github.com/dropDatabas3/openidgate/internal/http/middlewares"
	"github.com/dropDatabas3/openidgate/internal/http/router"
	"github.com/dropDatabas3/openidgate/internal/metrics"
	"github.com/dropDatabas3/openidgate/internal/observability/logger"
	"github.com/dropDatabas3/openidgate/internal/openid/broker"
	"github.com/dropDatabas3/openidgate/internal/openid/providers"
	"github.com/dropDatabas3/openidgate/internal/rate"
	"github.com/dropDatabas3/openidgate/internal/registration"
	"github.com/dropDatabas3/openidgate/internal/store"
	"github.com/dropDatabas3/openidgate/internal/store/memory"
	"github.com/dropDatabas3/openidgate/internal/store/pg"
	"github.com/dropDatabas3/openidgate/internal/util"
	"github.com/dropDatabas3/openidgate/internal/webdav"
)

// Repository is what the service needs from a store adapter.
type Repository interface {
	store.UserRepository
	store.ImageRepository
	Ping(ctx context.Context) error
}

type Container struct {
	Config       *config.Config
	Store        Repository
	Cache        cache.Client
	WebDAV       *webdav.Client // nil when no servers are configured
	Brokers      *broker.Factory
	Registration *registration.Service
	Handler      http.Handler

	closers []func() error
}

// StoreOnly opens the configured repository without the rest of the
// service (migrate, resolve).
func StoreOnly(ctx context.Context, cfg *config.Config) (Repository, func(), error) {
	switch cfg.Storage.Driver {
	case "postgres":
		pm := pg.NewPoolManager()
		if cfg.Storage.MaxConns > 0 {
			pm.MaxConns = int32(cfg.Storage.MaxConns)
		}
		s, err := pg.Open(ctx, pm, cfg.Storage.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return s, pm.CloseAll, nil
	default:
		return memory.New(), func() {}, nil
	}
}

// Build wires every component. Close releases them in reverse order.
func Build(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*Container, error) {
	log := logger.From(ctx).With(logger.Component("app"))
	c := &Container{Config: cfg}

	repo, closeStore, err := StoreOnly(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.Store = repo
	c.closers = append(c.closers, func() error { closeStore(); return nil })

	cc, err := cache.New(ctx, cache.Config{
		Driver:     cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: config.Duration(cfg.Cache.Memory.DefaultTTL),
	})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("cache: %w", err)
	}
	c.Cache = cc
	c.closers = append(c.closers, cc.Close)

	if err := metrics.Register(reg); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("metrics: %w", err)
	}

	var regOpts []registration.Option
	if cfg.SMTP.Enabled {
		regOpts = append(regOpts, registration.WithMailer(email.NewSMTPSender(email.Config{
			Host:               cfg.SMTP.Host,
			Port:               cfg.SMTP.Port,
			From:               cfg.SMTP.From,
			User:               cfg.SMTP.User,
			Pass:               cfg.SMTP.Pass,
			TLSMode:            cfg.SMTP.TLSMode,
			InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
		})))
	}
	if len(cfg.WebDAV.Servers) > 0 {
		dav, err := NewWebDAV(cfg, "")
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.WebDAV = dav
		importer := avatar.NewImporter(avatar.NewDAVStore(repo, dav, cfg.WebDAV.PicturesDir), nil)
		regOpts = append(regOpts, registration.WithAvatarImporter(importer))
	} else {
		log.Info("webdav not configured, avatars are not imported")
	}

	c.Registration = registration.New(registration.Config{
		PendingTTL:     config.Duration(cfg.OpenID.PendingTTL),
		PasswordLength: cfg.OpenID.PasswordLength,
	}, repo, cc, registration.NewTickets([]byte(cfg.OpenID.TicketSecret)), regOpts...)

	c.Brokers = broker.NewFactory(Endpoints(cfg), nil, providers.WithPasswordLength(cfg.OpenID.PasswordLength))

	httpMetrics, err := mw.NewHTTPMetrics(reg)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("http metrics: %w", err)
	}

	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		window := config.Duration(cfg.Rate.Window)
		if r, ok := cc.(*cache.Redis); ok {
			limiter = rate.NewRedisLimiter(r.Underlying(), cfg.Cache.Redis.Prefix+":rl:", cfg.Rate.MaxRequests, window)
		} else {
			limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, window)
		}
	}

	c.Handler = router.New(router.Deps{
		OpenID: openidctrl.NewController(c.Brokers, c.Registration),
		Health: healthctrl.NewController(cfg.App.Version, map[string]healthctrl.Pinger{
			"store": repo,
			"cache": cc,
		}),
		Metrics:        httpMetrics,
		MetricsHandler: promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
		RateLimiter:    limiter,
	})

	for name, ep := range Endpoints(cfg) {
		log.Debug("brokerage enabled", logger.Brokerage(name), logger.String("host", ep.Host), logger.String("api_key", util.MaskSecret(ep.APIKey)))
	}
	log.Info("service wired",
		logger.String("storage", cfg.Storage.Driver),
		logger.String("cache", cfg.Cache.Kind),
		logger.Any("brokerages", c.Brokers.Names()),
		logger.Bool("rate_limit", limiter != nil),
	)
	return c, nil
}

// Endpoints maps the enabled brokerages of cfg.
func Endpoints(cfg *config.Config) map[string]broker.Endpoint {
	out := make(map[string]broker.Endpoint, len(cfg.Brokers))
	for name, b := range cfg.Brokers {
		if !b.IsEnabled() {
			continue
		}
		out[name] = broker.Endpoint{Protocol: b.Protocol, Host: b.Host, APIKey: b.APIKey, Params: b.Params}
	}
	return out
}

// NewWebDAV builds a client over the configured servers, pinned to server
// when it is not empty.
func NewWebDAV(cfg *config.Config, server string) (*webdav.Client, error) {
	servers := make(map[string]webdav.Server, len(cfg.WebDAV.Servers))
	for k, s := range cfg.WebDAV.Servers {
		servers[k] = webdav.Server{Host: s.Host, Port: s.Port, Protocol: s.Protocol}
	}
	var opts []webdav.Option
	if server != "" {
		opts = append(opts, webdav.WithServer(server))
	}
	dav, err := webdav.New(webdav.Config{Servers: servers, DefaultServer: cfg.WebDAV.DefaultServer}, opts...)
	if err != nil {
		return nil, fmt.Errorf("webdav: %w", err)
	}
	return dav, nil
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// ShutdownTimeout is the grace period for in-flight requests.
func (c *Container) ShutdownTimeout() time.Duration {
	return config.Duration(c.Config.Server.ShutdownTimeout)
}
