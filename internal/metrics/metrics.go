package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Domain counters live in a standalone package so broker, registration and
// webdav can record them without importing the HTTP layer.

var (
	AuthAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "openid_auth_attempts_total",
		Help: "Authentication attempts by brokerage and result code",
	}, []string{"brokerage", "code"})

	ProviderResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "openid_provider_resolutions_total",
		Help: "Providers resolved from the identity",
	}, []string{"provider"})

	Registrations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "openid_registrations_total",
		Help: "Registrations by provider and outcome",
	}, []string{"provider", "result"}) // result: created|deferred|duplicate|failed

	AvatarImports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "avatar_imports_total",
		Help: "Avatar imports by outcome",
	}, []string{"result"})

	WebDAVCommands = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webdav_commands_total",
		Help: "WebDAV commands by method and status",
	}, []string{"method", "status"})
)

// Register registers every collector on reg (or the default registerer).
// Already registered collectors are not an error.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{AuthAttempts, ProviderResolutions, Registrations, AvatarImports, WebDAVCommands} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}
	return nil
}

// ObserveAuth counts one Authenticate outcome.
func ObserveAuth(brokerage string, code int) {
	AuthAttempts.WithLabelValues(brokerage, strconv.Itoa(code)).Inc()
}

// ObserveWebDAV counts one WebDAV command; status 0 means transport error.
func ObserveWebDAV(method string, status int) {
	WebDAVCommands.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
