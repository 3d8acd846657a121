// Package logger provides the process-wide zap logger and request scoping.
//
// Initialization (once, in main):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
// Brokers, providers and the WebDAV client log through From(ctx), which
// falls back to the singleton when ctx carries no scoped logger:
//
//	log := logger.From(ctx).With(logger.Component("openid.broker"))
//	log.Debug("brokerage responded", logger.Brokerage("loginza"), logger.Status(200))
package logger
