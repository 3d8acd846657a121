package logger

import (
	"time"

	"go.uber.org/zap"
)

// ---- HTTP ----

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }

// Duration is the elapsed time of an operation.
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

// ---- OpenID ----

// Brokerage identifies the identity brokerage (loginza, rpxnow).
func Brokerage(v string) zap.Field { return zap.String("brokerage", v) }

// Provider is the resolved provider display name (Google, MailRu, ...).
func Provider(v string) zap.Field { return zap.String("provider", v) }

// Identity is the provider identity URL. Safe to log, it is not a secret.
func Identity(v string) zap.Field { return zap.String("identity", v) }

// ResultCode is the numeric auth result code.
func ResultCode(v int) zap.Field { return zap.Int("result_code", v) }

func Ticket(v string) zap.Field   { return zap.String("ticket", v) }
func UserID(v int64) zap.Field    { return zap.Int64("user_id", v) }
func Username(v string) zap.Field { return zap.String("username", v) }

// Email should be masked with util.MaskEmail first.
func Email(v string) zap.Field { return zap.String("email", v) }

// ---- Storage ----

func Server(v string) zap.Field { return zap.String("server", v) }
func URL(v string) zap.Field    { return zap.String("url", v) }

// ---- System ----

// Component names the emitting package.
func Component(v string) zap.Field { return zap.String("component", v) }

// Op names the current operation.
func Op(v string) zap.Field { return zap.String("op", v) }

// Layer is handler, service or repository.
func Layer(v string) zap.Field { return zap.String("layer", v) }

func Err(err error) zap.Field { return zap.Error(err) }

func Count(v int) zap.Field               { return zap.Int("count", v) }
func String(key, v string) zap.Field      { return zap.String(key, v) }
func Int(key string, v int) zap.Field     { return zap.Int(key, v) }
func Int64(key string, v int64) zap.Field { return zap.Int64(key, v) }
func Bool(key string, v bool) zap.Field   { return zap.Bool(key, v) }
func Any(key string, v any) zap.Field     { return zap.Any(key, v) }
