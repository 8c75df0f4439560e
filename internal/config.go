// Package internal holds the coordinator's environment configuration.
package internal

import "time"

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel             string        `env:"LOG_LEVEL,required=true"`
	BufferSize           int           `env:"BUFFER_SIZE,default=64"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=30s"`
	InboxIdleTTL         time.Duration `env:"INBOX_IDLE_TTL,default=5m"`
	LowCapacityThreshold int           `env:"LOW_CAPACITY_THRESHOLD,default=32"`
	FrontendURL          string        `env:"FRONTEND_URL,required=true"`
	RequireJoinToken     bool          `env:"REQUIRE_JOIN_TOKEN,default=false"`
	JoinTokenSecret      string        `env:"JOIN_TOKEN_SECRET"`
	JoinTokenDuration    time.Duration `env:"JOIN_TOKEN_DURATION,default=720h"`
	SMTPHost             string        `env:"SMTP_HOST"`
	SMTPPort             int           `env:"SMTP_PORT,default=587"`
	SMTPFrom             string        `env:"SMTP_FROM"`
	SMTPUsername         string        `env:"SMTP_USERNAME"`
	SMTPPassword         string        `env:"SMTP_PASSWORD"`
}
