package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// MEET_SERVER_ADDR points at a running coordinator, e.g. localhost:8080.
	// Empty skips the whole suite so `go test ./...` stays self-contained.
	ServerAddr string `envconfig:"MEET_SERVER_ADDR"`
	// E2E_DEBUG_JSON allows dumping full websocket envelopes as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
