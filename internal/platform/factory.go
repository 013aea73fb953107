package platform

import (
	"errors"

	"github.com/N3minator/TG-BOT/internal/config"
)

// ErrNoTransport is returned when no chat transport is configured and
// the daemon was not started in dev mode.
var ErrNoTransport = errors.New("no chat transport configured")

// New selects the platform implementation for the given config. Dev
// mode runs on the in-memory platform; a production transport has to be
// wired by the embedding deployment.
func New(cfg *config.Config) (Platform, error) {
	if cfg.DevMode {
		return NewMemory(), nil
	}

	return nil, ErrNoTransport
}
