package app

import (
	"strings"

	"github.com/charlesng35/lootguard/pkg/logger"
)

// ConfigureLogging initialises the global logger from the configured level,
// defaulting to info when unset.
func ConfigureLogging(level string) error {
	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}
	return logger.Init(level)
}
