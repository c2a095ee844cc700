package daemonctl

import (
	"os"
	"path/filepath"
	"strings"

	"marquee/internal/config"
)

// SocketPath returns the daemon control socket location for the given
// configuration. Falls back to the system temp directory when no log
// directory is configured.
func SocketPath(cfg *config.Config) string {
	return runtimePath(cfg, "marqueed.sock")
}

// PIDFilePath returns the daemon pid file location for the given configuration.
func PIDFilePath(cfg *config.Config) string {
	return runtimePath(cfg, "marqueed.pid")
}

func runtimePath(cfg *config.Config, name string) string {
	dir := ""
	if cfg != nil {
		dir = strings.TrimSpace(cfg.Runtime.LogDir)
	}
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, name)
}
