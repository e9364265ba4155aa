package config

import (
	"github.com/pelletier/go-toml/v2"
)

// ExportTOML renders the effective configuration as TOML. No CLI
// subcommand calls it.
func ExportTOML(cfg *Config) ([]byte, error) {
	return toml.Marshal(cfg)
}
