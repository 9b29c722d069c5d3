// Package config loads the optional per-project config file at
// .claude/memory/config.yml. Absence of the file means defaults; no
// environment variables affect core behavior.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/acolytehq/acolyte/internal/core"
	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// Config holds project-level knobs.
type Config struct {
	BackupKeep           int      `yaml:"backup_keep"`
	MonitorInterval      int      `yaml:"monitor_interval_seconds"`
	MonitorMaxIterations int      `yaml:"monitor_max_iterations"`
	NotifySound          bool     `yaml:"notify_sound"`
	StaleSessionHours    int      `yaml:"stale_session_hours"`
	Deny                 []string `yaml:"deny"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BackupKeep:           10,
		MonitorInterval:      20,
		MonitorMaxIterations: 5,
		StaleSessionHours:    4,
	}
}

// Load reads the project config, falling back to defaults when the file is
// absent or unreadable. A malformed file is an error; a missing one is not.
func Load(project core.Project) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(project.ConfigPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse %s: %w", project.ConfigPath(), err)
	}

	if cfg.BackupKeep <= 0 {
		cfg.BackupKeep = 10
	}
	if cfg.MonitorInterval <= 0 {
		cfg.MonitorInterval = 20
	}
	if cfg.MonitorMaxIterations <= 0 {
		cfg.MonitorMaxIterations = 5
	}
	if cfg.StaleSessionHours <= 0 {
		cfg.StaleSessionHours = 4
	}
	return cfg, nil
}

// DenyGlobs compiles the deny patterns, skipping any that fail to compile.
func (c Config) DenyGlobs() []glob.Glob {
	var globs []glob.Glob
	for _, pattern := range c.Deny {
		compiled, err := glob.Compile(pattern)
		if err != nil {
			continue
		}
		globs = append(globs, compiled)
	}
	return globs
}

// DeniedBy returns the first deny pattern matching text, or "".
func (c Config) DeniedBy(text string) string {
	for _, pattern := range c.Deny {
		compiled, err := glob.Compile(pattern)
		if err != nil {
			continue
		}
		if compiled.Match(text) {
			return pattern
		}
	}
	return ""
}
