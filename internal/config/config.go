package config

import (
	"fmt"
	"path/filepath"

	"github.com/DanteAc13/propintel/internal/common"
	"github.com/spf13/viper"
)

// DefaultDatabasePath is used when database.path is unset.
const DefaultDatabasePath = "$HOME/.local/share/propintel/propintel.db"

// Settings is the resolved runtime configuration.
type Settings struct {
	DatabasePath    string
	LogLevel        string
	LogFormat       string
	MetricsTextfile string
	Parallel        int
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("engine.parallel", 4)
	v.SetDefault("metrics.textfile", "")
}

// FromViper reads and validates settings. Paths are expanded.
func FromViper(v *viper.Viper) (Settings, error) {
	s := Settings{
		DatabasePath:    ExpandPath(v.GetString("database.path")),
		LogLevel:        v.GetString("logging.level"),
		LogFormat:       v.GetString("logging.format"),
		MetricsTextfile: ExpandPath(v.GetString("metrics.textfile")),
		Parallel:        v.GetInt("engine.parallel"),
	}

	if s.DatabasePath == "" {
		return s, fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if s.DatabasePath != ":memory:" {
		s.DatabasePath = filepath.Clean(s.DatabasePath)
	}
	if s.Parallel < 1 {
		return s, fmt.Errorf("%w: engine.parallel must be at least 1, got %d", common.ErrInvalidConfig, s.Parallel)
	}
	return s, nil
}
