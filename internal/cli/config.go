package cli

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	maxWalkDepth = 25
)

// configNames are the file names auto-discovery looks for, in order.
var configNames = []string{"quilt.yaml", "quilt.yml"}

// Config represents the quilt configuration from quilt.yaml.
type Config struct {
	// Fragments is the path to the fragment file.
	Fragments string `mapstructure:"fragments" json:"fragments"`

	Database DatabaseConfig `mapstructure:"database" json:"database"`

	Build  BuildConfig  `mapstructure:"build" json:"build"`
	Doctor DoctorConfig `mapstructure:"doctor" json:"doctor"`
	Log    LogConfig    `mapstructure:"log" json:"log"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	URL      string `mapstructure:"url" json:"url"`
	Host     string `mapstructure:"host" json:"host"`
	Port     int    `mapstructure:"port" json:"port"`
	Name     string `mapstructure:"name" json:"name"`
	User     string `mapstructure:"user" json:"user"`
	Password string `mapstructure:"password" json:"password"`
	SSLMode  string `mapstructure:"sslmode" json:"sslmode"`
}

// BuildConfig holds the composer defaults used by build and doctor.
type BuildConfig struct {
	UseCTE     bool `mapstructure:"use_cte" json:"use_cte"`
	UseAliases bool `mapstructure:"use_aliases" json:"use_aliases"`
}

// DoctorConfig holds doctor command settings.
type DoctorConfig struct {
	Fragments   string   `mapstructure:"fragments" json:"fragments"`
	Verbose     bool     `mapstructure:"verbose" json:"verbose"`
	Roots       []string `mapstructure:"roots" json:"roots"`
	SampleLimit int      `mapstructure:"sample_limit" json:"sample_limit"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" json:"level"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("QUILT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Relative fragment paths in a config file are relative to that file.
	if configPath != "" {
		base := filepath.Dir(configPath)
		cfg.Fragments = relativeTo(base, cfg.Fragments)
		cfg.Doctor.Fragments = relativeTo(base, cfg.Doctor.Fragments)
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("fragments", "fragments.yaml")

	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "prefer")

	v.SetDefault("build.use_cte", false)
	v.SetDefault("build.use_aliases", true)

	v.SetDefault("doctor.fragments", "")
	v.SetDefault("doctor.verbose", false)
	v.SetDefault("doctor.roots", []string{})
	v.SetDefault("doctor.sample_limit", 1000)

	v.SetDefault("log.level", "warn")
}

func relativeTo(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for quilt.yaml or quilt.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break // repo root
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

// HasDatabase reports whether any database connection setting is present.
func (c *Config) HasDatabase() bool {
	return c.Database.URL != "" || c.Database.Host != ""
}

// DSN returns the database connection string.
// If database.url is set, it's returned directly.
// Otherwise, builds a DSN from discrete fields.
func (c *Config) DSN() (string, error) {
	db := c.Database

	if db.URL != "" {
		return db.URL, nil
	}

	if db.Host == "" {
		return "", fmt.Errorf("database.host is required when database.url is not set")
	}
	if db.Name == "" {
		return "", fmt.Errorf("database.name is required when database.url is not set")
	}
	if db.User == "" {
		return "", fmt.Errorf("database.user is required when database.url is not set")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   "/" + db.Name,
	}

	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	} else {
		u.User = url.User(db.User)
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// ResolvedFragments returns the effective fragment file for a command, with
// the command-specific setting taking precedence over the top-level one.
func (c *Config) ResolvedFragments(commandPath string) string {
	if commandPath != "" {
		return commandPath
	}
	return c.Fragments
}
