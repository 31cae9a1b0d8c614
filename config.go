package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ConfigFile is read from the working directory when present.
const ConfigFile = ".config.json"

type Config struct {
	Port       int            `mapstructure:"port"`
	Env        string         `mapstructure:"env"`
	Pepper     string         `mapstructure:"pepper"`
	HMACKey    string         `mapstructure:"hmac_key"`
	SessionKey string         `mapstructure:"session_key"`
	CSRFKey    string         `mapstructure:"csrf_key"`
	Database   PostgresConfig `mapstructure:"database"`
}

// IsProd reports whether the app runs in production.
func (c Config) IsProd() bool {
	return c.Env == "prod"
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

func (pc PostgresConfig) ConnectionInfo() string {
	if pc.Password == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable", pc.Host, pc.Port, pc.User, pc.Name)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", pc.Host, pc.Port, pc.User, pc.Password, pc.Name)
}

// setDefaults registers the development setup. Every key needs a default,
// otherwise viper doesn't pick up its environment variable when unmarshalling.
func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 5000)
	v.SetDefault("env", "dev")
	v.SetDefault("pepper", "secret-random-string")
	v.SetDefault("hmac_key", "secret-hmac-key")
	v.SetDefault("session_key", "secret-session-key")
	v.SetDefault("csrf_key", "32-byte-long-secret-csrf-key!!!!")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "warbler")
}

// LoadConfig reads the configuration from the .config.json file in dir and
// from WARBLER_ environment variables, e.g. WARBLER_DATABASE_HOST, on top of
// the development defaults. If required is set, a missing file is an error.
func LoadConfig(dir string, required bool) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigName(strings.TrimSuffix(ConfigFile, ".json"))
	v.SetConfigType("json")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("warbler")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || required {
			return Config{}, fmt.Errorf("reading %s: %w", ConfigFile, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if len(c.CSRFKey) != 32 {
		return Config{}, fmt.Errorf("csrf_key must be 32 bytes long, got %d", len(c.CSRFKey))
	}
	return c, nil
}
