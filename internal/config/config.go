package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Truco    TrucoConfig    `mapstructure:"truco"`
}

type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	Mode        string   `mapstructure:"mode"` // debug, release
	CorsOrigins []string `mapstructure:"corsOrigins"`
}

// DatabaseConfig selects the history store. An empty DSN disables history.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // postgres, mysql, sqlite
	DSN    string `mapstructure:"dsn"`
}

// RedisConfig backs the leaderboard. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"` // hours
}

type TrucoConfig struct {
	RoomCodeLength          int           `mapstructure:"roomCodeLength"`
	RoundDisplayDelay       time.Duration `mapstructure:"roundDisplayDelay"`
	NewHandDelay            time.Duration `mapstructure:"newHandDelay"`
	BotThinkDelay           time.Duration `mapstructure:"botThinkDelay"`
	BotAckDelay             time.Duration `mapstructure:"botAckDelay"`
	TurnCompleteMinInterval time.Duration `mapstructure:"turnCompleteMinInterval"`
	SubscriberBuffer        int           `mapstructure:"subscriberBuffer"`
	JanitorSpec             string        `mapstructure:"janitorSpec"`
	IdleRoomTTL             time.Duration `mapstructure:"idleRoomTTL"`
}

var GlobalConfig *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.corsOrigins", []string{"*"})
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expire", 24)
	v.SetDefault("truco.roomCodeLength", 6)
	v.SetDefault("truco.roundDisplayDelay", "1500ms")
	v.SetDefault("truco.newHandDelay", "3s")
	v.SetDefault("truco.botThinkDelay", "1s")
	v.SetDefault("truco.botAckDelay", "1500ms")
	v.SetDefault("truco.turnCompleteMinInterval", "250ms")
	v.SetDefault("truco.subscriberBuffer", 32)
	v.SetDefault("truco.janitorSpec", "@every 1m")
	v.SetDefault("truco.idleRoomTTL", "30m")
}

// Load reads path (yaml) over the defaults. TRUCO_ environment variables
// override both, e.g. TRUCO_SERVER_PORT. An empty path uses defaults and env only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("TRUCO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig loads path into GlobalConfig.
func LoadConfig(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	GlobalConfig = cfg
	return nil
}

func (c *Config) Validate() error {
	t := c.Truco
	if t.RoomCodeLength < 4 {
		return errors.New("truco.roomCodeLength must be at least 4")
	}
	delays := map[string]time.Duration{
		"roundDisplayDelay":       t.RoundDisplayDelay,
		"newHandDelay":            t.NewHandDelay,
		"botThinkDelay":           t.BotThinkDelay,
		"botAckDelay":             t.BotAckDelay,
		"turnCompleteMinInterval": t.TurnCompleteMinInterval,
		"idleRoomTTL":             t.IdleRoomTTL,
	}
	for name, d := range delays {
		if d <= 0 {
			return fmt.Errorf("truco.%s must be positive", name)
		}
	}
	if t.BotThinkDelay <= t.TurnCompleteMinInterval {
		return errors.New("truco.botThinkDelay must exceed truco.turnCompleteMinInterval")
	}
	if c.JWT.Secret == "" && c.Server.Mode == "release" {
		return errors.New("jwt.secret is required in release mode")
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	return nil
}
