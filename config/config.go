package config

import (
	"strings"
	"time"

	"github.com/mongodb/grip/level"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. COHORT_TOOLS_STORE_URI -> store.uri
const EnvPrefix = "COHORT_TOOLS"

// Store drivers
const (
	DriverMongo  = "mongo"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config holds all process configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"`
	CORSOrigin      string        `mapstructure:"corsOrigin"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
}

type StoreConfig struct {
	Driver          string        `mapstructure:"driver"`
	URI             string        `mapstructure:"uri"`
	Database        string        `mapstructure:"database"`
	ConnectTimeout  time.Duration `mapstructure:"connectTimeout"`
	CheckReferences bool          `mapstructure:"checkReferences"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Name  string `mapstructure:"name"`
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":5005")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.corsOrigin", "*")
	v.SetDefault("server.shutdownTimeout", 10*time.Second)

	v.SetDefault("store.driver", DriverMongo)
	v.SetDefault("store.uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("store.database", "cohort-tools-api")
	v.SetDefault("store.connectTimeout", 10*time.Second)
	v.SetDefault("store.checkReferences", false)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.name", "cohort-tools")
	v.SetDefault("log.level", "info")
}

// Load reads the optional config file at path, then applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config file '%s'", path)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can be used to start the service
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server address must not be empty")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return errors.Errorf("unknown server mode '%s'", c.Server.Mode)
	}
	if !level.FromString(c.Log.Level).IsValid() {
		return errors.Errorf("unknown log level '%s'", c.Log.Level)
	}
	switch c.Store.Driver {
	case DriverMongo:
		if c.Store.URI == "" {
			return errors.New("mongo store requires a uri")
		}
		if c.Store.Database == "" {
			return errors.New("mongo store requires a database name")
		}
	case DriverRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis store requires an address")
		}
	case DriverMemory:
	default:
		return errors.Errorf("unknown store driver '%s'", c.Store.Driver)
	}
	return nil
}
