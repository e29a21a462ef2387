package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig    `mapstructure:"server"`
	Log         LogConfig       `mapstructure:"log"`
	Scheduler   SchedulerConfig `mapstructure:"scheduler"`
	Database    DatabaseConfig  `mapstructure:"database"`
	ERPDatabase DatabaseConfig  `mapstructure:"erp_database"`
	Redis       RedisConfig     `mapstructure:"redis"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SchedulerConfig holds plant capacity and collaborator limits
type SchedulerConfig struct {
	DailyCapacity        int64            `mapstructure:"daily_capacity"`
	CapacityOverrides    map[string]int64 `mapstructure:"capacity_overrides"`
	ResolverTimeout      time.Duration    `mapstructure:"resolver_timeout"`
	ResolverConcurrency  int              `mapstructure:"resolver_concurrency"`
	ArrivalLookaheadDays int              `mapstructure:"arrival_lookahead_days"`
	CallTimeout          time.Duration    `mapstructure:"call_timeout"`
}

// DatabaseConfig describes one SQL connection. Driver is postgres or sqlite;
// an empty driver disables the connection.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// Enabled reports whether a driver is configured
func (c DatabaseConfig) Enabled() bool {
	return c.Driver != ""
}

// DSN renders the connection string for the configured driver
func (c DatabaseConfig) DSN() string {
	if c.Driver == "sqlite" || c.Driver == "sqlite3" {
		return c.Path
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisConfig enables the distributed week lock when Host is set
type RedisConfig struct {
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	PoolSize  int           `mapstructure:"pool_size"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	LockTTL   time.Duration `mapstructure:"lock_ttl"`
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads .env, then the config file, then environment overrides.
// An empty path searches ./configs and the working directory for config.yaml.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVariables(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the scheduler cannot run with
func (c *Config) Validate() error {
	if c.Scheduler.DailyCapacity <= 0 {
		return fmt.Errorf("scheduler.daily_capacity must be positive, got %d", c.Scheduler.DailyCapacity)
	}
	for date, capacity := range c.Scheduler.CapacityOverrides {
		if capacity < 0 {
			return fmt.Errorf("scheduler.capacity_overrides[%s] cannot be negative, got %d", date, capacity)
		}
	}
	if c.Scheduler.ResolverConcurrency < 0 {
		return fmt.Errorf("scheduler.resolver_concurrency cannot be negative, got %d", c.Scheduler.ResolverConcurrency)
	}
	for name, db := range map[string]DatabaseConfig{"database": c.Database, "erp_database": c.ERPDatabase} {
		switch db.Driver {
		case "", "postgres", "sqlite", "sqlite3":
		default:
			return fmt.Errorf("%s.driver must be postgres or sqlite, got %q", name, db.Driver)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("scheduler.daily_capacity", 600)
	v.SetDefault("scheduler.resolver_timeout", 5*time.Second)
	v.SetDefault("scheduler.resolver_concurrency", 8)
	v.SetDefault("scheduler.arrival_lookahead_days", 14)
	v.SetDefault("scheduler.call_timeout", 10*time.Second)

	for _, section := range []string{"database", "erp_database"} {
		v.SetDefault(section+".port", 5432)
		v.SetDefault(section+".sslmode", "disable")
		v.SetDefault(section+".max_open_conns", 10)
		v.SetDefault(section+".max_idle_conns", 5)
		v.SetDefault(section+".conn_max_lifetime", time.Hour)
		v.SetDefault(section+".conn_max_idle_time", 10*time.Minute)
	}

	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.key_prefix", "drumsched:lock:")
	v.SetDefault("redis.lock_ttl", 2*time.Minute)
}

func bindEnvVariables(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	// Log
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.format", "LOG_FORMAT")

	// Scheduler
	v.BindEnv("scheduler.daily_capacity", "SCHEDULER_DAILY_CAPACITY")

	// Schedule store
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.path", "DB_PATH")

	// ERP
	v.BindEnv("erp_database.driver", "ERP_DB_DRIVER")
	v.BindEnv("erp_database.host", "ERP_DB_HOST")
	v.BindEnv("erp_database.port", "ERP_DB_PORT")
	v.BindEnv("erp_database.user", "ERP_DB_USER")
	v.BindEnv("erp_database.password", "ERP_DB_PASSWORD")
	v.BindEnv("erp_database.dbname", "ERP_DB_NAME")
	v.BindEnv("erp_database.path", "ERP_DB_PATH")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
}
