package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Redis        RedisConfig        `mapstructure:"redis"`
	MySQL        MySQLConfig        `mapstructure:"mysql"`
	Leader       LeaderConfig       `mapstructure:"leader"`
	Instance     InstanceConfig     `mapstructure:"instance"`
	Log          LogConfig          `mapstructure:"log"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Processor    ProcessorConfig    `mapstructure:"processor"`
	Queue        QueueConfig        `mapstructure:"queue"`
	Realtime     RealtimeConfig     `mapstructure:"realtime"`
	Registration RegistrationConfig `mapstructure:"registration"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	EnsureSchema    bool          `mapstructure:"ensure_schema"`
}

type LeaderConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// SchedulerConfig controls the lifecycle tick. Interval is a cron spec such as "@every 1m".
type SchedulerConfig struct {
	Interval string `mapstructure:"interval"`
}

type ProcessorConfig struct {
	LockTTL         time.Duration `mapstructure:"lock_ttl"`
	ConflictRetries int           `mapstructure:"conflict_retries"`
}

type QueueConfig struct {
	KeyPrefix     string `mapstructure:"key_prefix"`
	SweepInterval string `mapstructure:"sweep_interval"`
}

type RealtimeConfig struct {
	SendBuffer   int           `mapstructure:"send_buffer"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
}

type RegistrationConfig struct {
	AutoApprove bool `mapstructure:"auto_approve"`
}

var envBindings = map[string]string{
	"server.port":                "SERVER_PORT",
	"server.host":                "SERVER_HOST",
	"redis.address":              "REDIS_ADDRESS",
	"redis.password":             "REDIS_PASSWORD",
	"redis.db":                   "REDIS_DB",
	"mysql.dsn":                  "MYSQL_DSN",
	"mysql.max_open_conns":       "MYSQL_MAX_OPEN_CONNS",
	"mysql.max_idle_conns":       "MYSQL_MAX_IDLE_CONNS",
	"mysql.conn_max_lifetime":    "MYSQL_CONN_MAX_LIFETIME",
	"mysql.ensure_schema":        "MYSQL_ENSURE_SCHEMA",
	"leader.ttl":                 "LEADER_TTL",
	"instance.id":                "INSTANCE_ID",
	"log.level":                  "LOG_LEVEL",
	"log.encoding":               "LOG_ENCODING",
	"scheduler.interval":         "SCHEDULER_INTERVAL",
	"processor.lock_ttl":         "PROCESSOR_LOCK_TTL",
	"processor.conflict_retries": "PROCESSOR_CONFLICT_RETRIES",
	"queue.key_prefix":           "QUEUE_KEY_PREFIX",
	"queue.sweep_interval":       "QUEUE_SWEEP_INTERVAL",
	"realtime.send_buffer":       "REALTIME_SEND_BUFFER",
	"realtime.write_timeout":     "REALTIME_WRITE_TIMEOUT",
	"realtime.ping_interval":     "REALTIME_PING_INTERVAL",
	"registration.auto_approve":  "REGISTRATION_AUTO_APPROVE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("mysql.dsn", "auction_user:auction_pass@tcp(localhost:3306)/auction_db?parseTime=true&loc=UTC")
	v.SetDefault("mysql.max_open_conns", 25)
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("mysql.ensure_schema", true)
	v.SetDefault("leader.ttl", 30*time.Second)
	v.SetDefault("instance.id", "auction-engine-1")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("scheduler.interval", "@every 1m")
	v.SetDefault("processor.lock_ttl", 10*time.Second)
	v.SetDefault("processor.conflict_retries", 1)
	v.SetDefault("queue.key_prefix", "auction")
	v.SetDefault("queue.sweep_interval", "@every 30s")
	v.SetDefault("realtime.send_buffer", 64)
	v.SetDefault("realtime.write_timeout", 10*time.Second)
	v.SetDefault("realtime.ping_interval", 30*time.Second)
	v.SetDefault("registration.auto_approve", false)
}

func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Configuration file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/auction-engine/")

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}

	return unmarshal(v)
}

func bindEnv(v *viper.Viper) error {
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind env %s: %w", env, err)
		}
	}
	return nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("config: instance.id must not be empty")
	}
	if c.Leader.TTL <= 0 {
		return errors.New("config: leader.ttl must be positive")
	}
	if c.Processor.LockTTL <= 0 {
		return errors.New("config: processor.lock_ttl must be positive")
	}
	if c.Processor.ConflictRetries < 0 {
		return errors.New("config: processor.conflict_retries must not be negative")
	}
	if c.Realtime.SendBuffer <= 0 {
		return errors.New("config: realtime.send_buffer must be positive")
	}
	return nil
}

// GetConfigString returns a formatted string representation of the config
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"Server: %s:%d, Redis: %s, Instance: %s, Scheduler: %s",
		c.Server.Host,
		c.Server.Port,
		c.Redis.Address,
		c.Instance.ID,
		c.Scheduler.Interval,
	)
}
