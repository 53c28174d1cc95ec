package config

import (
	"fmt"
	"time"
)

type Config struct {
	HTTP                HttpConfig          `yaml:"http"`
	RateLimit           RateLimitConfig     `yaml:"rate_limit"`
	RobotsCacheTTLHours int                 `yaml:"robots_cache_ttl_hours"`
	Rod                 RodConfig           `yaml:"rod"`
	Storage             StorageConfig       `yaml:"storage"`
	Observability       ObservabilityConfig `yaml:"observability"`
}

type HttpConfig struct {
	UserAgent                 string `yaml:"user_agent"`
	ConnectTimeoutMS          int    `yaml:"connect_timeout_ms"`
	TotalTimeoutMS            int    `yaml:"total_timeout_ms"`
	MaxIdleConnections        int    `yaml:"max_idle_connections"`
	MaxIdleConnectionsPerHost int    `yaml:"max_idle_connections_per_host"`
	IdleConnectionTimeoutS    int    `yaml:"idle_connection_timeout_s"`
	AcceptLanguage            string `yaml:"accept_language"`
}

type RateLimitConfig struct {
	RPM int `yaml:"rpm"`
}

type RodConfig struct {
	Enabled          bool   `yaml:"enabled"`
	ChromePath       string `yaml:"chrome_path"`
	PageTimeoutS     int    `yaml:"page_timeout_s"`
	WaitLoadTimeoutS int    `yaml:"wait_load_timeout_s"`
	LazyLoadDelayS   int    `yaml:"lazy_load_delay_s"`
}

type StorageConfig struct {
	Driver           string `yaml:"driver"`
	DSN              string `yaml:"dsn"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms"`
}

type ObservabilityConfig struct {
	LogLevel string `yaml:"log_level"`
}

// Default returns a config that works without any config file on disk.
func Default() *Config {
	return &Config{
		HTTP: HttpConfig{
			UserAgent:                 "iedb-epitope-parser/1.0 (+research use)",
			ConnectTimeoutMS:          5000,
			TotalTimeoutMS:            30000,
			MaxIdleConnections:        100,
			MaxIdleConnectionsPerHost: 10,
			IdleConnectionTimeoutS:    90,
			AcceptLanguage:            "en-US,en;q=0.9",
		},
		RateLimit:           RateLimitConfig{RPM: 30},
		RobotsCacheTTLHours: 12,
		Rod: RodConfig{
			Enabled:          false,
			PageTimeoutS:     45,
			WaitLoadTimeoutS: 15,
			LazyLoadDelayS:   2,
		},
		Storage: StorageConfig{
			Driver:           "none",
			CommandTimeoutMS: 5000,
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
		},
	}
}

// Validation
func (c *Config) Validate() error {
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent is required")
	}
	if c.HTTP.ConnectTimeoutMS <= 0 {
		return fmt.Errorf("http.connect_timeout_ms must be > 0")
	}
	if c.HTTP.TotalTimeoutMS <= 0 {
		return fmt.Errorf("http.total_timeout_ms must be > 0")
	}
	if c.RateLimit.RPM <= 0 {
		return fmt.Errorf("rate_limit.rpm must be > 0")
	}
	if c.RobotsCacheTTLHours <= 0 {
		return fmt.Errorf("robots_cache_ttl_hours must be > 0")
	}
	if c.Storage.Driver != "none" && c.Storage.Driver != "mssql" {
		return fmt.Errorf("storage.driver must be 'none' or 'mssql'")
	}
	if c.Storage.Driver == "mssql" {
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required when storage.driver is 'mssql'")
		}
		if c.Storage.CommandTimeoutMS <= 0 {
			return fmt.Errorf("storage.command_timeout_ms must be > 0")
		}
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("observability.log_level is required")
	}
	if c.Rod.Enabled {
		if c.Rod.PageTimeoutS <= 0 {
			return fmt.Errorf("rod.page_timeout_s must be > 0")
		}
		if c.Rod.WaitLoadTimeoutS <= 0 {
			return fmt.Errorf("rod.wait_load_timeout_s must be > 0")
		}
		if c.Rod.LazyLoadDelayS < 0 {
			return fmt.Errorf("rod.lazy_load_delay_s must be >= 0")
		}
	}
	return nil
}

// Getters
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.HTTP.ConnectTimeoutMS) * time.Millisecond
}

func (c *Config) GetTotalTimeout() time.Duration {
	return time.Duration(c.HTTP.TotalTimeoutMS) * time.Millisecond
}

func (c *Config) GetIdleConnectionTimeout() time.Duration {
	return time.Duration(c.HTTP.IdleConnectionTimeoutS) * time.Second
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Storage.CommandTimeoutMS) * time.Millisecond
}

func (c *Config) GetRobotsCacheTTL() time.Duration {
	return time.Duration(c.RobotsCacheTTLHours) * time.Hour
}

func (c *Config) GetRodPageTimeout() time.Duration {
	return time.Duration(c.Rod.PageTimeoutS) * time.Second
}

func (c *Config) GetRodWaitLoadTimeout() time.Duration {
	return time.Duration(c.Rod.WaitLoadTimeoutS) * time.Second
}

func (c *Config) GetRodLazyLoadDelay() time.Duration {
	return time.Duration(c.Rod.LazyLoadDelayS) * time.Second
}
