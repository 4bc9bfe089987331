package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 BUYSELL_DATABASE_DSN
const EnvPrefix = "BUYSELL"

// Load 读取配置：默认值 < 配置文件 < 环境变量。path 为空时只使用默认值和环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults 注册所有键，AutomaticEnv 只对已知键生效
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.pool_size", d.Redis.PoolSize)

	v.SetDefault("rabbitmq.url", d.RabbitMQ.URL)
	v.SetDefault("rabbitmq.exchange", d.RabbitMQ.Exchange)
	v.SetDefault("rabbitmq.queue", d.RabbitMQ.Queue)
	v.SetDefault("rabbitmq.stats_interval", d.RabbitMQ.StatsInterval)

	v.SetDefault("auth.cache_nodes", d.Auth.CacheNodes)
	v.SetDefault("auth.hash_replicas", d.Auth.HashReplicas)
	v.SetDefault("auth.token_cache_ttl_seconds", d.Auth.TokenCacheTTLSeconds)

	v.SetDefault("jwt.secret", d.JWT.Secret)
	v.SetDefault("jwt.ttl", d.JWT.TTL)

	v.SetDefault("captcha.enabled", d.Captcha.Enabled)
	v.SetDefault("captcha.secret_key", d.Captcha.SecretKey)
	v.SetDefault("captcha.verify_url", d.Captcha.VerifyURL)
	v.SetDefault("captcha.timeout", d.Captcha.Timeout)

	v.SetDefault("cas.base_url", d.CAS.BaseURL)
	v.SetDefault("cas.service_url", d.CAS.ServiceURL)
	v.SetDefault("cas.email_domain", d.CAS.EmailDomain)
	v.SetDefault("cas.timeout", d.CAS.Timeout)

	v.SetDefault("account.email_pattern", d.Account.EmailPattern)

	v.SetDefault("limits.otp_max_attempts", d.Limits.OTPMaxAttempts)
	v.SetDefault("limits.login_max_attempts", d.Limits.LoginMaxAttempts)
	v.SetDefault("limits.attempt_window", d.Limits.AttemptWindow)
	v.SetDefault("limits.auth_rate_capacity", d.Limits.AuthRateCapacity)
	v.SetDefault("limits.auth_rate_refill", d.Limits.AuthRateRefill)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
}
