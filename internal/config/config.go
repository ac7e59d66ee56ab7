package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Client   ClientConfig   `mapstructure:"client"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ClientConfig WebDAV客户端配置
type ClientConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	// Depth PROPFIND默认深度："0"、"1" 或 "infinity"
	Depth string `mapstructure:"depth"`
}

// DatabaseConfig 导出数据库配置
type DatabaseConfig struct {
	Type     string         `mapstructure:"type"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
}

// PostgresConfig PostgreSQL配置
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// SQLiteConfig SQLite配置
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// SetDefaults 设置默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("client.base_url", "http://localhost:8080")
	v.SetDefault("client.timeout", 30*time.Second)
	v.SetDefault("client.user_agent", "davctl/1.0")
	v.SetDefault("client.depth", "0")
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.sqlite.path", "./data/properties.db")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.ssl_mode", "disable")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")
}

// Load 加载配置
//
// 优先级从高到低：环境变量覆盖、绑定的命令行参数、配置文件、默认值。
// configFile 为空时在当前目录和 $HOME 下查找 .davctl.yaml。
func Load(v *viper.Viper, configFile string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".davctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
			v.AddConfigPath(filepath.Join(home, ".config", "davctl"))
		}
	}

	v.SetEnvPrefix("DAV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	setEnvOverrides(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if expanded, err := homedir.Expand(config.Database.SQLite.Path); err == nil {
		config.Database.SQLite.Path = expanded
	}
	return &config, nil
}

// setEnvOverrides 设置环境变量覆盖
func setEnvOverrides(v *viper.Viper) {
	// 客户端配置
	if baseURL := os.Getenv("DAV_BASE_URL"); baseURL != "" {
		v.Set("client.base_url", baseURL)
	}
	if username := os.Getenv("DAV_USERNAME"); username != "" {
		v.Set("client.username", username)
	}
	if password := os.Getenv("DAV_PASSWORD"); password != "" {
		v.Set("client.password", password)
	}
	if timeout := os.Getenv("DAV_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			v.Set("client.timeout", d)
		}
	}

	// 日志配置
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		v.Set("logging.level", level)
	}

	// SQLite配置
	if path := os.Getenv("SQLITE_PATH"); path != "" {
		v.Set("database.sqlite.path", path)
	}

	// PostgreSQL配置
	if pgHost := os.Getenv("POSTGRES_HOST"); pgHost != "" {
		v.Set("database.postgres.host", pgHost)
	}
	if pgPort := os.Getenv("POSTGRES_PORT"); pgPort != "" {
		if port, err := strconv.Atoi(pgPort); err == nil {
			v.Set("database.postgres.port", port)
		}
	}
	if pgUser := os.Getenv("POSTGRES_USERNAME"); pgUser != "" {
		v.Set("database.postgres.username", pgUser)
	}
	if pgPassword := os.Getenv("POSTGRES_PASSWORD"); pgPassword != "" {
		v.Set("database.postgres.password", pgPassword)
	}
	if pgDatabase := os.Getenv("POSTGRES_DATABASE"); pgDatabase != "" {
		v.Set("database.postgres.database", pgDatabase)
	}
}

// GetDSN 获取数据库连接字符串
func (c *Config) GetDSN() string {
	switch c.Database.Type {
	case "postgres":
		return buildPostgresDSN(c.Database.Postgres)
	case "sqlite":
		return c.Database.SQLite.Path
	default:
		return ""
	}
}

// GetDriverName 获取 database/sql 驱动名
func (c *Config) GetDriverName() string {
	switch c.Database.Type {
	case "postgres":
		return "postgres"
	case "sqlite":
		return "sqlite3"
	default:
		return ""
	}
}

// buildPostgresDSN 构建PostgreSQL DSN
func buildPostgresDSN(config PostgresConfig) string {
	dsn := "host=" + config.Host
	dsn += " port=" + strconv.Itoa(config.Port)
	dsn += " user=" + config.Username
	dsn += " password=" + config.Password
	dsn += " dbname=" + config.Database
	dsn += " sslmode=" + config.SSLMode
	return dsn
}

// NewLogger 按日志配置创建logrus实例
func (c *Config) NewLogger() (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(c.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch c.Logging.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var closer io.Closer = nopCloser{}
	switch c.Logging.Output {
	case "", "stderr":
		logger.SetOutput(os.Stderr)
	case "stdout":
		logger.SetOutput(os.Stdout)
	default:
		path, err := homedir.Expand(c.Logging.Output)
		if err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		logger.SetOutput(f)
		closer = f
	}
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
