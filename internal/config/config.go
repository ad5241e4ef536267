package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultPort        = "3000"
	DefaultDatabaseURL = "mongodb://localhost:27017"
	DefaultMountPath   = "/api"
)

// Backend 标识持久化网关的实现类型，由 DATABASE_URL 的 scheme 决定。
type Backend string

const (
	BackendMongo    Backend = "mongo"
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

type Config struct {
	Addr           string
	DatabaseURL    string
	DatabaseName   string
	MountPath      string
	Env            string
	LogLevel       string
	LogFormat      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	GatewayTimeout time.Duration
}

// fileConfig 对应 CONFIG_FILE 指向的 TOML 文件，时长字段使用 "5s" 这类字符串。
type fileConfig struct {
	Addr           string `toml:"addr"`
	Port           string `toml:"port"`
	DatabaseURL    string `toml:"database_url"`
	DatabaseName   string `toml:"database_name"`
	MountPath      string `toml:"mount_path"`
	LogLevel       string `toml:"log_level"`
	LogFormat      string `toml:"log_format"`
	ReadTimeout    string `toml:"read_timeout"`
	WriteTimeout   string `toml:"write_timeout"`
	IdleTimeout    string `toml:"idle_timeout"`
	GatewayTimeout string `toml:"gateway_timeout"`
}

// Load builds the runtime configuration. Precedence is environment, then the
// optional TOML file named by CONFIG_FILE, then built-in defaults. Outside
// production a .env file in the working directory is loaded first.
func Load(defaultPort string) (Config, error) {
	env := getEnv("APP_ENV", "development")
	if env != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	}

	var file fileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, &file); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	cfg := Config{
		Addr:         resolveAddr(file, defaultPort),
		DatabaseURL:  getEnv("DATABASE_URL", firstNonEmpty(file.DatabaseURL, DefaultDatabaseURL)),
		DatabaseName: getEnv("DATABASE_NAME", firstNonEmpty(file.DatabaseName, "todo")),
		MountPath:    normalizeMountPath(getEnv("MOUNT_PATH", firstNonEmpty(file.MountPath, DefaultMountPath))),
		Env:          env,
		LogLevel:     getEnv("LOG_LEVEL", firstNonEmpty(file.LogLevel, "info")),
		LogFormat:    getEnv("LOG_FORMAT", firstNonEmpty(file.LogFormat, "text")),
	}

	durations := []struct {
		dst      *time.Duration
		key      string
		file     string
		fallback time.Duration
	}{
		{&cfg.ReadTimeout, "READ_TIMEOUT", file.ReadTimeout, 5 * time.Second},
		{&cfg.WriteTimeout, "WRITE_TIMEOUT", file.WriteTimeout, 10 * time.Second},
		{&cfg.IdleTimeout, "IDLE_TIMEOUT", file.IdleTimeout, 120 * time.Second},
		{&cfg.GatewayTimeout, "GATEWAY_TIMEOUT", file.GatewayTimeout, 5 * time.Second},
	}
	for _, d := range durations {
		fallback := d.fallback
		if d.file != "" {
			parsed, err := time.ParseDuration(d.file)
			if err != nil {
				return Config{}, fmt.Errorf("config file %s: %w", strings.ToLower(d.key), err)
			}
			fallback = parsed
		}
		*d.dst = getEnvDuration(d.key, fallback)
	}

	if cfg.GatewayTimeout <= 0 {
		return Config{}, errors.New("gateway timeout must be positive")
	}
	if _, err := cfg.Backend(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Backend 根据连接串的 scheme 选择网关实现
func (c Config) Backend() (Backend, error) {
	u, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	switch u.Scheme {
	case "mongodb", "mongodb+srv":
		return BackendMongo, nil
	case "postgres", "postgresql":
		return BackendPostgres, nil
	case "memory":
		return BackendMemory, nil
	default:
		return "", fmt.Errorf("unsupported DATABASE_URL scheme %q", u.Scheme)
	}
}

func resolveAddr(file fileConfig, defaultPort string) string {
	// ADDR 优先于 PORT，便于绑定到指定网卡
	if addr := os.Getenv("ADDR"); addr != "" {
		return addr
	}
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	if file.Addr != "" {
		return file.Addr
	}
	return ":" + firstNonEmpty(file.Port, defaultPort)
}

func normalizeMountPath(path string) string {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func getEnv(key, fallback string) string {
	// 读取字符串环境变量
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	// 读取时间长度环境变量（如 5s/1m）
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
