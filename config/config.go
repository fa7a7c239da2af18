package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr           string        `yaml:"addr"`
	CORSOrigins    []string      `yaml:"corsOrigins"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	ShutdownGrace  time.Duration `yaml:"shutdownGrace"`
}

// GRPC is disabled when Addr is empty.
type GRPC struct {
	Addr           string        `yaml:"addr"`
	DefaultTimeout time.Duration `yaml:"defaultTimeout"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // coderoom
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	Level     string `yaml:"level"`     // debug|info|warn|error
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Rooms struct {
	IDLength        int           `yaml:"idLength"`
	ReapAfter       time.Duration `yaml:"reapAfter"`
	DefaultCode     string        `yaml:"defaultCode"`
	DefaultLanguage string        `yaml:"defaultLanguage"`
	Languages       []string      `yaml:"languages"`
	ShareBaseURL    string        `yaml:"shareBaseURL"`
}

type WS struct {
	PingEvery       time.Duration `yaml:"pingEvery"`
	MaxMessageBytes int64         `yaml:"maxMessageBytes"`
	SendBuffer      int           `yaml:"sendBuffer"`
}

type Chat struct {
	MaxLength int `yaml:"maxLength"`
}

type Execution struct {
	MaxOutputBytes int `yaml:"maxOutputBytes"`
}

type Security struct {
	HostTokenSecret string        `yaml:"hostTokenSecret"`
	HostTokenTTL    time.Duration `yaml:"hostTokenTTL"`
	Issuer          string        `yaml:"issuer"`
}

// Postgres enables the chat and session archive when DSN is set.
type Postgres struct {
	DSN          string        `yaml:"dsn"`
	MaxConns     int32         `yaml:"maxConns"`
	QueueSize    int           `yaml:"queueSize"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

type Config struct {
	HTTP      HTTP      `yaml:"http"`
	GRPC      GRPC      `yaml:"grpc"`
	Logging   Logging   `yaml:"logging"`
	Rooms     Rooms     `yaml:"rooms"`
	WS        WS        `yaml:"ws"`
	Chat      Chat      `yaml:"chat"`
	Execution Execution `yaml:"execution"`
	Security  Security  `yaml:"security"`
	Postgres  Postgres  `yaml:"postgres"`
}

// LoadConfig reads .env if present, then the YAML file at CONFIG_PATH
// (default ./config/config.yaml). Environment variables override secrets and addresses.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	return Load(path)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.HTTP.Addr = getEnv("HTTP_ADDR", c.HTTP.Addr)
	c.GRPC.Addr = getEnv("GRPC_ADDR", c.GRPC.Addr)
	c.Logging.Env = getEnv("APP_ENV", c.Logging.Env)
	c.Security.HostTokenSecret = getEnv("HOST_TOKEN_SECRET", c.Security.HostTokenSecret)
	c.Postgres.DSN = getEnv("POSTGRES_DSN", c.Postgres.DSN)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.HTTP.CORSOrigins = splitCSV(v)
	}
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = 30 * time.Second
	}
	if c.HTTP.ShutdownGrace <= 0 {
		c.HTTP.ShutdownGrace = 10 * time.Second
	}
	if c.GRPC.DefaultTimeout <= 0 {
		c.GRPC.DefaultTimeout = 10 * time.Second
	}

	if c.Logging.Service == "" {
		c.Logging.Service = "coderoom"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}

	if c.Rooms.IDLength == 0 {
		c.Rooms.IDLength = 6
	}
	if c.Rooms.IDLength < 4 {
		return errors.New("rooms.idLength must be at least 4")
	}
	if c.Rooms.ReapAfter == 0 {
		c.Rooms.ReapAfter = time.Hour
	}
	if c.Rooms.ReapAfter < 0 {
		return errors.New("rooms.reapAfter must be positive")
	}
	if c.Rooms.DefaultCode == "" {
		c.Rooms.DefaultCode = "// Start coding here\n"
	}
	if len(c.Rooms.Languages) == 0 {
		c.Rooms.Languages = []string{"javascript", "python", "java", "cpp", "csharp", "ruby"}
	}
	if c.Rooms.DefaultLanguage == "" {
		c.Rooms.DefaultLanguage = "javascript"
	}
	c.Rooms.DefaultLanguage = strings.ToLower(c.Rooms.DefaultLanguage)
	if !containsFold(c.Rooms.Languages, c.Rooms.DefaultLanguage) {
		return fmt.Errorf("rooms.defaultLanguage %q is not in rooms.languages", c.Rooms.DefaultLanguage)
	}
	if c.Rooms.ShareBaseURL == "" {
		c.Rooms.ShareBaseURL = "http://localhost:3000"
	}

	if c.WS.PingEvery <= 0 {
		c.WS.PingEvery = 15 * time.Second
	}
	if c.WS.MaxMessageBytes <= 0 {
		c.WS.MaxMessageBytes = 1 << 20
	}
	if c.WS.SendBuffer <= 0 {
		c.WS.SendBuffer = 256
	}
	if c.Chat.MaxLength <= 0 {
		c.Chat.MaxLength = 4000
	}
	if c.Execution.MaxOutputBytes <= 0 {
		c.Execution.MaxOutputBytes = 10000
	}

	if c.Security.HostTokenSecret == "" {
		return errors.New("security.hostTokenSecret is required (or HOST_TOKEN_SECRET)")
	}
	if c.Security.HostTokenTTL <= 0 {
		c.Security.HostTokenTTL = 24 * time.Hour
	}
	if c.Security.Issuer == "" {
		c.Security.Issuer = "coderoom"
	}

	if c.Postgres.QueueSize <= 0 {
		c.Postgres.QueueSize = 1024
	}
	if c.Postgres.WriteTimeout <= 0 {
		c.Postgres.WriteTimeout = 5 * time.Second
	}
	return nil
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitCSV(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(strings.TrimSpace(s), v) {
			return true
		}
	}
	return false
}
