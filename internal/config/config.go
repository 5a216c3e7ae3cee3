package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"gopkg.in/yaml.v3"
)

// Default values for the client side settings.
const (
	DefaultBackendURL   = "http://localhost:8080"
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultPingInterval = 30 * time.Second
	DefaultSpeechMode   = "auto"
	DefaultConfigDir    = ".z-meeting"
	DefaultConfigFile   = "config.yaml"
)

// Config 聚合客户端与开发后端的配置项。
type Config struct {
	Client ClientConfig
	Server ServerConfig
	AI     AIConfig
	Log    LogConfig
}

// Load 从默认配置文件（可选）与环境变量加载配置，环境变量优先。
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration using the YAML file at path as the base layer.
// A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	file, err := readFileConfig(path)
	if err != nil {
		return nil, err
	}

	client, err := loadClientConfig(file)
	if err != nil {
		return nil, err
	}

	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Client: client, Server: server, AI: ai, Log: loadLogConfig(file)}, nil
}

// DefaultConfigPath returns ~/.z-meeting/config.yaml, or MEETING_CONFIG when set.
func DefaultConfigPath() string {
	if p := strings.TrimSpace(os.Getenv("MEETING_CONFIG")); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile)
}

// FileConfig is the on-disk YAML layout.
type FileConfig struct {
	BackendURL   string        `yaml:"backend_url,omitempty"`
	HTTPTimeout  time.Duration `yaml:"http_timeout,omitempty"`
	PingInterval time.Duration `yaml:"ping_interval,omitempty"`
	Speech       string        `yaml:"speech,omitempty"`
	LogFile      string        `yaml:"log_file,omitempty"`
	LogLevel     string        `yaml:"log_level,omitempty"`
}

func readFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	if path == "" {
		return fc, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fc, nil
	}
	if err != nil {
		return fc, fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

// ClientConfig 描述 meetingctl 客户端配置。
type ClientConfig struct {
	BackendURL   string
	HTTPTimeout  time.Duration
	PingInterval time.Duration
	SpeechMode   string
	LogFile      string
}

func loadClientConfig(file FileConfig) (ClientConfig, error) {
	backend := firstNonEmpty(os.Getenv("MEETING_BACKEND_URL"), file.BackendURL, DefaultBackendURL)
	backend = strings.TrimRight(strings.TrimSpace(backend), "/")

	u, err := url.Parse(backend)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ClientConfig{}, fmt.Errorf("invalid MEETING_BACKEND_URL value: %q", backend)
	}

	timeout := DefaultHTTPTimeout
	if file.HTTPTimeout > 0 {
		timeout = file.HTTPTimeout
	}
	if override, err := parseOptionalIntEnv("MEETING_HTTP_TIMEOUT"); err != nil {
		return ClientConfig{}, err
	} else if override != nil {
		timeout = time.Duration(*override) * time.Second
	}

	ping := DefaultPingInterval
	if file.PingInterval > 0 {
		ping = file.PingInterval
	}
	if override, err := parseOptionalIntEnv("MEETING_PING_INTERVAL"); err != nil {
		return ClientConfig{}, err
	} else if override != nil {
		// 0 关闭心跳
		ping = time.Duration(*override) * time.Second
	}

	speech := strings.ToLower(firstNonEmpty(os.Getenv("MEETING_SPEECH"), file.Speech, DefaultSpeechMode))
	switch speech {
	case "auto", "say", "espeak", "log", "off":
	default:
		return ClientConfig{}, fmt.Errorf("invalid MEETING_SPEECH value: %q", speech)
	}

	logFile := firstNonEmpty(os.Getenv("MEETING_LOG_FILE"), file.LogFile, filepath.Join(os.TempDir(), "meetingctl.log"))

	return ClientConfig{
		BackendURL:   backend,
		HTTPTimeout:  timeout,
		PingInterval: ping,
		SpeechMode:   speech,
		LogFile:      logFile,
	}, nil
}

// ServerConfig 描述开发后端 HTTP 服务配置。
type ServerConfig struct {
	Addr      string
	StorePath string
}

// loadServerConfig 解析服务器监听地址与存储路径。
func loadServerConfig() (ServerConfig, error) {
	storePath := strings.TrimSpace(os.Getenv("STORE_PATH"))

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, StorePath: storePath}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, StorePath: storePath}, nil
}

// LogConfig 日志配置。
type LogConfig struct {
	Level  string
	Format string
}

func loadLogConfig(file FileConfig) LogConfig {
	return LogConfig{
		Level:  firstNonEmpty(os.Getenv("LOG_LEVEL"), file.LogLevel, "info"),
		Format: getEnvOrDefault("LOG_FORMAT", "console"),
	}
}

// AIConfig 描述开发后端的大模型配置。
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	maxTokens := 2048
	if c.MaxTokens != nil {
		maxTokens = *c.MaxTokens
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   &maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	if val < 0 {
		return nil, fmt.Errorf("invalid %s value %q: must not be negative", key, value)
	}
	return &val, nil
}
