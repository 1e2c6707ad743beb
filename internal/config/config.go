package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendGenAI = "genai"
	BackendArk   = "ark"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	GenAI   GenAIConfig   `yaml:"genai"`
	Ark     ArkConfig     `yaml:"ark"`
	Models  ModelsConfig  `yaml:"models"`
	Assets  AssetsConfig  `yaml:"assets"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	GinMode         string        `yaml:"gin_mode"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type GenAIConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
	Mock     bool          `yaml:"mock"`
}

type ArkConfig struct {
	APIKey string `yaml:"api_key"`
	Region string `yaml:"region"`
	Model  string `yaml:"model"`
}

type ModelsConfig struct {
	// TextBackend selects the chat model behind the text agents: genai or ark.
	TextBackend string `yaml:"text_backend"`
	Text        string `yaml:"text"`
	Structured  string `yaml:"structured"`
	Image       string `yaml:"image"`
}

type AssetsConfig struct {
	ImageConcurrency int `yaml:"image_concurrency"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080", GinMode: "release", ShutdownTimeout: 10 * time.Second},
		GenAI:  GenAIConfig{Endpoint: "http://localhost:5000/api/generate", Timeout: 120 * time.Second},
		Ark:    ArkConfig{Region: "cn-beijing"},
		Models: ModelsConfig{
			TextBackend: BackendGenAI,
			Text:        "gemini-3-pro-preview",
			Structured:  "gemini-3-pro-preview",
			Image:       "gemini-2.5-flash-image",
		},
		Assets:  AssetsConfig{ImageConcurrency: 1},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, then the YAML file at path (if
// any), then the environment. A .env file in the working directory is loaded
// into the environment first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = os.Getenv("CINEMIND_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Addr, "LISTEN_ADDR")
	setString(&c.Server.GinMode, "GIN_MODE")
	setString(&c.GenAI.Endpoint, "GENAI_ENDPOINT")
	setString(&c.GenAI.APIKey, "GENAI_API_KEY")
	setString(&c.Ark.APIKey, "ARK_API_KEY")
	setString(&c.Ark.Region, "ARK_REGION")
	setString(&c.Ark.Model, "ARK_CHAT_MODEL")
	setString(&c.Models.TextBackend, "TEXT_BACKEND")
	setString(&c.Models.Text, "TEXT_MODEL")
	setString(&c.Models.Structured, "STRUCTURED_MODEL")
	setString(&c.Models.Image, "IMAGE_MODEL")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.File, "LOG_FILE")

	if v, ok := lookup("GENAI_MOCK"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GENAI_MOCK: %w", err)
		}
		c.GenAI.Mock = b
	}
	if v, ok := lookup("GENAI_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GENAI_TIMEOUT: %w", err)
		}
		c.GenAI.Timeout = d
	}
	if v, ok := lookup("IMAGE_CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("IMAGE_CONCURRENCY: %w", err)
		}
		c.Assets.ImageConcurrency = n
	}
	return nil
}

func (c *Config) Validate() error {
	c.Models.TextBackend = strings.ToLower(strings.TrimSpace(c.Models.TextBackend))
	switch c.Models.TextBackend {
	case BackendGenAI:
		if c.GenAI.Endpoint == "" && !c.GenAI.Mock {
			return errors.New("config: genai endpoint required")
		}
	case BackendArk:
		if c.Ark.APIKey == "" || c.Ark.Model == "" {
			return errors.New("config: ark backend needs ARK_API_KEY and ARK_CHAT_MODEL")
		}
	default:
		return fmt.Errorf("config: unknown text backend %q", c.Models.TextBackend)
	}
	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: unknown gin mode %q", c.Server.GinMode)
	}
	if c.GenAI.Timeout <= 0 {
		return errors.New("config: genai timeout must be positive")
	}
	if c.Assets.ImageConcurrency < 1 {
		c.Assets.ImageConcurrency = 1
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}
