package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultConfigPath   = "config.toml"
	DefaultHTTPAddr     = ":8080"
	DefaultJWTExpiresIn = "24h"
	DefaultPGHost       = "127.0.0.1"
	DefaultPGPort       = 5432
	DefaultPGUser       = "postgres"
	DefaultPGDatabase   = "omnireply"
	DefaultPGSSLMode    = "disable"
	DefaultOpenAIURL    = "https://api.openai.com/v1"
	DefaultChatModel    = "gpt-4o"
)

type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Auth     AuthConfig     `toml:"auth"`
	Postgres PostgresConfig `toml:"postgres"`
	OpenAI   OpenAIConfig   `toml:"openai"`
	Pipeline PipelineConfig `toml:"pipeline"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

type OpenAIConfig struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	Temperature    float32 `toml:"temperature"`
	MaxTokens      int     `toml:"max_tokens"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Timeout returns the completion request timeout.
func (c OpenAIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PipelineConfig tunes the response pipeline edge cases and lookups.
type PipelineConfig struct {
	SpamMessagesPerMinute int `toml:"spam_messages_per_minute"`
	SpamBurst             int `toml:"spam_burst"`
	MaxMessageLength      int `toml:"max_message_length"`
	KnowledgeScanLimit    int `toml:"knowledge_scan_limit"`
	KnowledgeMatchLimit   int `toml:"knowledge_match_limit"`
	RuleLimit             int `toml:"rule_limit"`
}

func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		OpenAI: OpenAIConfig{
			BaseURL:        DefaultOpenAIURL,
			Model:          DefaultChatModel,
			Temperature:    0.7,
			MaxTokens:      500,
			TimeoutSeconds: 10,
		},
		Pipeline: PipelineConfig{
			SpamMessagesPerMinute: 20,
			SpamBurst:             5,
			MaxMessageLength:      4096,
			KnowledgeScanLimit:    50,
			KnowledgeMatchLimit:   5,
			RuleLimit:             10,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
