package config

import (
	"errors"
	"time"
)

// DefaultSystemPrompt is the instruction sent ahead of every assistant request.
const DefaultSystemPrompt = `You are an experienced programming tutor and I am a student asking you for help with my code.
- Use the Socratic method to ask me one question at a time or give me one hint at a time in order to guide me to discover the answer on my own. Do NOT directly give me the answer. When I completely give up, give me the answer. Or instead, ask me just the right question at each point to get me to think for myself.
- Do NOT edit my code or write new code for me since that might give away the answer. Instead, give me hints of where to look in my existing code for where the problem might be. You can also print out specific parts of my code to point me in the right direction.
- Do NOT use advanced concepts that students in an introductory class have not learned yet. Instead, use concepts that are taught in introductory-level classes and beginner-level programming tutorials. Also, prefer the standard library and built-in features over external libraries.`

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	StaticDir         string        `mapstructure:"static_dir" yaml:"static_dir"`
	MaxMessageBytes   int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	SendBuffer        int           `mapstructure:"send_buffer" yaml:"send_buffer"`
	CommandBuffer     int           `mapstructure:"command_buffer" yaml:"command_buffer"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	Assist            AssistConfig  `mapstructure:"assist" yaml:"assist"`
}

// AssistConfig holds the fixed parameters of the model proxy.
type AssistConfig struct {
	APIKey          string        `mapstructure:"api_key" yaml:"api_key"`
	Model           string        `mapstructure:"model" yaml:"model"`
	SystemPrompt    string        `mapstructure:"system_prompt" yaml:"system_prompt"`
	Temperature     float32       `mapstructure:"temperature" yaml:"temperature"`
	TopK            float32       `mapstructure:"top_k" yaml:"top_k"`
	TopP            float32       `mapstructure:"top_p" yaml:"top_p"`
	MaxOutputTokens int32         `mapstructure:"max_output_tokens" yaml:"max_output_tokens"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":5000",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		StaticDir:         "build",
		MaxMessageBytes:   1 << 20,
		SendBuffer:        64,
		CommandBuffer:     256,
		AllowedOrigins:    []string{"*"},
		Assist: AssistConfig{
			Model:           "gemini-1.0-pro",
			SystemPrompt:    DefaultSystemPrompt,
			Temperature:     0.9,
			TopK:            1,
			TopP:            1,
			MaxOutputTokens: 2048,
			Timeout:         30 * time.Second,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Only the values exposed as command line flags are considered.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.StaticDir != "" {
		c.StaticDir = other.StaticDir
	}
}

// Validate rejects values the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.MaxMessageBytes <= 0 {
		errs = append(errs, errors.New("max_message_bytes must be positive"))
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, errors.New("send_buffer must be positive"))
	}
	if c.CommandBuffer <= 0 {
		errs = append(errs, errors.New("command_buffer must be positive"))
	}
	if c.Assist.MaxOutputTokens <= 0 {
		errs = append(errs, errors.New("assist.max_output_tokens must be positive"))
	}
	return errors.Join(errs...)
}
