// Package config loads the shell's env-driven tunables: a plain struct
// with `env:"..."` tags fed by golobby/config.
package config

import (
	"github.com/golobby/config/v3"
	"github.com/golobby/config/v3/pkg/feeder"
)

// Config holds the shell's tunable knobs: the prompt string, the
// input-line budget, and an ambiguous-redirect strictness flag.
// AmbiguousRedirectFatal is loaded but nothing reads it: the parser
// rejects the whole line on an ambiguous redirect whatever its value.
type Config struct {
	Prompt                 string `env:"XSSH_PROMPT"`
	MaxLineLength          int    `env:"XSSH_MAX_LINE"`
	AmbiguousRedirectFatal bool   `env:"XSSH_STRICT_REDIRECT"`
}

// Defaults returns the stock configuration: the "xssh>> " prompt and a
// 127-useful-character line budget.
func Defaults() *Config {
	return &Config{
		Prompt:                 "xssh>> ",
		MaxLineLength:          127,
		AmbiguousRedirectFatal: true,
	}
}

// Load reads Config from the environment. Defaults are applied first;
// the feeder only overwrites fields whose environment variable is
// actually set.
func Load() (*Config, error) {
	cfg := Defaults()

	c := config.New().AddFeeder(feeder.Env{}).AddStruct(cfg)
	if err := c.Feed(); err != nil {
		return nil, err
	}
	return cfg, nil
}
