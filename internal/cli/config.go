package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds CLI configuration. Flags override the environment.
type Config struct {
	ServerURL string `env:"FARKLE_SERVER" envDefault:"http://localhost:8080"`
	Token     string `env:"FARKLE_TOKEN"`
	TokenFile string `env:"FARKLE_TOKEN_FILE"`
	Output    string `env:"FARKLE_OUTPUT" envDefault:"text"`
	Verbose   bool   `env:"FARKLE_VERBOSE"`
}

// DefaultConfig reads the CLI environment. Unparseable values fall back to defaults.
func DefaultConfig() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		cfg = &Config{ServerURL: "http://localhost:8080", Output: "text"}
	}
	if cfg.TokenFile == "" {
		cfg.TokenFile = defaultTokenFile()
	}
	return cfg
}

// LoadToken reads the token file unless a token was already given
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	c.Token = strings.TrimSpace(string(data))
	return nil
}

// SaveToken writes the token file, readable by the owner only
func (c *Config) SaveToken(token string) error {
	c.Token = token

	if err := os.MkdirAll(filepath.Dir(c.TokenFile), 0700); err != nil {
		return err
	}
	return os.WriteFile(c.TokenFile, []byte(token+"\n"), 0600)
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".farkle", "token")
	}
	return filepath.Join(home, ".farkle", "token")
}
