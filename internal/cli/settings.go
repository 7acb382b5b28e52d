package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Settings configures the command line client
type Settings struct {
	APIURL    string        `env:"INKFOLD_API_URL" envDefault:"http://localhost:8080"`
	Token     string        `env:"INKFOLD_TOKEN"`
	TokenFile string        `env:"INKFOLD_TOKEN_FILE"`
	Timeout   time.Duration `env:"INKFOLD_TIMEOUT" envDefault:"2m"`
}

// LoadSettings reads Settings from the environment
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	if s.TokenFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return Settings{}, fmt.Errorf("locate config dir: %w", err)
		}
		s.TokenFile = filepath.Join(dir, "inkfold", "token")
	}
	return s, nil
}

// ResolveToken returns the explicit token, or the one saved by login
func (s Settings) ResolveToken() (string, error) {
	if s.Token != "" {
		return s.Token, nil
	}
	data, err := os.ReadFile(s.TokenFile)
	if errors.Is(err, os.ErrNotExist) {
		return "", errNotLoggedIn
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", errNotLoggedIn
	}
	return token, nil
}

func (s Settings) saveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.TokenFile), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(s.TokenFile, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s Settings) removeToken() error {
	if err := os.Remove(s.TokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

var errNotLoggedIn = errors.New("not logged in: run `inkfold login --token <access token>` or set INKFOLD_TOKEN")
