package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const configDir = ".enquiry"
const configFile = "config.toml"

// DefaultServer is the chat API base used when neither the config file nor
// the environment names one.
const DefaultServer = "https://max-chatbot-vkds.onrender.com/api"

// ServerEnv overrides the configured server for a single run.
const ServerEnv = "ENQUIRY_API_URL"

// Language is the reply language requested from the chat endpoint.
type Language string

const (
	English  Language = "en"
	Gujarati Language = "gu"
)

// ParseLanguage accepts the short codes and their English names.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "en", "english":
		return English, nil
	case "gu", "gujarati":
		return Gujarati, nil
	}
	return "", fmt.Errorf("unsupported language %q (use en or gu)", s)
}

// DisplayName returns the human-readable name for the language.
func (l Language) DisplayName() string {
	switch l {
	case Gujarati:
		return "Gujarati"
	default:
		return "English"
	}
}

type Config struct {
	Server       string   `toml:"server,omitempty"`
	Language     Language `toml:"language,omitempty"`
	CustomerName string   `toml:"customer_name,omitempty"`
	Token        string   `toml:"token,omitempty"`
	Profile      string   `toml:"-"`
}

// Dir returns the directory holding config files and the debug log.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot find home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

func configPath(profile string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	filename := configFile
	if profile != "" {
		filename = fmt.Sprintf("config-%s.toml", profile)
	}
	return filepath.Join(dir, filename), nil
}

func Load(profile string) (*Config, error) {
	path, err := configPath(profile)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{Profile: profile}, nil
		}
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Profile = profile
	return &cfg, nil
}

func (c *Config) Save() error {
	path, err := configPath(c.Profile)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// BaseURL resolves the chat API base: environment, then file, then default.
func (c *Config) BaseURL() string {
	if env := strings.TrimSpace(os.Getenv(ServerEnv)); env != "" {
		return strings.TrimRight(env, "/")
	}
	if c.Server != "" {
		return strings.TrimRight(c.Server, "/")
	}
	return DefaultServer
}

// Lang returns the configured language, English when unset or unknown.
func (c *Config) Lang() Language {
	lang, err := ParseLanguage(string(c.Language))
	if err != nil {
		return English
	}
	return lang
}

func (c *Config) profileFlag() string {
	if c.Profile == "" {
		return ""
	}
	return " --profile " + c.Profile
}

func (c *Config) Validate() error {
	pf := c.profileFlag()
	if err := ValidateServer(c.BaseURL()); err != nil {
		return fmt.Errorf("%v. Run: enquiry%s set server <url>", err, pf)
	}
	if c.Language != "" {
		if _, err := ParseLanguage(string(c.Language)); err != nil {
			return fmt.Errorf("%v. Run: enquiry%s set lang <en|gu>", err, pf)
		}
	}
	return nil
}

// ValidateServer checks that raw is an absolute http or https URL.
func ValidateServer(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server URL %q", raw)
	}
	return nil
}

func ListProfiles() ([]string, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config directory: %w", err)
	}
	var profiles []string
	for _, e := range entries {
		name := e.Name()
		if name == configFile {
			profiles = append(profiles, "default")
			continue
		}
		if strings.HasPrefix(name, "config-") && strings.HasSuffix(name, ".toml") {
			profiles = append(profiles, strings.TrimSuffix(strings.TrimPrefix(name, "config-"), ".toml"))
		}
	}
	return profiles, nil
}

func ProfileName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}
