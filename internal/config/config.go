package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CacheDir   string `toml:"cache_dir"`
	LibraryDir string `toml:"library_dir"`
	LogDir     string `toml:"log_dir"`
}

// Google contains OAuth client configuration for the Photos API.
type Google struct {
	CredentialsFile string   `toml:"credentials_file"`
	ClientID        string   `toml:"client_id"`
	ClientSecret    string   `toml:"client_secret"`
	RedirectURI     string   `toml:"redirect_uri"`
	AuthURL         string   `toml:"auth_url"`
	TokenURL        string   `toml:"token_url"`
	APIBaseURL      string   `toml:"api_base_url"`
	Scopes          []string `toml:"scopes"`
}

// Sync contains tuning for the synchronization pipeline.
type Sync struct {
	FetchSize     int  `toml:"fetch_size"`
	MaxRetries    int  `toml:"max_retries"`
	MaxDownloads  int  `toml:"max_downloads"`
	KeepDownloads bool `toml:"keep_downloads"`
	CaseSensitive bool `toml:"case_sensitive"`
}

// Workflow contains timing for operations that wait on external processes.
type Workflow struct {
	PollInterval         int `toml:"poll_interval"`
	ImportTimeout        int `toml:"import_timeout"`
	ListTimeout          int `toml:"list_timeout"`
	RequestTimeoutSecond int `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for photosync.
//
// Sections by subsystem:
//   - Paths: cache, library, and log directories
//   - Google: OAuth client identity and Photos API endpoints
//   - Sync: page sizes, retry/download caps, filename matching policy
//   - Workflow: polling intervals and external-process wait bounds
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Google   Google   `toml:"google"`
	Sync     Sync     `toml:"sync"`
	Workflow Workflow `toml:"workflow"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/photosync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("photosync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache and log directories. The library
// directory is owned by the Photos application and is never created here.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.UsersDir(), c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// UsersDir returns the directory holding one cache subdirectory per account.
func (c *Config) UsersDir() string {
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.CacheDir, "users")
}

// CredentialsCachePath returns the location of the cached OAuth client
// credentials file inside the cache directory.
func (c *Config) CredentialsCachePath() string {
	return filepath.Join(c.Paths.CacheDir, "credentials.json")
}

// SampleConfig returns the embedded sample configuration text.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the embedded sample configuration to path.
func CreateSample(path string) error {
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// ExpandPath resolves "~" prefixes and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
