package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeGoogle(); err != nil {
		return err
	}
	c.normalizeSync()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = ExpandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		c.Paths.LibraryDir = defaultLibraryDir
	}
	if c.Paths.LibraryDir, err = ExpandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Google.CredentialsFile) != "" {
		if c.Google.CredentialsFile, err = ExpandPath(c.Google.CredentialsFile); err != nil {
			return fmt.Errorf("google.credentials_file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeGoogle() error {
	if c.Google.ClientID == "" {
		if value, ok := os.LookupEnv("PHOTOSYNC_CLIENT_ID"); ok {
			c.Google.ClientID = value
		}
	}
	if c.Google.ClientSecret == "" {
		if value, ok := os.LookupEnv("PHOTOSYNC_CLIENT_SECRET"); ok {
			c.Google.ClientSecret = value
		}
	}
	c.Google.AuthURL = strings.TrimSpace(c.Google.AuthURL)
	if c.Google.AuthURL == "" {
		c.Google.AuthURL = defaultAuthURL
	}
	c.Google.TokenURL = strings.TrimSpace(c.Google.TokenURL)
	if c.Google.TokenURL == "" {
		c.Google.TokenURL = defaultTokenURL
	}
	c.Google.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Google.APIBaseURL), "/")
	if c.Google.APIBaseURL == "" {
		c.Google.APIBaseURL = defaultAPIBaseURL
	}
	if len(c.Google.Scopes) == 0 {
		c.Google.Scopes = []string{defaultScope}
	}
	return nil
}

func (c *Config) normalizeSync() {
	if c.Sync.FetchSize <= 0 {
		c.Sync.FetchSize = defaultFetchSize
	}
	if c.Sync.MaxRetries < 0 {
		c.Sync.MaxRetries = 0
	}
	if c.Sync.MaxDownloads == 0 {
		c.Sync.MaxDownloads = defaultMaxDownloads
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.PollInterval <= 0 {
		c.Workflow.PollInterval = defaultPollInterval
	}
	if c.Workflow.ImportTimeout <= 0 {
		c.Workflow.ImportTimeout = defaultImportTimeout
	}
	if c.Workflow.ListTimeout <= 0 {
		c.Workflow.ListTimeout = defaultListTimeout
	}
	if c.Workflow.RequestTimeoutSecond <= 0 {
		c.Workflow.RequestTimeoutSecond = defaultRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
