package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.CacheDir == "" {
		return errors.New("paths.cache_dir must be set")
	}
	if c.Paths.LibraryDir == "" {
		return errors.New("paths.library_dir must be set")
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.FetchSize > 100 {
		return fmt.Errorf("sync.fetch_size must be at most 100 (API page size limit), got %d", c.Sync.FetchSize)
	}
	if c.Sync.MaxRetries > 10 {
		return fmt.Errorf("sync.max_retries must be at most 10, got %d", c.Sync.MaxRetries)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
