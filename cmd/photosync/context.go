package main

import (
	"log/slog"
	"strings"
	"sync"

	"photosync/internal/account"
	"photosync/internal/config"
	"photosync/internal/logging"
)

type commandContext struct {
	configFlag    *string
	logFormatFlag *string
	verbosity     *int

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, logFormatFlag *string, verbosity *int) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		logFormatFlag: logFormatFlag,
		verbosity:     verbosity,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg := c.configValue()
		if cfg == nil {
			c.logger = logging.NewNop()
			return
		}
		verbosity := 0
		if c.verbosity != nil {
			verbosity = *c.verbosity
		}
		format := cfg.Logging.Format
		if c.logFormatFlag != nil && strings.TrimSpace(*c.logFormatFlag) != "" {
			format = strings.TrimSpace(*c.logFormatFlag)
		}
		logger, err := logging.NewForVerbosity(verbosity, format, cfg.Paths.LogDir)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) accountStore() *account.Store {
	return account.NewStore(c.configValue().UsersDir())
}
