package main

import (
	"context"
	"strings"
	"sync"

	"voice-qa-go/internal/app"
	"voice-qa-go/internal/config"
	"voice-qa-go/internal/history"
	"voice-qa-go/internal/logger"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	log        *logger.Logger
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, *logger.Logger, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.log = cfg.Logger().WithComponent("cli")
	})
	return c.config, c.log, c.configErr
}

func (c *commandContext) withApp(ctx context.Context, fn func(*app.App) error) error {
	cfg, log, err := c.ensureConfig()
	if err != nil {
		return err
	}
	a, closeApp, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = closeApp() }()
	return fn(a)
}

func (c *commandContext) withHistory(ctx context.Context, fn func(*history.Store) error) error {
	cfg, _, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(ctx, cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
