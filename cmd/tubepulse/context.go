package main

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"tubepulse/internal/builder"
	"tubepulse/internal/config"
	"tubepulse/internal/guard"
	"tubepulse/internal/logging"
	"tubepulse/internal/refresh"
	"tubepulse/internal/sources"
	"tubepulse/internal/store"
	"tubepulse/internal/youtube"
)

var errNoTracked = errors.New("no tracked videos configured (add [[tracked]] entries or set sources.tracked_path)")

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	store store.Store
	stdin *bufio.Reader
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
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

// ensureLogger builds the configured logger, falling back to a no-op
// logger when the log file cannot be opened.
func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) openStore() (store.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg, c.ensureLogger())
	if err != nil {
		return nil, err
	}
	c.store = st
	return st, nil
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
	}
}

func (c *commandContext) newRunner() (*refresh.Runner, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	st, err := c.openStore()
	if err != nil {
		return nil, err
	}
	logger := c.ensureLogger()
	return refresh.NewRunner(st, guard.New(cfg.Storage.GuardPath, logger), cfg.Storage.LockPath, logger), nil
}

// newClient creates the YouTube client. A missing API key surfaces as a
// configuration error.
func (c *commandContext) newClient(ctx context.Context) (*youtube.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return youtube.New(ctx, youtube.Options{
		APIKey:            cfg.YouTube.APIKey,
		BaseURL:           cfg.YouTube.BaseURL,
		RequestsPerSecond: cfg.YouTube.RequestsPerSecond,
		Timeout:           cfg.RequestTimeout(),
	}, c.ensureLogger())
}

func (c *commandContext) fixedBuilder(ctx context.Context) (builder.Builder, error) {
	client, err := c.newClient(ctx)
	if err != nil {
		return nil, err
	}
	cfg := c.config
	tracked := sources.Tracked(cfg, c.ensureLogger())
	if len(tracked) == 0 {
		return nil, errNoTracked
	}
	return builder.NewFixed(client, tracked, c.ensureLogger()), nil
}

func (c *commandContext) discoveryBuilder(ctx context.Context) (builder.Builder, error) {
	client, err := c.newClient(ctx)
	if err != nil {
		return nil, err
	}
	cfg := c.config
	logger := c.ensureLogger()
	return builder.NewDiscovery(client, builder.DiscoveryOptions{
		Channels:      sources.LoadChannels(cfg.Sources.ChannelsPath, logger),
		Keywords:      sources.LoadKeywords(cfg.Sources.KeywordsPath, logger),
		MaxPerChannel: cfg.YouTube.MaxPerChannel,
		MaxPerKeyword: cfg.YouTube.MaxPerKeyword,
	}, logger), nil
}

func (c *commandContext) manualBuilder(cmd *cobra.Command) (builder.Builder, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	tracked := sources.Tracked(cfg, c.ensureLogger())
	if len(tracked) == 0 {
		return nil, errNoTracked
	}
	return builder.NewManual(tracked, c.input(cmd), cmd.OutOrStdout(), c.ensureLogger()), nil
}

// input returns one buffered reader over stdin shared by the menu loop and
// the manual capture prompts.
func (c *commandContext) input(cmd *cobra.Command) *bufio.Reader {
	if c.stdin == nil {
		c.stdin = bufio.NewReader(cmd.InOrStdin())
	}
	return c.stdin
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
