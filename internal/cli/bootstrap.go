// Package cli provides CLI commands for the plantcare application.
package cli

import (
	gocontext "context"
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/example/plantcare/internal/config"
	"github.com/example/plantcare/internal/ctxutil"
	"github.com/example/plantcare/internal/logger"
	"github.com/example/plantcare/internal/wire"
)

// ActorEnv overrides the actor recorded on activities entered from the CLI.
const ActorEnv = "PLANTCARE_USER"

var (
	// configPath is bound to the global --config flag.
	configPath string

	// globalActorID stores the detected actor ID for the current CLI invocation.
	globalActorID string
)

// BindGlobalFlags registers the flags every command shares and the actor
// detection hook.
func BindGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (env PLANTCARE_* overrides apply)")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		DetectAndStoreActor()
	}
}

// DetectAndStoreActor records who is running the CLI: $PLANTCARE_USER, else
// the OS user name.
func DetectAndStoreActor() {
	if v := os.Getenv(ActorEnv); v != "" {
		globalActorID = v
		return
	}
	if u, err := user.Current(); err == nil {
		globalActorID = u.Username
	}
}

// NewContext creates a context.Background() with the current actor ID embedded.
// CLI commands should use this instead of context.Background() directly.
func NewContext() gocontext.Context {
	ctx := gocontext.Background()
	if globalActorID != "" {
		return ctxutil.WithActorID(ctx, globalActorID)
	}
	return ctx
}

// loadConfig reads --config, else ~/.plantcare/config.yaml when it exists,
// else defaults and environment only.
func loadConfig() (*config.Config, *logger.Logger, error) {
	path := configPath
	if path == "" {
		if p, err := config.DefaultConfigPath(); err == nil {
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}

// withContainer wires the application for one command, runs fn and closes
// the database afterwards.
func withContainer(mode wire.Mode, fn func(ctx gocontext.Context, c *wire.Container) error) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	c, err := wire.New(cfg, log, mode)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer c.Close()

	return fn(NewContext(), c)
}
