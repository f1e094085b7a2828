package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/term"

	"github.com/target/elearn-admin/config"
	"github.com/target/elearn-admin/internal/apiclient"
	"github.com/target/elearn-admin/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

func main() {
	logger := bootstrap.InitLogger(config.LogConfig{}, os.Stderr)

	if len(os.Args) < 2 {
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}
	logger = bootstrap.InitLogger(cfg.Log, os.Stderr)

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"shell": {
			name:        "shell",
			description: "Start an interactive admin console session",
			run:         runShell,
		},
		"resources": {
			name:        "resources",
			description: "List the admin resources the console can manage",
			run:         runResources,
		},
	}
}

func printUsage() error {
	if err := writef(os.Stdout, "Usage: elearn-admin <command> [args]\n\n"); err != nil {
		return err
	}
	if err := writef(os.Stdout, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(os.Stdout, "  %-12s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

func runResources(_ *commandContext, _ []string) error {
	for _, res := range apiclient.Resources() {
		if err := writef(os.Stdout, "%s\n", res); err != nil {
			return err
		}
	}
	return nil
}

func runShell(cmdCtx *commandContext, _ []string) error {
	var redisClient redis.UniversalClient
	if cmdCtx.Config.Storage.Backend == config.MarkerBackendRedis {
		client, err := bootstrap.ConnectRedis(cmdCtx.Ctx, cmdCtx.Config.Redis, cmdCtx.Logger)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		redisClient = client
		defer func() {
			if closeErr := client.Close(); closeErr != nil {
				cmdCtx.Logger.Warn("redis close failed", "error", closeErr)
			}
		}()
	}

	sess, err := bootstrap.BuildSession(bootstrap.SessionConfig{
		Config:      cmdCtx.Config,
		RedisClient: redisClient,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return err
	}

	sh := &shell{
		session:      sess.Manager,
		api:          sess.API,
		in:           os.Stdin,
		out:          os.Stdout,
		readPassword: promptPassword,
	}
	return sh.run(cmdCtx.Ctx)
}

// promptPassword reads a password without echo when stdin is a terminal.
func promptPassword(out io.Writer) (string, error) {
	if err := writef(out, "Password: "); err != nil {
		return "", err
	}
	fd := int(syscall.Stdin) //nolint:unconvert // syscall.Stdin is not an int on every platform
	if !term.IsTerminal(fd) {
		return "", errNoTerminal
	}
	pwd, err := term.ReadPassword(fd)
	if writeErr := writef(out, "\n"); writeErr != nil && err == nil {
		err = writeErr
	}
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pwd), nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
