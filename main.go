// kcapi - an interactive console for a plugin host's command tree.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/karasu256/kcapi/internal/audit"
	"github.com/karasu256/kcapi/internal/builtin"
	"github.com/karasu256/kcapi/internal/commands"
	"github.com/karasu256/kcapi/internal/config"
	"github.com/karasu256/kcapi/internal/logging"
	"github.com/karasu256/kcapi/internal/shell"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const usageText = `Usage: kcapi [flags] [command line]

With no command line, starts the interactive console. Otherwise runs the
given command once and exits.

Flags:
  -c, --config PATH   Read configuration from PATH
  -v, --verbose       Log at debug level
      --version       Print version information
  -h, --help          Show this help
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	flags, err := parseFlags(argv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n%s", err, usageText)
		return 2
	}
	switch {
	case flags.help:
		fmt.Print(usageText)
		return 0
	case flags.version:
		fmt.Printf("kcapi %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		return 0
	}

	cfg, path, err := loadConfig(flags.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	store := config.NewStore(cfg, path)

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closer.Close()
	if flags.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	var auditLog *audit.Log
	if cfg.Audit.Enabled {
		auditLog, err = audit.Open(cfg.Audit.Path)
		if err != nil {
			logger.WithError(err).Warn("audit log disabled")
		} else {
			defer auditLog.Close()
		}
	}

	stdoutTTY := shell.IsStdoutTTY()
	styles := shell.NewStyles(os.Stdout, shell.ColorProfile(cfg.Shell.Color, stdoutTTY))
	out, err := shell.NewConsoleOutput(os.Stdout, styles, stdoutTTY && cfg.Shell.Color != "never", shell.TerminalWidth())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	reg := newRegistry(cfg, logger, auditLog)
	sh := shell.New(reg, shell.Options{
		Prompt:       cfg.Shell.Prompt,
		HistoryFile:  cfg.Shell.HistoryFile,
		HistoryLimit: cfg.Shell.HistoryLimit,
		Sender:       shell.NewConsoleSender(cfg.Shell.SenderName),
		Output:       out,
		Styles:       styles,
		Logger:       logger,
	})

	apply := func(next *config.Config) {
		sh.SetPrompt(next.Shell.Prompt)
		if err := logging.SetLevel(logger, next.Log.Level); err != nil {
			logger.WithError(err).Warn("ignoring log level from config")
		}
		logger.Debug("config applied (dispatch and audit settings take effect on restart)")
	}

	err = builtin.Install(reg, builtin.Deps{
		Out:            out,
		Config:         store,
		Catalog:        builtin.NewCatalog(defaultPlugins()...),
		Audit:          auditLog,
		Logger:         logger,
		OnConfigChange: apply,
		Stop:           sh.Stop,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if len(flags.line) > 0 {
		handled, err := sh.Exec(joinArgs(flags.line))
		if err != nil || !handled {
			return 1
		}
		return 0
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if path != "" {
		go func() {
			err := config.Watch(ctx, path, func(next *config.Config, err error) {
				if err != nil {
					logger.WithError(err).Warn("config reload failed")
					return
				}
				store.Replace(next)
				apply(next)
				logger.WithField("path", path).Info("config reloaded")
			})
			if err != nil {
				logger.WithError(err).Warn("config watcher stopped")
			}
		}()
	}

	if err := sh.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// newRegistry builds the command registry with the middleware chain the
// config asks for. Recovery runs outermost so it also covers middleware.
func newRegistry(cfg *config.Config, logger *logrus.Logger, auditLog *audit.Log) *commands.Registry {
	mws := []commands.Middleware{
		commands.WithRecover(logger),
		commands.WithInvocationLogging(logger),
	}
	if auditLog != nil {
		mws = append(mws, audit.Middleware(auditLog, cfg.Audit.Keep, logger))
	}
	if cfg.Dispatch.CooldownRate > 0 {
		mws = append(mws, commands.WithCooldown(rate.Limit(cfg.Dispatch.CooldownRate), cfg.Dispatch.CooldownBurst))
	}

	return commands.NewRegistry(
		commands.WithRegistryLogger(logger),
		commands.WithPrefix(cfg.Dispatch.Prefix),
		commands.WithSuggestions(cfg.Dispatch.Suggest),
		commands.WithNormalization(cfg.Dispatch.Normalize),
		commands.WithMiddleware(mws...),
	)
}

func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		return config.Load()
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// defaultPlugins seeds the catalog shown by the plugin command.
func defaultPlugins() []builtin.Plugin {
	return []builtin.Plugin{
		{Name: "core", Version: Version, Description: "Built-in commands", Enabled: true},
		{Name: "economy", Version: "1.2.0", Description: "Balances and payments"},
		{Name: "worldguard", Version: "7.0.9", Description: "Region protection"},
	}
}

// =============================================================================
// FLAGS
// =============================================================================

type cliFlags struct {
	configPath string
	verbose    bool
	version    bool
	help       bool
	line       []string
}

// parseFlags reads leading flags; everything from the first non-flag
// argument on is the command line to run.
func parseFlags(args []string) (cliFlags, error) {
	var f cliFlags

	i := 0
	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			break
		}

		switch arg {
		case "--":
			i++
			f.line = args[i:]
			return f, nil
		case "-c", "--config":
			if i+1 >= len(args) {
				return f, errors.New(arg + " requires a path")
			}
			i++
			f.configPath = args[i]
		case "-v", "--verbose":
			f.verbose = true
		case "--version":
			f.version = true
		case "-h", "--help":
			f.help = true
		default:
			if strings.HasPrefix(arg, "--config=") {
				f.configPath = strings.TrimPrefix(arg, "--config=")
			} else {
				return f, fmt.Errorf("unknown flag: %s", arg)
			}
		}
		i++
	}

	f.line = args[i:]
	return f, nil
}

// joinArgs rebuilds a command line from already-split arguments, quoting
// the ones that would otherwise split again.
func joinArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		switch {
		case arg == "":
			quoted[i] = `""`
		case strings.ContainsAny(arg, " \t\"'"):
			quoted[i] = `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(arg) + `"`
		default:
			quoted[i] = arg
		}
	}
	return strings.Join(quoted, " ")
}
