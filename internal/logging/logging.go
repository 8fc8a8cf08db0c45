// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the logrus logger that is injected into the
// command registry, the routers and the shell.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/karasu256/kcapi/internal/config"
)

// nopCloser is returned when output goes to a stream we do not own.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a logger from cfg. The returned closer releases the log file,
// if one was opened; it is always safe to call.
func New(cfg config.LogConfig) (*logrus.Logger, io.Closer, error) {
	return NewWithOutput(cfg, os.Stderr)
}

// NewWithOutput is New with the fallback stream supplied by the caller.
// cfg.File, when set, takes precedence over fallback.
func NewWithOutput(cfg config.LogConfig, fallback io.Writer) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()
	logger.SetOutput(fallback)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.SetLevel(logrus.WarnLevel)
		logger.Warnf("invalid log level %s, defaulting to warn", cfg.Level)
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0700); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.SetOutput(f)
		closer = f
	}

	return logger, closer, nil
}

// SetLevel applies a level name to an existing logger, used when the config
// file is reloaded. Invalid names leave the level unchanged.
func SetLevel(logger *logrus.Logger, name string) error {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	return nil
}
