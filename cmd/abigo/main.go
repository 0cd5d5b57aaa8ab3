/*
 * main.go, part of goabinit.
 *
 *
 * Copyright 2024 Raul Mera <rmeraatusachdotcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//abigo is the command line interface to goAbinit: it plots ABINIT results, merges DDB
//files, runs phonon flows and browses calculation directories.
//
//Usage:
//
//	abigo <command> [flags]
//
//The log level and format are taken from ABIGO_LOG_LEVEL (DEBUG, INFO, WARN, ERROR)
//and ABIGO_LOG_FORMAT (text or json).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rmera/goabinit/flow"
	"github.com/spf13/cobra"
)

//set with ldflags.
var version = "dev"

func logLevel() slog.Level {
	switch os.Getenv("ABIGO_LOG_LEVEL") {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

//setupLogger builds the global logger. Logs go to stderr, so they don't mix
//with the tables and summaries the commands print.
func setupLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     logLevel(),
		AddSource: logLevel() == slog.LevelDebug,
	}
	var handler slog.Handler
	if os.Getenv("ABIGO_LOG_FORMAT") == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "abigo",
		Short:         "Tools for ABINIT calculations",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newScfCmd(),
		newTimerCmd(),
		newFatbandsCmd(),
		newDDBCmd(),
		newFlowCmd(),
		newBrowseCmd(),
		newSourceCmd(),
	)
	return root
}

func main() {
	logger := setupLogger()
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = flow.WithLogger(ctx, logger)
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
