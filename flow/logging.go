/*
 * logging.go, part of goabinit.
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

package flow

import (
	"context"
	"log/slog"
)

type ctxKey string

//ctxLogger is the context key of the logger.
const ctxLogger ctxKey = "logger"

//WithLogger returns a context that carries logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLogger, logger)
}

//FromContext returns the logger in ctx, or the default one.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxLogger).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

//WithFlow returns a logger that adds the uid of the flow to each record.
func WithFlow(logger *slog.Logger, F *Flow) *slog.Logger {
	return logger.With("flow", F.UID())
}

//WithTask returns a logger that adds the name of the task to each record.
func WithTask(logger *slog.Logger, T *Task) *slog.Logger {
	return logger.With("task", T.Name())
}
