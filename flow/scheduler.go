/*
 * scheduler.go, part of goabinit.
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
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

//Scheduler runs a flow: it polls the status of the tasks every Interval and launches
//the ready ones, at most MaxJobs at the same time.
type Scheduler struct {
	Flow     *Flow
	Clock    clockwork.Clock
	Interval time.Duration
	MaxJobs  int
	Metrics  *Metrics //can be nil.
	Logger   *slog.Logger
	finished map[*Task]bool
}

//NewScheduler returns a scheduler for F with the poll interval and number of jobs of its manager.
func NewScheduler(F *Flow) *Scheduler {
	return &Scheduler{
		Flow:     F,
		Clock:    clockwork.NewRealClock(),
		Interval: F.manager.PollInterval,
		MaxJobs:  F.manager.MaxJobs,
	}
}

//Run runs the flow until all its tasks reach a final status, and saves it. It
//returns ErrStalled if some tasks can never start (because a dependency failed),
//and nil otherwise, even if some tasks failed. Use AllOK on the flow to check.
//If ctx is cancelled, Run waits for the running tasks to stop, saves the flow and
//returns the error of ctx. The interrupted tasks go back to Init.
func (S *Scheduler) Run(ctx context.Context) (err error) {
	F := S.Flow
	if !F.allocated {
		return ErrNotAllocated
	}
	logger := S.Logger
	if logger == nil {
		logger = FromContext(ctx)
	}
	logger = WithFlow(logger, F)
	clk := S.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	interval := S.Interval
	if interval <= 0 {
		interval = time.Second
	}
	S.finished = make(map[*Task]bool)
	if S.Metrics != nil {
		S.Metrics.FlowsRunning.Inc()
		defer S.Metrics.FlowsRunning.Dec()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, S.MaxJobs))
	defer func() {
		g.Wait()
		if derr := F.Dump(); derr != nil && err == nil {
			err = derr
		}
	}()
	order, err := F.Order()
	if err != nil {
		return err
	}
	logger.Info("running flow", "workdir", F.Workdir(), "ntasks", len(order), "max_jobs", S.MaxJobs)
	for {
		if err := F.CheckStatus(ctx); err != nil {
			return err
		}
		var ready []*Task
		busy, pending := 0, 0
		for _, t := range order {
			st := t.Status()
			switch {
			case st == Ready:
				ready = append(ready, t)
			case st == Submitted, st == Running, st == Done:
				busy++
			case st.IsTerminal():
				S.countFinished(t, st)
				continue
			}
			pending++
		}
		if pending == 0 {
			logger.Info("flow completed", "status", F.Status().String(), "all_ok", F.AllOK())
			return nil
		}
		launched := 0
		for _, t := range ready {
			t.SetStatus(Submitted, "")
			if !g.TryGo(func() error {
				S.run(gctx, t, clk, WithTask(logger, t))
				return nil
			}) {
				t.SetStatus(Ready, "waiting for a free job slot")
				break
			}
			launched++
		}
		if busy == 0 && launched == 0 {
			return fmt.Errorf("%w: %d tasks are waiting for dependencies that failed", ErrStalled, pending)
		}
		if err := F.Dump(); err != nil {
			logger.Warn("cannot save the flow", "error", err)
		}
		select {
		case <-ctx.Done():
			logger.Warn("flow interrupted", "error", ctx.Err())
			return ctx.Err()
		case <-clk.After(interval):
		}
	}
}

func (S *Scheduler) run(ctx context.Context, t *Task, clk clockwork.Clock, logger *slog.Logger) {
	if S.Metrics != nil {
		S.Metrics.TasksLaunched.Inc()
		S.Metrics.TasksRunning.Inc()
		defer S.Metrics.TasksRunning.Dec()
	}
	start := clk.Now()
	logger.Info("starting task", "dir", t.Workdir())
	err := t.StartAndWait(ctx)
	elapsed := clk.Since(start)
	if S.Metrics != nil {
		S.Metrics.TaskDuration.WithLabelValues(t.Kind().String()).Observe(elapsed.Seconds())
	}
	if err != nil {
		logger.Error("task failed", "error", err, "elapsed", elapsed)
		return
	}
	logger.Info("task finished", "elapsed", elapsed)
}

func (S *Scheduler) countFinished(t *Task, st Status) {
	if S.finished[t] {
		return
	}
	S.finished[t] = true
	if S.Metrics != nil {
		S.Metrics.TasksFinished.WithLabelValues(st.String()).Inc()
	}
}
