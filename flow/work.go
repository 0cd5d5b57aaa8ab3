/*
 * work.go, part of goabinit.
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
	"os"
	"path/filepath"
	"sync"
)

//WorkKind tells what a work does once all its tasks are OK.
type WorkKind int

const (
	//PlainWork does nothing.
	PlainWork WorkKind = iota
	//PhononWork merges the DDB files of its tasks into outdata/out_DDB.
	PhononWork
)

func (K WorkKind) String() string {
	if K == PhononWork {
		return "phonon"
	}
	return "work"
}

func parseWorkKind(s string) (WorkKind, error) {
	switch s {
	case "work":
		return PlainWork, nil
	case "phonon":
		return PhononWork, nil
	}
	return PlainWork, fmt.Errorf("goAbinit/flow: unknown work kind %q", s)
}

//Work is a list of tasks that share a directory. Once all the tasks are OK, the
//work is finalized, which, for a PhononWork, means merging their DDB files.
type Work struct {
	mu        sync.Mutex
	index     int
	kind      WorkKind
	workdir   string
	tasks     []*Task
	manager   *Manager
	finalized bool
	onAllOK   func(ctx context.Context, W *Work) error
}

//NewWork returns an empty work.
func NewWork(manager *Manager) *Work {
	return &Work{index: -1, kind: PlainWork, manager: manager}
}

//NewPhononWork returns an empty work that merges the DDB files of its tasks when they are all OK.
func NewPhononWork(manager *Manager) *Work {
	W := NewWork(manager)
	W.kind = PhononWork
	W.onAllOK = mergeTaskDDBs
	return W
}

func (W *Work) Kind() WorkKind { return W.kind }

//SetOnAllOK sets a function that is called once, when all the tasks of the work are OK.
//It replaces the default (if any) of the work.
func (W *Work) SetOnAllOK(f func(ctx context.Context, W *Work) error) {
	W.onAllOK = f
}

//RegisterTask adds T to the work and returns it. If T has no manager, it gets the one of the work.
func (W *Work) RegisterTask(T *Task) *Task {
	T.work = W
	if T.manager == nil {
		T.manager = W.manager
	}
	W.tasks = append(W.tasks, T)
	return T
}

//Register adds an ABINIT task with the given input and dependencies to the work.
func (W *Work) Register(input *AbinitInput, deps ...Dep) *Task {
	return W.RegisterTask(NewAbinitTask(input, W.manager, deps...))
}

func (W *Work) Tasks() []*Task { return W.tasks }
func (W *Work) Len() int       { return len(W.tasks) }

//Task returns the i-th task of the work.
func (W *Work) Task(i int) *Task { return W.tasks[i] }

func (W *Work) Workdir() string { return W.workdir }
func (W *Work) Indir() string   { return filepath.Join(W.workdir, indata) }
func (W *Work) Outdir() string  { return filepath.Join(W.workdir, outdata) }

//OutputFile returns the path of the output file of the work with extension ext.
func (W *Work) OutputFile(ext string) string {
	return filepath.Join(W.Outdir(), "out_"+ext)
}

//Status returns the lowest status of the tasks. A work whose tasks are all OK
//is Done until it is finalized.
func (W *Work) Status() Status {
	if len(W.tasks) == 0 {
		return Init
	}
	ret := Error
	for _, t := range W.tasks {
		ret = min(ret, t.Status())
	}
	if ret == OK && !W.Finalized() {
		return Done
	}
	return ret
}

//AllOK returns true if all the tasks of the work are OK.
func (W *Work) AllOK() bool {
	for _, t := range W.tasks {
		if t.Status() != OK {
			return false
		}
	}
	return len(W.tasks) > 0
}

//Finalized returns true once all the tasks are OK and the work did what it does at the end.
func (W *Work) Finalized() bool {
	W.mu.Lock()
	defer W.mu.Unlock()
	return W.finalized
}

//allocate sets the directories and the ids of the tasks. It returns the next free id.
func (W *Work) allocate(workdir string, index, firstID int) int {
	W.workdir = workdir
	W.index = index
	for j, t := range W.tasks {
		t.workdir = filepath.Join(workdir, fmt.Sprintf("t%d", j))
		t.id = firstID + j
		t.name = fmt.Sprintf("w%d_t%d", index, j)
	}
	return firstID + len(W.tasks)
}

//Build creates the directories of the work and of its tasks.
func (W *Work) Build() error {
	if W.workdir == "" {
		return ErrNotAllocated
	}
	for _, d := range []string{W.workdir, W.Indir(), W.Outdir()} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	for _, t := range W.tasks {
		if err := t.Build(); err != nil {
			return err
		}
	}
	return nil
}

//CheckStatus checks all the tasks, and finalizes the work if they are all OK.
func (W *Work) CheckStatus(ctx context.Context) (Status, error) {
	for _, t := range W.tasks {
		t.CheckStatus()
	}
	if W.AllOK() && !W.Finalized() {
		if err := W.finalize(ctx); err != nil {
			return W.Status(), err
		}
	}
	return W.Status(), nil
}

func (W *Work) finalize(ctx context.Context) error {
	if W.onAllOK != nil {
		if err := W.onAllOK(ctx, W); err != nil {
			return fmt.Errorf("goAbinit/flow: finalizing work %d: %w", W.index, err)
		}
	}
	W.mu.Lock()
	W.finalized = true
	W.mu.Unlock()
	W.manager.logger().Info("work finalized", "work", W.index, "kind", W.kind.String())
	return nil
}

//mergeTaskDDBs merges the DDB files of the tasks into the output DDB of the work.
func mergeTaskDDBs(ctx context.Context, W *Work) error {
	var paths []string
	for _, t := range W.tasks {
		p := t.OutputFile("DDB")
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("goAbinit/flow: no DDB files in the tasks of work %d", W.index)
	}
	if err := os.MkdirAll(W.Outdir(), 0o755); err != nil {
		return err
	}
	desc := fmt.Sprintf("DDB merged from the %d tasks of work %d", len(paths), W.index)
	_, err := W.manager.MergeDDBs(ctx, paths, W.OutputFile("DDB"), desc, W.workdir)
	return err
}
