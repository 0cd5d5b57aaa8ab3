/*
 * task.go, part of goabinit.
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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rmera/goabinit/abio"
)

//Node is anything a task can depend on: another task, or a file that already exists.
type Node interface {
	//Status returns OK when the output files of the node can be used.
	Status() Status
	//OutputFile returns the path of the output file with the given extension (e.g. WFK, DDB).
	OutputFile(ext string) string
}

//FileNode is a file produced outside the flow. It is OK if the file exists.
type FileNode struct {
	Path string
}

func (F FileNode) Status() Status {
	if _, err := os.Stat(F.Path); err != nil {
		return Locked
	}
	return OK
}

//OutputFile returns the path of the file, whatever the extension.
func (F FileNode) OutputFile(ext string) string {
	return F.Path
}

//Dep is a dependency of a task: the output files with extensions Exts of Node are linked
//as indata/in_<ext> before the task starts.
type Dep struct {
	Node Node
	Exts []string
}

//TaskKind is the program a task runs.
type TaskKind int

const (
	AbinitTask TaskKind = iota
	AnaddbTask
)

func (K TaskKind) String() string {
	if K == AnaddbTask {
		return "anaddb"
	}
	return "abinit"
}

func parseTaskKind(s string) (TaskKind, error) {
	switch s {
	case "abinit":
		return AbinitTask, nil
	case "anaddb":
		return AnaddbTask, nil
	}
	return AbinitTask, fmt.Errorf("goAbinit/flow: unknown task kind %q", s)
}

//The ABINIT variables that make it read each kind of input file from indata.
var irdVars = map[string]string{
	"WFK": "irdwfk",
	"WFQ": "irdwfq",
	"DEN": "irdden",
	"1WF": "ird1wf",
	"DDK": "irdddk",
	"SCR": "irdscr",
}

//File names inside the directory of a task.
const (
	inputName  = "run.abi"
	outputName = "run.abo"
	logName    = "run.log"
	errName    = "run.err"
	indata     = "indata"
	outdata    = "outdata"
	tmpdata    = "tmpdata"
)

//Task is a run of ABINIT or anaddb in its own directory.
type Task struct {
	mu      sync.Mutex
	id      int
	name    string
	kind    TaskKind
	input   Input
	deps    []Dep
	workdir string
	status  Status
	history []string
	manager *Manager
	work    *Work
}

//NewAbinitTask returns a task that runs ABINIT with the given input.
func NewAbinitTask(input *AbinitInput, manager *Manager, deps ...Dep) *Task {
	return &Task{id: -1, kind: AbinitTask, input: input, deps: deps, manager: manager}
}

//NewAnaddbTask returns a task that runs anaddb on the DDB file produced by ddbNode
//(a Task, a Work or a FileNode).
func NewAnaddbTask(input *AnaddbInput, ddbNode Node, manager *Manager) *Task {
	return &Task{id: -1, kind: AnaddbTask, input: input, deps: []Dep{{ddbNode, []string{"DDB"}}}, manager: manager}
}

//ID returns the index of the task in its flow, -1 if it has not been allocated.
func (T *Task) ID() int { return T.id }

//Name returns a name for the task, w<i>_t<j> once allocated.
func (T *Task) Name() string {
	if T.name == "" {
		return fmt.Sprintf("task%d", T.id)
	}
	return T.name
}

func (T *Task) Kind() TaskKind { return T.kind }

//Input returns the input of the task. It is nil for tasks in a flow read with LoadFlow.
func (T *Task) Input() Input { return T.input }

func (T *Task) Deps() []Dep { return T.deps }

//AddDeps adds dependencies to the task.
func (T *Task) AddDeps(deps ...Dep) {
	T.deps = append(T.deps, deps...)
}

//Work returns the work the task belongs to, or nil.
func (T *Task) Work() *Work { return T.work }

func (T *Task) Workdir() string { return T.workdir }
func (T *Task) Indir() string   { return filepath.Join(T.workdir, indata) }
func (T *Task) Outdir() string  { return filepath.Join(T.workdir, outdata) }
func (T *Task) Tmpdir() string  { return filepath.Join(T.workdir, tmpdata) }

func (T *Task) InputPath() string  { return filepath.Join(T.workdir, inputName) }
func (T *Task) OutputPath() string { return filepath.Join(T.workdir, outputName) }
func (T *Task) LogPath() string    { return filepath.Join(T.workdir, logName) }
func (T *Task) ErrPath() string    { return filepath.Join(T.workdir, errName) }

//OutputFile returns the path of the output file with extension ext, outdata/out_<ext>.
func (T *Task) OutputFile(ext string) string {
	return filepath.Join(T.Outdir(), "out_"+ext)
}

func (T *Task) Status() Status {
	T.mu.Lock()
	defer T.mu.Unlock()
	return T.status
}

//SetStatus changes the status of the task and records the change, with msg, in its history.
func (T *Task) SetStatus(s Status, msg string) {
	T.mu.Lock()
	old := T.status
	T.status = s
	entry := fmt.Sprintf("%s %s -> %s", clock.Now().Format(time.RFC3339), old, s)
	if msg != "" {
		entry += ": " + msg
	}
	T.history = append(T.history, entry)
	T.mu.Unlock()
	if old != s {
		T.manager.logger().Debug("task status changed", "task", T.Name(), "from", old.String(), "to", s.String(), "msg", msg)
	}
}

//History returns the status changes of the task.
func (T *Task) History() []string {
	T.mu.Lock()
	defer T.mu.Unlock()
	return append([]string(nil), T.history...)
}

func (T *Task) depsOK() bool {
	for _, d := range T.deps {
		if d.Node.Status() != OK {
			return false
		}
	}
	return true
}

//inputText returns the input file, with the variables that tell the program where
//to find its input files and where to write its output.
func (T *Task) inputText() (string, error) {
	if T.input == nil {
		return "", ErrNoInput
	}
	var extra vars
	switch T.kind {
	case AbinitTask:
		extra.set("indata_prefix", indata+"/in")
		extra.set("outdata_prefix", outdata+"/out")
		extra.set("tmpdata_prefix", tmpdata+"/tmp")
		extra.set("output_file", outputName)
		for _, d := range T.deps {
			for _, ext := range d.Exts {
				if v, ok := irdVars[ext]; ok {
					extra.set(v, 1)
				}
			}
		}
	case AnaddbTask:
		extra.set("ddb_filepath", indata+"/in_DDB")
		extra.set("outdata_prefix", outdata+"/out")
		extra.set("output_file", outputName)
	}
	var b strings.Builder
	b.WriteString(T.input.String())
	b.WriteString("\n# Files and dependencies\n")
	extra.write(&b, "")
	return b.String(), nil
}

//Build creates the directories of the task and writes its input file. The task must
//have been allocated. If the task has no input, the existing input file is kept.
func (T *Task) Build() error {
	if T.workdir == "" {
		return fmt.Errorf("%w: task %s has no directory", ErrNotAllocated, T.Name())
	}
	for _, d := range []string{T.workdir, T.Indir(), T.Outdir(), T.Tmpdir()} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	text, err := T.inputText()
	if errors.Is(err, ErrNoInput) {
		if _, serr := os.Stat(T.InputPath()); serr == nil {
			return nil
		}
	}
	if err != nil {
		return fmt.Errorf("task %s: %w", T.Name(), err)
	}
	return os.WriteFile(T.InputPath(), []byte(text), 0o644)
}

//linkDeps links the output files of the dependencies into indata.
func (T *Task) linkDeps() error {
	if err := os.MkdirAll(T.Indir(), 0o755); err != nil {
		return err
	}
	for _, d := range T.deps {
		for _, ext := range d.Exts {
			src, err := filepath.Abs(d.Node.OutputFile(ext))
			if err != nil {
				return err
			}
			if _, err := os.Stat(src); err != nil {
				return fmt.Errorf("goAbinit/flow: dependency of %s: %w", T.Name(), err)
			}
			dst := filepath.Join(T.Indir(), "in_"+ext)
			if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
				return err
			}
			if err := os.Symlink(src, dst); err != nil {
				return err
			}
		}
	}
	return nil
}

//Job returns the job that runs the task.
func (T *Task) Job() Job {
	program := T.manager.Abinit
	if T.kind == AnaddbTask {
		program = T.manager.Anaddb
	}
	return Job{
		Name:   T.Name(),
		Dir:    T.workdir,
		Args:   append(T.manager.Command(program), inputName),
		Stdout: logName,
		Stderr: errName,
		Env:    T.manager.Env(),
		PreRun: T.manager.PreRun,
	}
}

//StartAndWait runs the task and waits for it to finish. The task is left in Done
//status, or Error if the program could not be run. CheckStatus tells if the calculation
//actually succeeded.
func (T *Task) StartAndWait(ctx context.Context) error {
	if T.workdir == "" {
		return fmt.Errorf("%w: task %s has no directory", ErrNotAllocated, T.Name())
	}
	if st := T.CheckStatus(); st != Ready && st != Submitted {
		return fmt.Errorf("%w: task %s is %s", ErrNotReady, T.Name(), st)
	}
	if _, err := os.Stat(T.InputPath()); err != nil {
		if err := T.Build(); err != nil {
			T.SetStatus(Error, err.Error())
			return err
		}
	}
	if err := T.linkDeps(); err != nil {
		T.SetStatus(Error, err.Error())
		return err
	}
	if err := ctx.Err(); err != nil {
		T.SetStatus(Init, "interrupted before start")
		return err
	}
	T.SetStatus(Running, "")
	if err := T.manager.Launcher.Run(ctx, T.Job()); err != nil {
		if ctx.Err() != nil {
			T.SetStatus(Init, "interrupted: "+err.Error())
			return err
		}
		T.SetStatus(Error, err.Error())
		return err
	}
	T.SetStatus(Done, "")
	return nil
}

//reset takes a task that was submitted or running when the flow was saved back to
//Init, or to Done if its output says the calculation completed.
func (T *Task) reset() {
	if R, err := T.Events(); err == nil && R.Completed {
		T.SetStatus(Done, "finished while the flow was not running")
		return
	}
	T.SetStatus(Init, "reset after reload")
}

//Events returns the events in the output file of the task and, if it exists, in its log.
func (T *Task) Events() (*abio.EventReport, error) {
	abo, err := abio.Open(T.OutputPath())
	if err != nil {
		return nil, err
	}
	defer abo.Close()
	R, err := abo.Events()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(T.LogPath())
	if err != nil {
		return R, nil
	}
	defer f.Close()
	L, err := abio.ParseEvents(f)
	if err != nil {
		return nil, err
	}
	//The output already has the warnings, the log may have errors the output didn't get to print.
	for _, e := range L.Errors {
		if !hasEvent(R.Errors, e) {
			R.Errors = append(R.Errors, e)
		}
	}
	return R, nil
}

func hasEvent(list []abio.Event, e abio.Event) bool {
	for _, v := range list {
		if v == e {
			return true
		}
	}
	return false
}

//CheckStatus updates the status of the task and returns it. Tasks that have not started
//become Ready or Locked, depending on their dependencies. Finished tasks (Done) become OK,
//Unconverged, AbiCritical or Error depending on the events in their output.
func (T *Task) CheckStatus() Status {
	st := T.Status()
	switch {
	case st.IsTerminal(), st == Submitted, st == Running:
		return st
	case st == Done:
		R, err := T.Events()
		switch {
		case err != nil:
			T.SetStatus(Error, err.Error())
		case R.Critical():
			T.SetStatus(AbiCritical, R.Errors[0].String())
		case !R.Completed:
			T.SetStatus(Error, "calculation not completed")
		case R.Unconverged():
			T.SetStatus(Unconverged, "")
		default:
			T.SetStatus(OK, "")
		}
	default:
		if T.depsOK() {
			if st != Ready {
				T.SetStatus(Ready, "")
			}
		} else if st != Locked {
			T.SetStatus(Locked, "")
		}
	}
	return T.Status()
}

func (T *Task) String() string {
	return fmt.Sprintf("%s %s (%s) in %s", T.kind, T.Name(), T.Status(), T.workdir)
}
