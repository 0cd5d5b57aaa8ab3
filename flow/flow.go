/*
 * flow.go, part of goabinit.
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
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
)

//DumpName is the file, in the directory of the flow, where the flow is saved.
const DumpName = "__AbinitFlow__.json"

//Flow is a list of works that run in subdirectories w0, w1... of its directory.
type Flow struct {
	uid       uuid.UUID
	workdir   string
	manager   *Manager
	works     []*Work
	allocated bool
}

//NewFlow returns an empty flow that will run in workdir.
func NewFlow(workdir string, manager *Manager) (*Flow, error) {
	abs, err := filepath.Abs(workdir)
	if err != nil {
		return nil, err
	}
	if manager == nil {
		return nil, fmt.Errorf("goAbinit/flow: nil manager")
	}
	return &Flow{uid: uuid.New(), workdir: abs, manager: manager}, nil
}

//UID returns the unique identifier of the flow.
func (F *Flow) UID() string { return F.uid.String() }

func (F *Flow) Manager() *Manager { return F.manager }
func (F *Flow) Workdir() string   { return F.workdir }
func (F *Flow) Indir() string     { return filepath.Join(F.workdir, indata) }
func (F *Flow) Outdir() string    { return filepath.Join(F.workdir, outdata) }
func (F *Flow) Tmpdir() string    { return filepath.Join(F.workdir, tmpdata) }

//RegisterWork adds W to the flow and returns it. If W has no manager, it gets the one
//of the flow. The flow has to be allocated again before building it.
func (F *Flow) RegisterWork(W *Work) *Work {
	if W.manager == nil {
		W.manager = F.manager
	}
	for _, t := range W.tasks {
		if t.manager == nil {
			t.manager = W.manager
		}
	}
	F.works = append(F.works, W)
	F.allocated = false
	return W
}

func (F *Flow) Works() []*Work { return F.works }
func (F *Flow) Len() int       { return len(F.works) }

//Work returns the i-th work of the flow.
func (F *Flow) Work(i int) *Work { return F.works[i] }

//Tasks returns all the tasks of the flow, work by work.
func (F *Flow) Tasks() []*Task {
	var ret []*Task
	for _, w := range F.works {
		ret = append(ret, w.tasks...)
	}
	return ret
}

//Allocate assigns a directory to each work (w<i>) and task (w<i>/t<j>) and checks
//that the dependencies don't form cycles. It can be called again after registering more works.
func (F *Flow) Allocate() error {
	id := 0
	for i, w := range F.works {
		id = w.allocate(filepath.Join(F.workdir, fmt.Sprintf("w%d", i)), i, id)
	}
	if _, err := F.Order(); err != nil {
		return err
	}
	F.allocated = true
	return nil
}

//Build creates the directories of the flow and writes the input files of all the tasks.
func (F *Flow) Build() error {
	if !F.allocated {
		return ErrNotAllocated
	}
	for _, d := range []string{F.workdir, F.Indir(), F.Outdir(), F.Tmpdir()} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	for _, w := range F.works {
		if err := w.Build(); err != nil {
			return err
		}
	}
	return nil
}

//BuildAndDump builds the flow and saves it, so it can be read with LoadFlow.
func (F *Flow) BuildAndDump() error {
	if err := F.Build(); err != nil {
		return err
	}
	return F.Dump()
}

//CheckStatus updates the status of all the tasks, and finalizes the works whose tasks are all OK.
func (F *Flow) CheckStatus(ctx context.Context) error {
	var errs []error
	for _, w := range F.works {
		if _, err := w.CheckStatus(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

//Status returns the lowest status of the works.
func (F *Flow) Status() Status {
	if len(F.works) == 0 {
		return Init
	}
	ret := Error
	for _, w := range F.works {
		ret = min(ret, w.Status())
	}
	return ret
}

//AllOK returns true if all the tasks of the flow are OK.
func (F *Flow) AllOK() bool {
	for _, w := range F.works {
		if !w.AllOK() {
			return false
		}
	}
	return len(F.works) > 0
}

//Finalize checks the flow and saves it. It returns an error if some work could
//not be finalized.
func (F *Flow) Finalize(ctx context.Context) error {
	if err := F.CheckStatus(ctx); err != nil {
		return err
	}
	for _, w := range F.works {
		if !w.Finalized() {
			return fmt.Errorf("goAbinit/flow: work %d is %s, cannot finalize the flow", w.index, w.Status())
		}
	}
	F.manager.logger().Info("flow finalized", "flow", F.UID(), "workdir", F.workdir)
	return F.Dump()
}

//MergeDDBs merges the output DDB files of the works into out (relative to the output directory
//of the flow, unless it is an absolute path) and returns its path.
func (F *Flow) MergeDDBs(ctx context.Context, out, description string) (string, error) {
	var paths []string
	for _, w := range F.works {
		p := w.OutputFile("DDB")
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("goAbinit/flow: no DDB files in the works of the flow")
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(F.Outdir(), out)
	}
	if err := os.MkdirAll(F.Outdir(), 0o755); err != nil {
		return "", err
	}
	return F.manager.MergeDDBs(ctx, paths, out, description, F.Outdir())
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	statusStyle = map[Status]lipgloss.Style{
		OK:          cellStyle.Foreground(lipgloss.Color("34")),
		Running:     cellStyle.Foreground(lipgloss.Color("63")),
		Unconverged: cellStyle.Foreground(lipgloss.Color("214")),
		AbiCritical: cellStyle.Foreground(lipgloss.Color("196")),
		Error:       cellStyle.Foreground(lipgloss.Color("196")),
	}
)

//ShowStatus writes a table with the status of each task to w.
func (F *Flow) ShowStatus(w io.Writer) error {
	var rows [][]string
	var sts []Status
	for _, t := range F.Tasks() {
		rel, err := filepath.Rel(F.workdir, t.workdir)
		if err != nil {
			rel = t.workdir
		}
		st := t.Status()
		rows = append(rows, []string{t.Name(), t.kind.String(), st.String(), rel})
		sts = append(sts, st)
	}
	T := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("Task", "Program", "Status", "Directory").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 2 && row >= 0 && row < len(sts) {
				if s, ok := statusStyle[sts[row]]; ok {
					return s
				}
			}
			return cellStyle
		})
	_, err := fmt.Fprintf(w, "Flow %s in %s: %s\n%s\n", F.UID(), F.workdir, F.Status(), T.Render())
	return err
}
