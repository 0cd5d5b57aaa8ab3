/*
 * dump.go, part of goabinit.
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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

type depDump struct {
	Task *int     `json:"task,omitempty"`
	Work *int     `json:"work,omitempty"`
	Path string   `json:"path,omitempty"`
	Exts []string `json:"exts"`
}

type taskDump struct {
	ID      int       `json:"id"`
	Kind    string    `json:"kind"`
	Workdir string    `json:"workdir"`
	Status  Status    `json:"status"`
	Deps    []depDump `json:"deps,omitempty"`
	History []string  `json:"history,omitempty"`
}

type workDump struct {
	Kind      string     `json:"kind"`
	Workdir   string     `json:"workdir"`
	Finalized bool       `json:"finalized"`
	Tasks     []taskDump `json:"tasks"`
}

type flowDump struct {
	UID   string     `json:"uid"`
	Works []workDump `json:"works"`
}

//rel returns path relative to the directory of the flow, so the flow can be moved.
func (F *Flow) rel(path string) string {
	r, err := filepath.Rel(F.workdir, path)
	if err != nil {
		return path
	}
	return r
}

func (F *Flow) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(F.workdir, path)
}

func (F *Flow) dump() (*flowDump, error) {
	if !F.allocated {
		return nil, ErrNotAllocated
	}
	D := &flowDump{UID: F.UID()}
	for _, w := range F.works {
		wd := workDump{Kind: w.kind.String(), Workdir: F.rel(w.workdir), Finalized: w.Finalized()}
		for _, t := range w.tasks {
			td := taskDump{ID: t.id, Kind: t.kind.String(), Workdir: F.rel(t.workdir), Status: t.Status(), History: t.History()}
			for _, d := range t.deps {
				dd := depDump{Exts: d.Exts}
				switch n := d.Node.(type) {
				case *Task:
					id := n.id
					dd.Task = &id
				case *Work:
					idx := n.index
					dd.Work = &idx
				case FileNode:
					dd.Path = n.Path
				default:
					return nil, fmt.Errorf("goAbinit/flow: cannot save dependency of type %T", d.Node)
				}
				td.Deps = append(td.Deps, dd)
			}
			wd.Tasks = append(wd.Tasks, td)
		}
		D.Works = append(D.Works, wd)
	}
	return D, nil
}

//Dump saves the flow in DumpName, in its directory.
func (F *Flow) Dump() error {
	D, err := F.dump()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(D, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(F.workdir, 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(F.workdir, DumpName+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(F.workdir, DumpName))
}

//LoadFlow reads the flow saved in workdir. The tasks of the loaded flow have no inputs,
//but their input files are already in their directories.
func LoadFlow(workdir string, manager *Manager) (*Flow, error) {
	F, err := NewFlow(workdir, manager)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(F.workdir, DumpName))
	if err != nil {
		return nil, err
	}
	var D flowDump
	if err := json.Unmarshal(data, &D); err != nil {
		return nil, fmt.Errorf("goAbinit/flow: reading %s: %w", DumpName, err)
	}
	if F.uid, err = uuid.Parse(D.UID); err != nil {
		return nil, fmt.Errorf("goAbinit/flow: reading %s: %w", DumpName, err)
	}
	byID := make(map[int]*Task)
	for i, wd := range D.Works {
		kind, err := parseWorkKind(wd.Kind)
		if err != nil {
			return nil, err
		}
		W := NewWork(manager)
		if kind == PhononWork {
			W = NewPhononWork(manager)
		}
		W.index = i
		W.workdir = F.abs(wd.Workdir)
		W.finalized = wd.Finalized
		for j, td := range wd.Tasks {
			tk, err := parseTaskKind(td.Kind)
			if err != nil {
				return nil, err
			}
			T := &Task{
				id:      td.ID,
				name:    fmt.Sprintf("w%d_t%d", i, j),
				kind:    tk,
				workdir: F.abs(td.Workdir),
				status:  td.Status,
				history: td.History,
				manager: manager,
			}
			if T.status == Submitted || T.status == Running {
				T.reset()
			}
			W.RegisterTask(T)
			byID[td.ID] = T
		}
		F.works = append(F.works, W)
	}
	for i, wd := range D.Works {
		for j, td := range wd.Tasks {
			T := F.works[i].tasks[j]
			for _, dd := range td.Deps {
				var n Node
				switch {
				case dd.Task != nil:
					t, ok := byID[*dd.Task]
					if !ok {
						return nil, fmt.Errorf("goAbinit/flow: task %s depends on unknown task %d", T.Name(), *dd.Task)
					}
					n = t
				case dd.Work != nil:
					if *dd.Work < 0 || *dd.Work >= len(F.works) {
						return nil, fmt.Errorf("goAbinit/flow: task %s depends on unknown work %d", T.Name(), *dd.Work)
					}
					n = F.works[*dd.Work]
				default:
					n = FileNode{dd.Path}
				}
				T.deps = append(T.deps, Dep{n, dd.Exts})
			}
		}
	}
	F.allocated = true
	return F, nil
}
