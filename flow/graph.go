/*
 * graph.go, part of goabinit.
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
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

//depTasks returns the tasks a Node stands for: the task itself, or all the tasks of a work.
//Files give no tasks.
func depTasks(n Node) []*Task {
	switch v := n.(type) {
	case *Task:
		return []*Task{v}
	case *Work:
		return v.tasks
	}
	return nil
}

//Graph returns the dependency graph of the allocated flow. Node IDs are task IDs, and
//edges go from each task to the tasks that depend on it. Tasks from other flows are ignored.
func (F *Flow) Graph() (*simple.DirectedGraph, error) {
	g := simple.NewDirectedGraph()
	tasks := F.Tasks()
	in := make(map[*Task]bool, len(tasks))
	for _, t := range tasks {
		if t.id < 0 {
			return nil, ErrNotAllocated
		}
		in[t] = true
		g.AddNode(simple.Node(t.id))
	}
	for _, t := range tasks {
		for _, d := range t.deps {
			for _, p := range depTasks(d.Node) {
				if !in[p] {
					continue
				}
				if p == t {
					return nil, fmt.Errorf("%w: task %s depends on itself", ErrCycle, t.Name())
				}
				g.SetEdge(simple.Edge{F: simple.Node(p.id), T: simple.Node(t.id)})
			}
		}
	}
	return g, nil
}

//Order returns the tasks of the flow sorted so each task comes after all its
//dependencies. It returns ErrCycle if that is not possible.
func (F *Flow) Order() ([]*Task, error) {
	g, err := F.Graph()
	if err != nil {
		return nil, err
	}
	sorted, err := topo.SortStabilized(g, nil)
	if err != nil {
		var unorderable topo.Unorderable
		if errors.As(err, &unorderable) {
			return nil, fmt.Errorf("%w: %d groups of tasks depend on each other", ErrCycle, len(unorderable))
		}
		return nil, err
	}
	byID := make(map[int64]*Task)
	for _, t := range F.Tasks() {
		byID[int64(t.id)] = t
	}
	ret := make([]*Task, len(sorted))
	for i, n := range sorted {
		ret[i] = byID[n.ID()]
	}
	return ret, nil
}

//Parents returns the tasks of the flow that t depends on.
func (F *Flow) Parents(t *Task) ([]*Task, error) {
	g, err := F.Graph()
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*Task)
	for _, v := range F.Tasks() {
		byID[int64(v.id)] = v
	}
	var ret []*Task
	for _, n := range graph.NodesOf(g.To(int64(t.id))) {
		ret = append(ret, byID[n.ID()])
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].id < ret[j].id })
	return ret, nil
}
