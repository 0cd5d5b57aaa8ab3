/*
 * errors.go, part of goabinit.
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

import "errors"

var (
	//ErrCycle is returned when the dependencies between tasks form a cycle.
	ErrCycle = errors.New("goAbinit/flow: dependency cycle")
	//ErrNotAllocated is returned when building or running a flow before Allocate.
	ErrNotAllocated = errors.New("goAbinit/flow: flow not allocated")
	//ErrNoInput is returned when a task has to write its input, but it has none (e.g. a loaded flow).
	ErrNoInput = errors.New("goAbinit/flow: task has no input")
	//ErrNotReady is returned by StartAndWait when the dependencies of the task are not OK.
	ErrNotReady = errors.New("goAbinit/flow: task dependencies are not OK")
	//ErrStalled is returned by the Scheduler when no task can run but some are not finished.
	ErrStalled = errors.New("goAbinit/flow: no task can be started")
	//ErrBadDataset is returned when asking for a dataset out of range.
	ErrBadDataset = errors.New("goAbinit/flow: dataset out of range")
)
