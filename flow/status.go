/*
 * status.go, part of goabinit.
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
	"fmt"
)

//Status is the status of a Task (or, taking the lowest of its tasks, of a Work or Flow).
//
//Lifecycle:
//
//	Init → Locked → Ready → Submitted → Running → Done → OK
//	                                             ↘ Error   ↘ Unconverged
//	                                                       ↘ AbiCritical
type Status int

const (
	//Init: the task was created but its dependencies have not been checked.
	Init Status = iota
	//Locked: some dependency is not OK yet.
	Locked
	//Ready: the task can be started.
	Ready
	//Submitted: the task was handed to the launcher.
	Submitted
	//Running: the program is running.
	Running
	//Done: the program finished, the output has not been checked.
	Done
	//OK: the calculation completed.
	OK
	//Unconverged: the calculation completed but a SCF or relaxation cycle did not converge.
	Unconverged
	//AbiCritical: ABINIT reported an error or a bug.
	AbiCritical
	//Error: the program could not be run, or died without completing the calculation.
	Error
)

var statusNames = [...]string{"Init", "Locked", "Ready", "Submitted", "Running", "Done", "OK", "Unconverged", "AbiCritical", "Error"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

//IsTerminal returns true if nothing else will happen to a task with this status.
func (s Status) IsTerminal() bool {
	switch s {
	case OK, Unconverged, AbiCritical, Error:
		return true
	default:
		return false
	}
}

//IsFailure returns true for the terminal statuses other than OK.
func (s Status) IsFailure() bool {
	return s.IsTerminal() && s != OK
}

//ParseStatus returns the status with the given name.
func ParseStatus(name string) (Status, error) {
	for i, v := range statusNames {
		if v == name {
			return Status(i), nil
		}
	}
	return Init, fmt.Errorf("goAbinit/flow: unknown status %q", name)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	st, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}
