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

package abio

import (
	"errors"
	"fmt"
)

//Error is the general structure for errors in this package. It fullfills abinit.Error and abinit.CriticalError
type Error struct {
	message  string
	filename string //the file that has problems, or empty string if none.
	line     int    //0 if not relevant.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	if err.line > 0 {
		return fmt.Sprintf("abo file %s error at line %d: %s", err.filename, err.line, err.message)
	}
	return fmt.Sprintf("abo file %s error: %s", err.filename, err.message)
}

//Decorate Adds new information to the error
func (E Error) Decorate(deco string) []string {
	//Even thought this method does not use a pointer as a receiver, and tries to alter the received,
	//it should work, since E.deco is a slice, and hence a pointer itself.
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

//FileName returns the file to which the error is associated
func (err Error) FileName() string { return err.filename }

//Line returns the line where the problem was found, or 0.
func (err Error) Line() int { return err.line }

//Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

const (
	WrongColumns   = "wrong number of columns in SCF cycle"
	UnparsableData = "can't parse number"
	UnclosedTimer  = "timer section not closed"
	UnclosedDoc    = "YAML document not closed"
	BadYAML        = "malformed YAML document"
)

var (
	//ErrNoTimer is returned when the file has no timer section (timopt was not -1).
	ErrNoTimer = errors.New("abio: no timer section in file")
	//ErrUnknownTimerKey is returned when asking for a timer quantity other than cpu or wall time.
	ErrUnknownTimerKey = errors.New("abio: unknown timer key")
)
