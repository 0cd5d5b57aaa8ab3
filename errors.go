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

package abinit

import (
	"errors"
	"fmt"
)

//Errors

//Error is the interface for errors that all packages in this library implement. The Decorate method allows to add and retrieve info from the
//error, without changing it's type or wrapping it around something else.
type Error interface {
	Error() string
	Decorate(string) []string //Adds the caller to the decoration slice and returns it. An empty string just returns the current value.
}

//CriticalError is an Error that knows whether the operation that produced it can be retried or ignored.
type CriticalError interface {
	Error
	Critical() bool
}

//FileError is the general structure for errors related to a file in this package.
//It fullfills Error and CriticalError
type FileError struct {
	message  string
	filename string //the file that has problems, or empty string if none.
	deco     []string
	critical bool
	err      error
}

//NewFileError returns an error for the file filename. caller is the first decoration
//and err, which can be nil, the underlying cause.
func NewFileError(message, filename, caller string, critical bool, err error) *FileError {
	return &FileError{message: message, filename: filename, deco: []string{caller}, critical: critical, err: err}
}

func (E *FileError) Error() string {
	if E.err != nil {
		return fmt.Sprintf("goAbinit: file %s: %s: %v", E.filename, E.message, E.err)
	}
	return fmt.Sprintf("goAbinit: file %s: %s", E.filename, E.message)
}

//Decorate Adds new information to the error
func (E *FileError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

//FileName returns the file associated to the error
func (E *FileError) FileName() string { return E.filename }

//Critical returns true if the error is critical, false otherwise
func (E *FileError) Critical() bool { return E.critical }

//Unwrap returns the underlying error, if any.
func (E *FileError) Unwrap() error { return E.err }

//ErrDecorate is a helper function that checks whether the error
//implements Error and decorates the error with the caller's name before returning it.
//if used with a non-Error error, it will just return the error.
func ErrDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	var err2 Error
	if errors.As(err, &err2) {
		err2.Decorate(caller)
	}
	return err
}

var (
	ErrUnknownElement = errors.New("goAbinit: unknown element")
	ErrUnknownUcell   = errors.New("goAbinit: unknown unit cell")
	ErrBadLattice     = errors.New("goAbinit: singular lattice")
	ErrShortPath      = errors.New("goAbinit: k-path needs at least two points")
	ErrNoKPath        = errors.New("goAbinit: no standard k-path for this lattice")
)
