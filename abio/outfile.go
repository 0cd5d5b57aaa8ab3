/*
 * outfile.go, part of goabinit.
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
	"bufio"
	"io"
	"os"
	"strings"
)

//lineReader walks the lines of a file keeping track of the line number.
type lineReader struct {
	lines    []string
	pos      int
	filename string
	lineno   int
	err      error
}

func newLineReader(r io.Reader, filename string) (*lineReader, error) {
	L := &lineReader{filename: filename}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		L.lines = append(L.lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return L, nil
}

//Scan advances to the next line. Returns false at the end of the data.
func (L *lineReader) Scan() bool {
	if L.pos >= len(L.lines) {
		return false
	}
	L.pos++
	L.lineno = L.pos
	return true
}

func (L *lineReader) Text() string {
	if L.pos == 0 {
		return ""
	}
	return L.lines[L.pos-1]
}

func (L *lineReader) Err() error { return L.err }

//rewound returns a reader over the same lines, starting from the beginning.
func (L *lineReader) rewound() *lineReader {
	return &lineReader{lines: L.lines, filename: L.filename}
}

//OutputFile is an ABINIT main output (.abo) or log file.
//The SCF cycles are read in order, each call to NextGSScfCycle or
//NextD2DEScfCycle continues from where the previous call stopped.
//The rest of the methods consider the whole file.
type OutputFile struct {
	Path   string
	reader *lineReader
	closed bool
}

//Open reads the ABINIT output in path.
func Open(path string) (*OutputFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Error{err.Error(), path, 0, []string{"Open"}, true}
	}
	defer f.Close()
	return NewOutputFile(f, path)
}

//NewOutputFile reads an ABINIT output from r. name is used in errors.
func NewOutputFile(r io.Reader, name string) (*OutputFile, error) {
	L, err := newLineReader(r, name)
	if err != nil {
		return nil, Error{err.Error(), name, 0, []string{"NewOutputFile"}, true}
	}
	return &OutputFile{Path: name, reader: L}, nil
}

//Close releases the file contents. It can be called more than once.
func (O *OutputFile) Close() error {
	if O.closed {
		return nil
	}
	O.closed = true
	O.reader = &lineReader{filename: O.Path}
	return nil
}

//NextGSScfCycle returns the next ground-state SCF cycle, or nil if there are no more.
func (O *OutputFile) NextGSScfCycle() (*ScfCycle, error) {
	return readScfCycle(O.reader, GroundState)
}

//NextD2DEScfCycle returns the next DFPT SCF cycle, or nil if there are no more.
func (O *OutputFile) NextD2DEScfCycle() (*ScfCycle, error) {
	return readScfCycle(O.reader, DFPT)
}

//ScfCycles returns all the SCF cycles of the given kind in the file.
//It doesn't change the position used by the Next methods.
func (O *OutputFile) ScfCycles(kind ScfKind) ([]*ScfCycle, error) {
	L := O.reader.rewound()
	var ret []*ScfCycle
	for {
		c, err := readScfCycle(L, kind)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return ret, nil
		}
		ret = append(ret, c)
	}
}

//Rewind makes the next call to the Next methods start from the beginning of the file.
func (O *OutputFile) Rewind() {
	O.reader = O.reader.rewound()
}

//Completed returns true if ABINIT finished the calculation.
func (O *OutputFile) Completed() bool {
	for _, v := range O.reader.lines {
		if strings.Contains(v, completedMark) {
			return true
		}
	}
	return false
}

//Timer returns the first timer section of the file, ErrNoTimer if there is none.
func (O *OutputFile) Timer() (*Timer, error) {
	t, err := O.Timers()
	if err != nil {
		return nil, err
	}
	return t[0], nil
}

//Timers returns all the timer sections in the file (one per MPI rank in a log).
func (O *OutputFile) Timers() ([]*Timer, error) {
	L := O.reader.rewound()
	var ret []*Timer
	for {
		t, err := readTimer(L)
		if err != nil {
			return nil, err
		}
		if t == nil {
			break
		}
		ret = append(ret, t)
	}
	if len(ret) == 0 {
		return nil, ErrNoTimer
	}
	return ret, nil
}

//Events returns the report of the events (errors, warnings, comments) in the file.
func (O *OutputFile) Events() (*EventReport, error) {
	return parseEvents(O.reader.rewound())
}

//IrredPerts returns the irreducible perturbations reported in the file.
func (O *OutputFile) IrredPerts() ([]IrredPert, error) {
	return parseIrredPerts(O.reader.rewound())
}
