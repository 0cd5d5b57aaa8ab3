/*
 * events.go, part of goabinit.
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
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

//Doc is a YAML document embedded in an ABINIT output. Tag is the
//text after "--- !", Body the lines up to the closing "...", and Line the
//line number where the document starts.
type Doc struct {
	Tag  string
	Body string
	Line int
}

//Decode unmarshals the body of the document into v.
func (D Doc) Decode(v any) error {
	return yaml.Unmarshal([]byte(D.Body), v)
}

func readDocs(L *lineReader) ([]Doc, error) {
	var ret []Doc
	var cur *Doc
	var body []string
	for L.Scan() {
		line := L.Text()
		if cur == nil {
			if line == "---" || strings.HasPrefix(line, "--- ") {
				tag := strings.TrimSpace(strings.TrimPrefix(line, "---"))
				cur = &Doc{Tag: strings.TrimPrefix(tag, "!"), Line: L.lineno}
				body = body[:0]
			}
			continue
		}
		if strings.TrimRight(line, " ") == "..." {
			cur.Body = strings.Join(body, "\n")
			ret = append(ret, *cur)
			cur = nil
			continue
		}
		body = append(body, line)
	}
	if cur != nil {
		return nil, Error{UnclosedDoc, L.filename, cur.Line, []string{"readDocs"}, true}
	}
	return ret, nil
}

//YAMLDocs returns all the YAML documents in r.
func YAMLDocs(r io.Reader) ([]Doc, error) {
	L, err := newLineReader(r, "")
	if err != nil {
		return nil, err
	}
	return readDocs(L)
}

//Event is an error, warning or comment reported by ABINIT.
type Event struct {
	Tag     string `yaml:"-"`
	SrcFile string `yaml:"src_file"`
	SrcLine int    `yaml:"src_line"`
	Message string `yaml:"message"`
}

func (E Event) String() string {
	return fmt.Sprintf("%s at %s:%d: %s", E.Tag, E.SrcFile, E.SrcLine, strings.TrimSpace(E.Message))
}

//Tags of the documents that ParseEvents considers events.
const (
	ErrorTag          = "ERROR"
	BugTag            = "BUG"
	WarningTag        = "WARNING"
	CommentTag        = "COMMENT"
	ScfConvergenceTag = "ScfConvergenceWarning"
	RelaxConvergence  = "RelaxConvergenceWarning"
	irredPertsTag     = "IrredPerts"
)

//EventReport collects the events in an output file.
type EventReport struct {
	Errors    []Event //Errors and bugs.
	Warnings  []Event //Includes the convergence warnings.
	Comments  []Event
	Completed bool
	unconv    bool
}

//Critical returns true if ABINIT reported errors or bugs.
func (R *EventReport) Critical() bool {
	return len(R.Errors) > 0
}

//Unconverged returns true if ABINIT reported that a SCF or relaxation cycle did not converge.
func (R *EventReport) Unconverged() bool {
	return R.unconv
}

func (R *EventReport) String() string {
	return fmt.Sprintf("Completed: %t, %d errors, %d warnings, %d comments", R.Completed, len(R.Errors), len(R.Warnings), len(R.Comments))
}

//ParseEvents reads an ABINIT output or log and returns its events.
func ParseEvents(r io.Reader) (*EventReport, error) {
	L, err := newLineReader(r, "")
	if err != nil {
		return nil, err
	}
	return parseEvents(L)
}

func parseEvents(L *lineReader) (*EventReport, error) {
	docs, err := readDocs(L)
	if err != nil {
		return nil, err
	}
	R := &EventReport{}
	for _, v := range L.lines {
		if strings.Contains(v, completedMark) {
			R.Completed = true
			break
		}
	}
	for _, d := range docs {
		var list *[]Event
		switch d.Tag {
		case ErrorTag, BugTag:
			list = &R.Errors
		case WarningTag, ScfConvergenceTag, RelaxConvergence:
			list = &R.Warnings
		case CommentTag:
			list = &R.Comments
		default:
			continue
		}
		ev := Event{}
		if err := d.Decode(&ev); err != nil {
			return nil, Error{fmt.Sprintf("%s: %v", BadYAML, err), L.filename, d.Line, []string{"parseEvents"}, true}
		}
		ev.Tag = d.Tag
		*list = append(*list, ev)
		if d.Tag == ScfConvergenceTag || d.Tag == RelaxConvergence {
			R.unconv = true
		}
	}
	return R, nil
}

//IrredPert is an irreducible perturbation of a DFPT calculation:
//the q-point, the perturbation index (atom, or natom+1.. for electric field, strain) and the direction.
type IrredPert struct {
	Qpt   [3]float64 `yaml:"qpt"`
	Ipert int        `yaml:"ipert"`
	Idir  int        `yaml:"idir"`
}

//ParseIrredPerts returns the irreducible perturbations listed in the IrredPerts
//documents of r (written by ABINIT in a dry run with paral_rf -1).
func ParseIrredPerts(r io.Reader) ([]IrredPert, error) {
	L, err := newLineReader(r, "")
	if err != nil {
		return nil, err
	}
	return parseIrredPerts(L)
}

func parseIrredPerts(L *lineReader) ([]IrredPert, error) {
	docs, err := readDocs(L)
	if err != nil {
		return nil, err
	}
	var ret []IrredPert
	for _, d := range docs {
		if d.Tag != irredPertsTag {
			continue
		}
		var doc struct {
			IrredPerts []IrredPert `yaml:"irred_perts"`
		}
		if err := d.Decode(&doc); err != nil {
			return nil, Error{fmt.Sprintf("%s: %v", BadYAML, err), L.filename, d.Line, []string{"parseIrredPerts"}, true}
		}
		ret = append(ret, doc.IrredPerts...)
	}
	return ret, nil
}
