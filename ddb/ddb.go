/*
 * ddb.go, part of goabinit.
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

package ddb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	abinit "github.com/rmera/goabinit"
)

const (
	databaseMark = "**** Database of total energy derivatives ****"
	nblocksMark  = "Number of data blocks="
	elementsMark = "- # elements"
	//ABINIT writes a list of blocks after the data, in some versions. It's not needed.
	blockListMark = "List of bloks and their characteristics"
)

var (
	ErrNatomMismatch = errors.New("goAbinit/ddb: DDB files have different number of atoms")
	ErrNoDatabase    = errors.New("goAbinit/ddb: no database section in DDB")
	ErrBlockCount    = errors.New("goAbinit/ddb: number of blocks doesn't match the header")
)

//Block is a block of derivatives. Kind is the first line of the block
//(e.g. "2nd derivatives (non-stat.)  - # elements :      36"), QptLines
//are the lines with the q-points, and Lines the data, all without
//leading and trailing spaces.
type Block struct {
	Kind     string
	QptLines []string
	Lines    []string
}

//Name returns the kind of the block without the number of elements.
func (B *Block) Name() string {
	name, _, _ := strings.Cut(B.Kind, elementsMark)
	return strings.TrimSpace(name)
}

//Order returns the order of the derivatives in the block (0 for the total energy).
func (B *Block) Order() int {
	switch {
	case strings.HasPrefix(B.Kind, "1st"):
		return 1
	case strings.HasPrefix(B.Kind, "2nd"):
		return 2
	case strings.HasPrefix(B.Kind, "3rd"):
		return 3
	}
	return 0
}

//Qpts returns the q-points of the block in reduced coordinates. Each qpt line has
//3 coordinates and a normalization factor.
func (B *Block) Qpts() ([][3]float64, error) {
	ret := make([][3]float64, 0, len(B.QptLines))
	for _, v := range B.QptLines {
		f, err := abinit.ParseFortranFloats(strings.Fields(v)[1:])
		if err != nil || len(f) < 3 {
			return nil, fmt.Errorf("goAbinit/ddb: can't parse q-point line %q", v)
		}
		q := [3]float64{f[0], f[1], f[2]}
		if len(f) > 3 && f[3] != 0 {
			for i := range q {
				q[i] /= f[3]
			}
		}
		ret = append(ret, q)
	}
	return ret, nil
}

//Key identifies the block: two blocks with the same key contain the same derivatives.
func (B *Block) Key() string {
	q, err := B.Qpts()
	if err != nil {
		return B.Name() + "|" + strings.Join(B.QptLines, "|")
	}
	parts := []string{B.Name()}
	for _, v := range q {
		parts = append(parts, fmt.Sprintf("%.8f %.8f %.8f", v[0], v[1], v[2]))
	}
	return strings.Join(parts, "|")
}

//DDB contains a derivative database. The header is kept verbatim.
type DDB struct {
	Name   string
	Header []string
	Natom  int
	Blocks []*Block
}

//Description returns the description line of the header, which mrgddb sets
//when merging.
func (D *DDB) Description() string {
	if i := D.descriptionLine(); i >= 0 {
		return strings.TrimSpace(D.Header[i])
	}
	return ""
}

//SetDescription replaces the description line of the header.
func (D *DDB) SetDescription(desc string) {
	if i := D.descriptionLine(); i >= 0 {
		D.Header[i] = " " + desc
	}
}

//The description is 2 lines after the version one.
func (D *DDB) descriptionLine() int {
	for i, v := range D.Header {
		if strings.HasPrefix(v, "+DDB") {
			if i+2 < len(D.Header) {
				return i + 2
			}
			return -1
		}
	}
	return -1
}

//QPoints returns the distinct q-points of the 2nd-derivative blocks, in order of appearance.
func (D *DDB) QPoints() ([][3]float64, error) {
	var ret [][3]float64
	seen := make(map[[3]float64]bool)
	for _, b := range D.Blocks {
		if b.Order() != 2 {
			continue
		}
		q, err := b.Qpts()
		if err != nil {
			return nil, err
		}
		for _, v := range q {
			if !seen[v] {
				seen[v] = true
				ret = append(ret, v)
			}
		}
	}
	return ret, nil
}

//Parse reads a DDB from r. name is only used in errors.
func Parse(r io.Reader, name string) (*DDB, error) {
	D := &DDB{Name: name, Natom: -1}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineno := 0
	next := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		lineno++
		return scanner.Text(), true
	}
	found := false
	for {
		line, ok := next()
		if !ok {
			break
		}
		D.Header = append(D.Header, line)
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "natom" && D.Natom < 0 {
			if n, err := strconv.Atoi(fields[1]); err == nil {
				D.Natom = n
			}
		}
		if strings.Contains(line, databaseMark) {
			found = true
			break
		}
	}
	if !found {
		if err := scanner.Err(); err != nil {
			return nil, abinit.NewFileError("can't read DDB", name, "ddb.Parse", true, err)
		}
		return nil, abinit.NewFileError("bad DDB", name, "ddb.Parse", true, ErrNoDatabase)
	}
	nblocks := -1
	var cur *Block
	for {
		line, ok := next()
		if !ok {
			break
		}
		trimmed := strings.TrimSpace(line)
		if nblocks < 0 {
			if _, n, ok := strings.Cut(trimmed, nblocksMark); ok {
				var err error
				if nblocks, err = strconv.Atoi(strings.TrimSpace(n)); err != nil {
					return nil, abinit.NewFileError(fmt.Sprintf("bad block count at line %d", lineno), name, "ddb.Parse", true, err)
				}
			}
			continue
		}
		if strings.HasPrefix(trimmed, blockListMark) {
			break
		}
		switch {
		case trimmed == "":
			cur = nil
		case cur == nil:
			cur = &Block{Kind: trimmed}
			D.Blocks = append(D.Blocks, cur)
		case strings.HasPrefix(trimmed, "qpt") && len(cur.Lines) == 0:
			cur.QptLines = append(cur.QptLines, trimmed)
		default:
			cur.Lines = append(cur.Lines, trimmed)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, abinit.NewFileError("can't read DDB", name, "ddb.Parse", true, err)
	}
	if nblocks != len(D.Blocks) {
		return nil, abinit.NewFileError(fmt.Sprintf("header says %d blocks, found %d", nblocks, len(D.Blocks)), name, "ddb.Parse", true, ErrBlockCount)
	}
	return D, nil
}

//Write writes the DDB to w. The block count is always rewritten to match the blocks.
func (D *DDB) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, v := range D.Header {
		bw.WriteString(v)
		bw.WriteString("\n")
	}
	fmt.Fprintf(bw, " %s%5d\n", nblocksMark, len(D.Blocks))
	for _, b := range D.Blocks {
		bw.WriteString("\n")
		fmt.Fprintf(bw, " %s\n", b.Kind)
		for _, q := range b.QptLines {
			fmt.Fprintf(bw, " %s\n", q)
		}
		for _, l := range b.Lines {
			fmt.Fprintf(bw, "   %s\n", l)
		}
	}
	return bw.Flush()
}

func (D *DDB) String() string {
	q, _ := D.QPoints()
	return fmt.Sprintf("DDB %s: natom %d, %d blocks, %d q-points", D.Name, D.Natom, len(D.Blocks), len(q))
}
