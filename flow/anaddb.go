/*
 * anaddb.go, part of goabinit.
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
	"math"
	"strconv"
	"strings"

	abinit "github.com/rmera/goabinit"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//AnaddbInput is the input of anaddb, the program that post-processes the DDB.
type AnaddbInput struct {
	Structure *abinit.Structure
	vars      vars
}

//NewAnaddbInput returns an empty anaddb input for the structure S.
func NewAnaddbInput(S *abinit.Structure) *AnaddbInput {
	return &AnaddbInput{Structure: S}
}

//SetVariable sets the value of one variable and returns the input.
func (A *AnaddbInput) SetVariable(name string, value any) *AnaddbInput {
	A.vars.set(name, value)
	return A
}

//Get returns the value of a variable, and false if it is not set.
func (A *AnaddbInput) Get(name string) (any, bool) {
	return A.vars.get(name)
}

//Names returns the names of the variables set.
func (A *AnaddbInput) Names() []string {
	return A.vars.names()
}

func (A *AnaddbInput) String() string {
	var b strings.Builder
	if A.Structure != nil {
		fmt.Fprintf(&b, "# anaddb input for %s\n", A.Structure.Name)
	}
	A.vars.write(&b, "")
	return b.String()
}

//parseDosMethod parses "tetra" or "gaussian: <width> <unit>" (unit eV or Ha, eV if missing).
//It returns the value of prtdos and the smearing in Ha.
func parseDosMethod(method string) (int, float64, error) {
	m := strings.TrimSpace(strings.ToLower(method))
	if m == "tetra" {
		return 2, 0, nil
	}
	rest, ok := strings.CutPrefix(m, "gaussian")
	if !ok {
		return 0, 0, fmt.Errorf("goAbinit/flow: wrong DOS method %q, use tetra or \"gaussian: <width> eV\"", method)
	}
	rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), ":"))
	fields := strings.Fields(rest)
	if len(fields) == 0 || len(fields) > 2 {
		return 0, 0, fmt.Errorf("goAbinit/flow: wrong gaussian DOS method %q", method)
	}
	w, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("goAbinit/flow: wrong gaussian width in %q", method)
	}
	unit := "ev"
	if len(fields) == 2 {
		unit = fields[1]
	}
	switch unit {
	case "ev":
		w *= abinit.EV2Ha
	case "ha":
	default:
		return 0, 0, fmt.Errorf("goAbinit/flow: unknown energy unit %q in %q", unit, method)
	}
	return 1, w, nil
}

//QMesh returns a q-mesh for the DOS with nqsmall divisions along the shortest
//reciprocal lattice vector, and proportionally more along the others.
func QMesh(S *abinit.Structure, nqsmall int) [3]int {
	G := S.Reciprocal()
	var lens [3]float64
	for i := range lens {
		lens[i] = floats.Norm(mat.Row(nil, i, G), 2)
	}
	lmin := floats.Min(lens[:])
	var ret [3]int
	for i, l := range lens {
		ret[i] = max(1, int(math.Round(float64(nqsmall)*l/lmin)))
	}
	return ret
}

//PhbandsAndDos returns an anaddb input that computes the phonon band structure along the
//high-symmetry path of S (ndivsm points in the smallest segment) and the phonon DOS on a q-mesh with
//nqsmall divisions along the shortest reciprocal vector. The interatomic force constants
//are obtained from the ngqpt q-mesh of the DDB. dosMethod is "tetra" or "gaussian: <width> eV".
func PhbandsAndDos(S *abinit.Structure, ngqpt [3]int, ndivsm, nqsmall int, dosMethod string) (*AnaddbInput, error) {
	path, err := abinit.HighSymmetryPath(S)
	if err != nil {
		return nil, err
	}
	if len(path) < 2 {
		return nil, fmt.Errorf("%w: structure %s", abinit.ErrShortPath, S.Name)
	}
	if ndivsm < 1 || nqsmall < 1 {
		return nil, fmt.Errorf("goAbinit/flow: ndivsm and nqsmall must be positive, got %d, %d", ndivsm, nqsmall)
	}
	prtdos, smear, err := parseDosMethod(dosMethod)
	if err != nil {
		return nil, err
	}
	A := NewAnaddbInput(S)
	A.SetVariable("ifcflag", 1).
		SetVariable("ngqpt", ngqpt[:]).
		SetVariable("nqshft", 1).
		SetVariable("q1shft", []float64{0, 0, 0}).
		SetVariable("asr", 2).
		SetVariable("chneut", 1).
		SetVariable("dipdip", 1)
	qpath := make([][]float64, len(path))
	for i, v := range path {
		qpath[i] = v.Frac[:]
	}
	A.SetVariable("nqpath", len(path)).
		SetVariable("qpath", qpath).
		SetVariable("ndivsm", ndivsm)
	A.SetVariable("prtdos", prtdos)
	if prtdos == 1 {
		A.SetVariable("dossmear", smear)
	}
	ng2qpt := QMesh(S, nqsmall)
	A.SetVariable("ng2qpt", ng2qpt[:]).
		SetVariable("q2shft", []float64{0, 0, 0})
	return A, nil
}
