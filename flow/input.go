/*
 * input.go, part of goabinit.
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
	"strings"

	abinit "github.com/rmera/goabinit"
)

//Input is the input file of a task.
type Input interface {
	//String returns the contents of the input file.
	String() string
}

//the order in which the structure is written.
var structureVars = []string{"acell", "rprim", "natom", "ntypat", "typat", "znucl", "xred"}

//AbinitInput is the input of a single-dataset ABINIT run: a structure, a list
//of pseudopotentials and the rest of the variables, which are written in the order
//in which they were set.
type AbinitInput struct {
	Structure *abinit.Structure
	Pseudos   []string
	vars      vars
}

//NewAbinitInput returns an input for the structure S with the given pseudopotential files
//(one per type of atom, in the order of S.Species).
func NewAbinitInput(S *abinit.Structure, pseudos ...string) (*AbinitInput, error) {
	I := &AbinitInput{Pseudos: append([]string(nil), pseudos...)}
	if S != nil {
		if err := I.SetStructure(S); err != nil {
			return nil, err
		}
	}
	return I, nil
}

//SetStructure sets the structure of the input. The number of pseudopotentials, if any
//were given, must match the number of types of atoms.
func (I *AbinitInput) SetStructure(S *abinit.Structure) error {
	if len(I.Pseudos) > 0 && len(I.Pseudos) != S.Ntypat() {
		return fmt.Errorf("goAbinit/flow: %d pseudopotentials for %d types of atoms (%v)", len(I.Pseudos), S.Ntypat(), S.Species())
	}
	I.Structure = S
	return nil
}

//SetVariable sets the value of one variable and returns the input, so calls can be chained.
func (I *AbinitInput) SetVariable(name string, value any) *AbinitInput {
	I.vars.set(name, value)
	return I
}

//SetVariables sets all the variables in m.
func (I *AbinitInput) SetVariables(m map[string]any) *AbinitInput {
	I.vars.setMap(m)
	return I
}

//Get returns the value of a variable, and false if it is not set.
func (I *AbinitInput) Get(name string) (any, bool) {
	return I.vars.get(name)
}

//Remove unsets a variable.
func (I *AbinitInput) Remove(name string) {
	I.vars.remove(name)
}

//Names returns the names of the variables set, without the structure.
func (I *AbinitInput) Names() []string {
	return I.vars.names()
}

//Copy returns a copy of the input. The structure is shared.
func (I *AbinitInput) Copy() *AbinitInput {
	return &AbinitInput{Structure: I.Structure, Pseudos: append([]string(nil), I.Pseudos...), vars: I.vars.copy()}
}

func writeStructure(b *strings.Builder, S *abinit.Structure) {
	if S == nil {
		return
	}
	fmt.Fprintf(b, "# Structure: %s\n", S.Name)
	av := S.Abivars()
	var sv vars
	for _, name := range structureVars {
		sv.set(name, av[name])
	}
	sv.write(b, "")
}

//String returns the input file. The pseudopotentials go in the pseudos variable.
func (I *AbinitInput) String() string {
	var b strings.Builder
	writeStructure(&b, I.Structure)
	if len(I.Pseudos) > 0 {
		fmt.Fprintf(&b, "pseudos %q\n", strings.Join(I.Pseudos, ", "))
	}
	b.WriteString("\n")
	I.vars.write(&b, "")
	return b.String()
}

//MultiDataset is an ABINIT input with several datasets. The variables of the
//MultiDataset itself are common to all the datasets, each dataset adds its own.
type MultiDataset struct {
	global   *AbinitInput
	datasets []*AbinitInput
}

//NewMultiDataset returns an input with ndtset datasets.
func NewMultiDataset(S *abinit.Structure, pseudos []string, ndtset int) (*MultiDataset, error) {
	if ndtset < 1 {
		return nil, fmt.Errorf("%w: ndtset must be at least 1, got %d", ErrBadDataset, ndtset)
	}
	g, err := NewAbinitInput(S, pseudos...)
	if err != nil {
		return nil, err
	}
	M := &MultiDataset{global: g, datasets: make([]*AbinitInput, ndtset)}
	for i := range M.datasets {
		M.datasets[i] = &AbinitInput{}
	}
	return M, nil
}

//Ndtset returns the number of datasets.
func (M *MultiDataset) Ndtset() int {
	return len(M.datasets)
}

//SetVariables sets variables common to all the datasets.
func (M *MultiDataset) SetVariables(m map[string]any) *MultiDataset {
	M.global.SetVariables(m)
	return M
}

//SetVariable sets a variable common to all the datasets.
func (M *MultiDataset) SetVariable(name string, value any) *MultiDataset {
	M.global.SetVariable(name, value)
	return M
}

//Dataset returns the variables specific to dataset i. As in ABINIT, datasets are numbered from 1.
func (M *MultiDataset) Dataset(i int) (*AbinitInput, error) {
	if i < 1 || i > len(M.datasets) {
		return nil, fmt.Errorf("%w: %d (ndtset=%d)", ErrBadDataset, i, len(M.datasets))
	}
	return M.datasets[i-1], nil
}

//SplitDatasets returns one single-dataset input per dataset, with the common variables
//plus those of the dataset, which win in case of conflict.
func (M *MultiDataset) SplitDatasets() []*AbinitInput {
	ret := make([]*AbinitInput, len(M.datasets))
	for i, d := range M.datasets {
		in := M.global.Copy()
		for _, v := range d.vars {
			in.vars.set(v.name, v.value)
		}
		ret[i] = in
	}
	return ret
}

//String returns the multi-dataset input file.
func (M *MultiDataset) String() string {
	var b strings.Builder
	b.WriteString(M.global.String())
	fmt.Fprintf(&b, "\nndtset %d\n", len(M.datasets))
	for i, d := range M.datasets {
		if len(d.vars) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n# Dataset %d\n", i+1)
		d.vars.write(&b, fmt.Sprint(i+1))
	}
	return b.String()
}
