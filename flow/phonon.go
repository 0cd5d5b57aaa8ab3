/*
 * phonon.go, part of goabinit.
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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rmera/goabinit/abio"
)

//PhononFlow returns an allocated flow for the phonons of a crystal. The first work runs
//the ground state calculation scfInput, and there is one PhononWork per input in phInputs
//(typically one per q-point). The phonon tasks read the WFK file of the ground state.
//
//If the manager has DryRunPerts set, ABINIT is run first with paral_rf -1 to obtain the
//irreducible perturbations of each phonon input, and the PhononWork gets one task per
//atomic perturbation. Otherwise each PhononWork has a single task that computes all of them.
func PhononFlow(ctx context.Context, workdir string, manager *Manager, scfInput *AbinitInput, phInputs []*AbinitInput) (*Flow, error) {
	if scfInput == nil || len(phInputs) == 0 {
		return nil, fmt.Errorf("goAbinit/flow: a phonon flow needs a SCF input and at least one phonon input")
	}
	F, err := NewFlow(workdir, manager)
	if err != nil {
		return nil, err
	}
	w0 := F.RegisterWork(NewWork(manager))
	scf := w0.Register(scfInput)
	for i, ph := range phInputs {
		W := NewPhononWork(manager)
		var perts []abio.IrredPert
		if manager.DryRunPerts {
			perts, err = IrredPerts(ctx, manager, ph, filepath.Join(F.Tmpdir(), fmt.Sprintf("perts%d", i)))
			if err != nil {
				return nil, err
			}
		}
		if len(perts) == 0 {
			W.Register(ph, Dep{scf, []string{"WFK"}})
		}
		for _, p := range perts {
			in, err := PerturbationInput(ph, p)
			if err != nil {
				return nil, err
			}
			W.Register(in, Dep{scf, []string{"WFK"}})
		}
		manager.logger().Info("phonon work", "work", i+1, "qpt", formatValue(qptOf(ph)), "ntasks", W.Len())
		F.RegisterWork(W)
	}
	if err := F.Allocate(); err != nil {
		return nil, err
	}
	return F, nil
}

func qptOf(in *AbinitInput) any {
	if q, ok := in.Get("qpt"); ok {
		return q
	}
	return []float64{0, 0, 0}
}

//PerturbationInput returns a copy of the phonon input in restricted to the perturbation p.
//Only atomic displacements (ipert <= natom) are accepted.
func PerturbationInput(in *AbinitInput, p abio.IrredPert) (*AbinitInput, error) {
	if in.Structure == nil {
		return nil, fmt.Errorf("goAbinit/flow: phonon input without structure")
	}
	if p.Ipert < 1 || p.Ipert > in.Structure.Natom() {
		return nil, fmt.Errorf("goAbinit/flow: ipert %d is not an atomic displacement (natom=%d)", p.Ipert, in.Structure.Natom())
	}
	if p.Idir < 1 || p.Idir > 3 {
		return nil, fmt.Errorf("goAbinit/flow: wrong idir %d", p.Idir)
	}
	rfdir := []int{0, 0, 0}
	rfdir[p.Idir-1] = 1
	ret := in.Copy()
	ret.SetVariable("rfphon", 1).
		SetVariable("rfatpol", []int{p.Ipert, p.Ipert}).
		SetVariable("rfdir", rfdir).
		SetVariable("nqpt", 1).
		SetVariable("qpt", []float64{p.Qpt[0], p.Qpt[1], p.Qpt[2]})
	return ret, nil
}

//IrredPerts runs ABINIT in dir, with paral_rf -1, to obtain the irreducible perturbations
//of the phonon input in. Only atomic displacements are returned.
func IrredPerts(ctx context.Context, manager *Manager, in *AbinitInput, dir string) ([]abio.IrredPert, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString(in.String())
	var extra vars
	extra.set("paral_rf", -1)
	extra.set("output_file", outputName)
	b.WriteString("\n# Dry run for the irreducible perturbations\n")
	extra.write(&b, "")
	if err := os.WriteFile(filepath.Join(dir, inputName), []byte(b.String()), 0o644); err != nil {
		return nil, err
	}
	J := Job{
		Name:   "irredperts",
		Dir:    dir,
		Args:   append(manager.Command(manager.Abinit), inputName),
		Stdout: logName,
		Stderr: errName,
		Env:    manager.Env(),
		PreRun: manager.PreRun,
	}
	if err := manager.Launcher.Run(ctx, J); err != nil {
		return nil, fmt.Errorf("goAbinit/flow: dry run for the perturbations: %w", err)
	}
	f, err := os.Open(filepath.Join(dir, logName))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	perts, err := abio.ParseIrredPerts(f)
	if err != nil {
		return nil, err
	}
	natom := 0
	if in.Structure != nil {
		natom = in.Structure.Natom()
	}
	var ret []abio.IrredPert
	for _, p := range perts {
		if p.Ipert <= natom {
			ret = append(ret, p)
		}
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("goAbinit/flow: no atomic perturbations in %s", filepath.Join(dir, logName))
	}
	return ret, nil
}
