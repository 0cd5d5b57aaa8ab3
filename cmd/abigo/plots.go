/*
 * plots.go, part of goabinit.
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

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rmera/goabinit/abio"
	"github.com/rmera/goabinit/abiplot"
	"github.com/rmera/goabinit/fatbands"
	"github.com/rmera/goabinit/flow"
	"github.com/spf13/cobra"
)

func trimExt(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func newScfCmd() *cobra.Command {
	var dfpt bool
	var prefix string
	cmd := &cobra.Command{
		Use:   "scf <file.abo>",
		Short: "Plot the SCF cycles of an ABINIT output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := flow.FromContext(cmd.Context())
			abo, err := abio.Open(args[0])
			if err != nil {
				return err
			}
			defer abo.Close()
			next := abo.NextGSScfCycle
			if dfpt {
				next = abo.NextD2DEScfCycle
			}
			if prefix == "" {
				prefix = trimExt(args[0]) + "_scf"
			}
			n := 0
			for {
				c, err := next()
				if err != nil {
					return err
				}
				if c == nil {
					break
				}
				out := fmt.Sprintf("%s_%d.png", prefix, n)
				if err := abiplot.PlotScfCycle(c, out); err != nil {
					return err
				}
				logger.Info("SCF cycle plotted", "kind", c.Kind.String(), "iterations", c.Len(), "file", out)
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d iterations, last energy %.10g\n", out, c.Len(), c.Last())
				n++
			}
			if n == 0 {
				return fmt.Errorf("no SCF cycles in %s", args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dfpt, "dfpt", false, "Plot the DFPT cycles instead of the ground-state ones")
	cmd.Flags().StringVarP(&prefix, "output", "o", "", "Prefix of the PNG files (default <file>_scf)")
	return cmd
}

func newTimerCmd() *cobra.Command {
	var key, out string
	var minFract float64
	cmd := &cobra.Command{
		Use:   "timer <file.abo>",
		Short: "Plot the timer section of an ABINIT output as a pie chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abo, err := abio.Open(args[0])
			if err != nil {
				return err
			}
			defer abo.Close()
			T, err := abo.Timer()
			if err != nil {
				return err
			}
			if err := abiplot.PlotTimerPie(T, key, minFract, out); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), T.String())
			flow.FromContext(cmd.Context()).Info("timer plotted", "key", key, "file", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "cpu", "Time to plot: cpu or wall")
	cmd.Flags().Float64Var(&minFract, "min-fract", 0.02, "Sections below this fraction of the total go to \"others\"")
	cmd.Flags().StringVarP(&out, "output", "o", "timer_pie.png", "Output image")
	return cmd
}

func newFatbandsCmd() *cobra.Command {
	var pjdos, view, out, kpoints string
	O := fatbands.DefaultOptions()
	cmd := &cobra.Command{
		Use:   "fatbands <FATBANDS.nc>",
		Short: "Plot fatbands, optionally with the PJDOS computed from a k-mesh file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			F, err := fatbands.Open(args[0])
			if err != nil {
				return err
			}
			defer F.Close()
			fmt.Fprintln(cmd.OutOrStdout(), F.String())
			if O.Title == "" {
				O.Title = trimExt(args[0])
			}
			if kpoints != "" {
				if err := F.PlotKpoints(kpoints); err != nil {
					return err
				}
			}
			if pjdos != "" {
				P, err := fatbands.Open(pjdos)
				if err != nil {
					return err
				}
				defer P.Close()
				err = F.PlotFatbandsWithPJDOS(P, view, out, O)
				if err != nil {
					return err
				}
			} else {
				switch view {
				case "type":
					err = F.PlotFatbandsTypeView(out, O)
				case "lview":
					err = F.PlotFatbandsLView(out, O)
				default:
					err = fmt.Errorf("unknown view %q, use type or lview", view)
				}
				if err != nil {
					return err
				}
			}
			flow.FromContext(cmd.Context()).Info("fatbands plotted", "view", view, "file", out)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&pjdos, "pjdos", "", "FATBANDS file computed on a k-mesh, used for the PJDOS")
	f.StringVar(&view, "view", "type", "type (one panel per atom type) or lview (one panel per l)")
	f.StringVarP(&out, "output", "o", "fatbands.png", "Output image")
	f.StringVar(&kpoints, "kpoints", "", "Also plot the k-points in this file")
	f.StringVar(&O.Title, "title", "", "Title of the figure")
	f.Float64Var(&O.Emin, "emin", O.Emin, "Lower energy limit, eV relative to the Fermi level")
	f.Float64Var(&O.Emax, "emax", O.Emax, "Upper energy limit, eV relative to the Fermi level")
	f.Float64Var(&O.FatScale, "fat-scale", O.FatScale, "Half-width in eV of a band with weight 1")
	f.Float64Var(&O.DOSWidth, "width", O.DOSWidth, "Gaussian broadening of the PJDOS, eV")
	f.Float64Var(&O.DOSStep, "step", O.DOSStep, "Energy step of the PJDOS mesh, eV")
	f.IntVar(&O.Spin, "spin", O.Spin, "Spin index to plot")
	return cmd
}
