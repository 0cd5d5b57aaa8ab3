/*
 * flow.go, part of goabinit.
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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	abinit "github.com/rmera/goabinit"
	"github.com/rmera/goabinit/flow"
	"github.com/spf13/cobra"
)

func newFlowCmd() *cobra.Command {
	var managerPath string
	ms := &metricsServer{}
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Run and inspect ABINIT flows",
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ms.close()
		},
	}
	cmd.PersistentFlags().StringVar(&managerPath, "manager", "", "Manager configuration file (default ./manager.yml or ~/.abigo/manager.yml)")
	cmd.PersistentFlags().StringVar(&ms.addr, "metrics-addr", "", "Serve Prometheus metrics at this address while the flow runs (e.g. :9090)")
	managerFn := func(ctx context.Context) (*flow.Manager, error) {
		var M *flow.Manager
		var err error
		if managerPath != "" {
			M, err = flow.LoadManagerFromPath(managerPath)
		} else {
			M, err = flow.LoadManager()
		}
		if err != nil {
			return nil, err
		}
		M.Logger = flow.FromContext(ctx)
		return M, nil
	}
	runFn := func(ctx context.Context, F *flow.Flow) error {
		m, err := ms.start(flow.FromContext(ctx))
		if err != nil {
			return err
		}
		return runFlow(ctx, F, m)
	}
	cmd.AddCommand(
		newFlowPhononsCmd(managerFn, runFn),
		newFlowStatusCmd(managerFn),
		newFlowResumeCmd(managerFn, runFn),
	)
	return cmd
}

//metricsServer serves the scheduler metrics at addr. A command can run several
//schedulers, all of them share the server and the metrics.
type metricsServer struct {
	addr    string
	once    sync.Once
	metrics *flow.Metrics
	srv     *http.Server
	ln      net.Listener
	err     error
}

//start starts the server the first time it is called and returns the metrics. It returns
//nil metrics if there is no address to serve them at.
func (ms *metricsServer) start(logger *slog.Logger) (*flow.Metrics, error) {
	if ms.addr == "" {
		return nil, nil
	}
	ms.once.Do(func() {
		reg := prometheus.NewRegistry()
		if ms.metrics, ms.err = flow.RegisterMetrics(reg); ms.err != nil {
			return
		}
		if ms.ln, ms.err = net.Listen("tcp", ms.addr); ms.err != nil {
			return
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		ms.srv = &http.Server{Handler: mux}
		logger.Info("serving metrics", "addr", ms.ln.Addr().String())
		go func() {
			if err := ms.srv.Serve(ms.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", "error", err)
			}
		}()
	})
	return ms.metrics, ms.err
}

func (ms *metricsServer) close() error {
	if ms.srv == nil {
		return nil
	}
	return ms.srv.Close()
}

//runFlow runs F with a scheduler. m can be nil.
func runFlow(ctx context.Context, F *flow.Flow, m *flow.Metrics) error {
	S := flow.NewScheduler(F)
	S.Logger = flow.FromContext(ctx)
	S.Metrics = m
	if err := S.Run(ctx); err != nil {
		return err
	}
	if !F.AllOK() {
		return fmt.Errorf("flow in %s finished with status %s", F.Workdir(), F.Status())
	}
	return nil
}

//parseQpt parses a q-point given as "qx,qy,qz" in reduced coordinates.
func parseQpt(s string) ([3]float64, error) {
	var q [3]float64
	fields := strings.Split(s, ",")
	if len(fields) != 3 {
		return q, fmt.Errorf("wrong q-point %q, expected qx,qy,qz", s)
	}
	vals, err := abinit.ParseFortranFloats(fields)
	if err != nil {
		return q, fmt.Errorf("wrong q-point %q: %w", s, err)
	}
	copy(q[:], vals)
	return q, nil
}

//phononOptions are the parameters of the phonon flow built by "abigo flow phonons".
type phononOptions struct {
	ucell     string
	pseudos   []string
	pseudoDir string
	ecut      float64
	nband     int
	ngkpt     []int
	qpts      []string
	ndivsm    int
	nqsmall   int
	dosMethod string
}

func defaultPhononOptions() phononOptions {
	return phononOptions{
		ucell:     "AlAs",
		pseudos:   []string{"13al.981214.fhi", "33as.pspnc"},
		ecut:      3.0,
		nband:     4,
		ngkpt:     []int{4, 4, 4},
		qpts:      []string{"0,0,0", "0.25,0,0", "0.5,0,0", "0.25,0.25,0", "0.5,0.25,0", "-0.25,0.25,0", "0.5,0.5,0", "-0.25,0.5,0.25"},
		ndivsm:    10,
		nqsmall:   10,
		dosMethod: "tetra",
	}
}

//inputs returns the ground state input followed by one phonon input per q-point.
func (O phononOptions) inputs() ([]*flow.AbinitInput, error) {
	if len(O.ngkpt) != 3 {
		return nil, fmt.Errorf("ngkpt needs 3 values, got %v", O.ngkpt)
	}
	var qpts [][3]float64
	for _, s := range O.qpts {
		q, err := parseQpt(s)
		if err != nil {
			return nil, err
		}
		qpts = append(qpts, q)
	}
	S, err := abinit.StructureFromUcell(O.ucell)
	if err != nil {
		return nil, err
	}
	M, err := flow.NewMultiDataset(S, O.pseudos, 1+len(qpts))
	if err != nil {
		return nil, err
	}
	global := map[string]any{
		"nband":   O.nband,
		"ecut":    O.ecut,
		"ngkpt":   O.ngkpt,
		"nshiftk": 1,
		"shiftk":  []float64{0, 0, 0},
		"tolvrs":  1.0e-8,
	}
	if O.pseudoDir != "" {
		global["pp_dirpath"] = O.pseudoDir
	}
	M.SetVariables(global)
	for i, q := range qpts {
		d, err := M.Dataset(i + 2)
		if err != nil {
			return nil, err
		}
		d.SetVariable("nstep", 20).
			SetVariable("rfphon", 1).
			SetVariable("nqpt", 1).
			SetVariable("qpt", []float64{q[0], q[1], q[2]})
	}
	return M.SplitDatasets(), nil
}

func newFlowPhononsCmd(managerFn func(context.Context) (*flow.Manager, error), runFn func(context.Context, *flow.Flow) error) *cobra.Command {
	var workdir string
	O := defaultPhononOptions()
	cmd := &cobra.Command{
		Use:   "phonons",
		Short: "Compute the phonon band structure and DOS of a crystal with DFPT",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			M, err := managerFn(ctx)
			if err != nil {
				return err
			}
			inputs, err := O.inputs()
			if err != nil {
				return err
			}
			F, err := flow.PhononFlow(ctx, workdir, M, inputs[0], inputs[1:])
			if err != nil {
				return err
			}
			logger := flow.WithFlow(flow.FromContext(ctx), F)
			ctx = flow.WithLogger(ctx, logger)
			if err := F.BuildAndDump(); err != nil {
				return err
			}
			if err := runFn(ctx, F); err != nil {
				return err
			}
			out, err := F.MergeDDBs(ctx, "out_DDB", fmt.Sprintf("DDB of the %s phonon flow", O.ucell))
			if err != nil {
				return err
			}
			logger.Info("DDB files merged", "path", out)
			ngqpt := [3]int{O.ngkpt[0], O.ngkpt[1], O.ngkpt[2]}
			ain, err := flow.PhbandsAndDos(inputs[0].Structure, ngqpt, O.ndivsm, O.nqsmall, O.dosMethod)
			if err != nil {
				return err
			}
			aw := flow.NewWork(M)
			aw.RegisterTask(flow.NewAnaddbTask(ain, flow.FileNode{Path: out}, M))
			F.RegisterWork(aw)
			if err := F.Allocate(); err != nil {
				return err
			}
			if err := F.BuildAndDump(); err != nil {
				return err
			}
			if err := runFn(ctx, F); err != nil {
				return err
			}
			if err := F.Finalize(ctx); err != nil {
				return err
			}
			return F.ShowStatus(cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVar(&workdir, "workdir", "flow_phonons", "Directory of the flow")
	f.StringVar(&O.ucell, "ucell", O.ucell, fmt.Sprintf("Crystal, one of %v", abinit.Ucells()))
	f.StringSliceVar(&O.pseudos, "pseudos", O.pseudos, "Pseudopotential files, one per atom type")
	f.StringVar(&O.pseudoDir, "pseudo-dir", "", "Directory of the pseudopotentials")
	f.Float64Var(&O.ecut, "ecut", O.ecut, "Plane wave cutoff, Ha")
	f.IntVar(&O.nband, "nband", O.nband, "Number of bands")
	f.IntSliceVar(&O.ngkpt, "ngkpt", O.ngkpt, "k-point mesh, also used as q-point mesh")
	f.StringArrayVar(&O.qpts, "qpt", O.qpts, "q-point in reduced coordinates, as qx,qy,qz (repeat the flag for more)")
	f.IntVar(&O.ndivsm, "ndivsm", O.ndivsm, "Divisions of the smallest segment of the q-path")
	f.IntVar(&O.nqsmall, "nqsmall", O.nqsmall, "Divisions of the smallest reciprocal vector for the phonon DOS")
	f.StringVar(&O.dosMethod, "dos-method", O.dosMethod, `Phonon DOS method: "tetra" or "gaussian: <width> eV"`)
	return cmd
}

func newFlowStatusCmd(managerFn func(context.Context) (*flow.Manager, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "status <DIR>",
		Short: "Show the status of the tasks of a flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			F, err := loadFlow(cmd.Context(), managerFn, args[0])
			if err != nil {
				return err
			}
			if err := F.CheckStatus(cmd.Context()); err != nil {
				return err
			}
			if err := F.Dump(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Flow %s in %s: %s\n", F.UID(), F.Workdir(), F.Status())
			return F.ShowStatus(cmd.OutOrStdout())
		},
	}
}

func newFlowResumeCmd(managerFn func(context.Context) (*flow.Manager, error), runFn func(context.Context, *flow.Flow) error) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <DIR>",
		Short: "Run the pending tasks of a saved flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			F, err := loadFlow(ctx, managerFn, args[0])
			if err != nil {
				return err
			}
			if err := runFn(flow.WithLogger(ctx, flow.WithFlow(flow.FromContext(ctx), F)), F); err != nil {
				return err
			}
			return F.ShowStatus(cmd.OutOrStdout())
		},
	}
}

func loadFlow(ctx context.Context, managerFn func(context.Context) (*flow.Manager, error), dir string) (*flow.Flow, error) {
	M, err := managerFn(ctx)
	if err != nil {
		return nil, err
	}
	F, err := flow.LoadFlow(dir, M)
	if err != nil {
		return nil, err
	}
	flow.FromContext(ctx).Debug("flow loaded", slog.String("uid", F.UID()), slog.Int("ntasks", len(F.Tasks())))
	return F, nil
}
