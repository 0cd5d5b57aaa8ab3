/*
 * flow_test.go, part of goabinit.
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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	abinit "github.com/rmera/goabinit"
	"github.com/rmera/goabinit/ddb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testQpts = [][3]float64{{0, 0, 0}, {0.25, 0, 0}}

func TestStatus(t *testing.T) {
	assert.True(t, Init < Locked && Ready < Running && Done < OK && OK < Error)
	for _, s := range []Status{OK, Unconverged, AbiCritical, Error} {
		assert.True(t, s.IsTerminal(), s.String())
	}
	for _, s := range []Status{Init, Locked, Ready, Submitted, Running, Done} {
		assert.False(t, s.IsTerminal(), s.String())
	}
	assert.False(t, OK.IsFailure())
	assert.True(t, AbiCritical.IsFailure())
	s, err := ParseStatus("Unconverged")
	require.NoError(t, err)
	assert.Equal(t, Unconverged, s)
	_, err = ParseStatus("Finished")
	assert.Error(t, err)
	b, err := AbiCritical.MarshalText()
	require.NoError(t, err)
	require.NoError(t, s.UnmarshalText(b))
	assert.Equal(t, AbiCritical, s)
	assert.Equal(t, "Status(42)", Status(42).String())
}

func TestMultiDataset(t *testing.T) {
	inputs := phononInputs(t, testQpts)
	require.Len(t, inputs, 3)
	_, ok := inputs[0].Get("rfphon")
	assert.False(t, ok, "the ground state dataset should not have rfphon")
	for _, in := range inputs[1:] {
		v, ok := in.Get("rfphon")
		require.True(t, ok)
		assert.Equal(t, 1, v)
		v, _ = in.Get("ecut")
		assert.Equal(t, 3.0, v)
	}
	text := inputs[2].String()
	assert.Contains(t, text, `pseudos "13al.981214.fhi, 33as.pspnc"`)
	assert.Contains(t, text, "ecut 3.0\n")
	assert.Contains(t, text, "tolvrs 1e-08\n")
	assert.Contains(t, text, "qpt 0.25 0.0 0.0\n")
	assert.Contains(t, text, "natom 2\n")
	assert.Contains(t, text, "rprim\n    0.0 5.305 5.305\n")

	S, err := abinit.StructureFromUcell("AlAs")
	require.NoError(t, err)
	M, err := NewMultiDataset(S, []string{"al.psp8", "as.psp8"}, 2)
	require.NoError(t, err)
	M.SetVariable("ecut", 10)
	d, err := M.Dataset(2)
	require.NoError(t, err)
	d.SetVariable("ecut", 20)
	assert.Contains(t, M.String(), "ndtset 2\n")
	assert.Contains(t, M.String(), "ecut2 20\n")
	split := M.SplitDatasets()
	v, _ := split[1].Get("ecut")
	assert.Equal(t, 20, v)
	v, _ = split[0].Get("ecut")
	assert.Equal(t, 10, v)

	_, err = M.Dataset(0)
	assert.ErrorIs(t, err, ErrBadDataset)
	_, err = M.Dataset(3)
	assert.ErrorIs(t, err, ErrBadDataset)
	_, err = NewMultiDataset(S, nil, 0)
	assert.ErrorIs(t, err, ErrBadDataset)
	_, err = NewAbinitInput(S, "only_one.psp8")
	assert.Error(t, err)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "1 2 3", formatValue([]int{1, 2, 3}))
	assert.Equal(t, "0.5 1.0", formatValue([2]float64{0.5, 1}))
	assert.Equal(t, "    1 0\n    0 1", formatValue([][]int{{1, 0}, {0, 1}}))
	assert.Equal(t, "1", formatValue(true))
	assert.Equal(t, "3.0 eV", formatValue("3.0 eV"))
	assert.Equal(t, "OK", formatValue(OK))
	assert.Equal(t, "1e-10", formatValue(1e-10))
}

func TestPhbandsAndDos(t *testing.T) {
	S, err := abinit.StructureFromUcell("AlAs")
	require.NoError(t, err)
	A, err := PhbandsAndDos(S, [3]int{4, 4, 4}, 5, 10, "gaussian: 0.001 eV")
	require.NoError(t, err)
	v, _ := A.Get("prtdos")
	assert.Equal(t, 1, v)
	v, _ = A.Get("dossmear")
	assert.InDelta(t, 0.001*abinit.EV2Ha, v, 1e-12)
	v, _ = A.Get("ng2qpt")
	assert.Equal(t, []int{10, 10, 10}, v, "all the reciprocal vectors of fcc have the same length")
	text := A.String()
	assert.Contains(t, text, "ngqpt 4 4 4\n")
	assert.Contains(t, text, "ndivsm 5\n")
	assert.Contains(t, text, "nqpath 6\n")

	A, err = PhbandsAndDos(S, [3]int{4, 4, 4}, 5, 10, "tetra")
	require.NoError(t, err)
	v, _ = A.Get("prtdos")
	assert.Equal(t, 2, v)
	_, ok := A.Get("dossmear")
	assert.False(t, ok)

	A, err = PhbandsAndDos(S, [3]int{4, 4, 4}, 5, 10, "gaussian: 4e-5 Ha")
	require.NoError(t, err)
	v, _ = A.Get("dossmear")
	assert.InDelta(t, 4e-5, v, 1e-15)

	for _, bad := range []string{"lorentzian", "gaussian", "gaussian: -1 eV", "gaussian: 1 Ry"} {
		_, err = PhbandsAndDos(S, [3]int{4, 4, 4}, 5, 10, bad)
		assert.Error(t, err, bad)
	}
	_, err = PhbandsAndDos(S, [3]int{4, 4, 4}, 0, 10, "tetra")
	assert.Error(t, err)
	S.Path = nil
	A, err = PhbandsAndDos(S, [3]int{4, 4, 4}, 5, 10, "tetra")
	require.NoError(t, err, "the fcc path is found from the lattice")
	v, _ = A.Get("nqpath")
	assert.Equal(t, len(abinit.FCCPath), v)
	S.Path = abinit.KPath{{Name: "G"}}
	_, err = PhbandsAndDos(S, [3]int{4, 4, 4}, 5, 10, "tetra")
	assert.ErrorIs(t, err, abinit.ErrShortPath)

	mg, err := abinit.StructureFromUcell("MgB2")
	require.NoError(t, err)
	q := QMesh(mg, 10)
	assert.Equal(t, q[0], q[1])
	assert.Less(t, q[2], q[0], "c is longer than a, so c* is shorter")
}

func TestManager(t *testing.T) {
	dir := t.TempDir()
	conf := "abinit: /opt/abinit/bin/abinit\nmpi_ncpus: 2\npoll_interval: 2s\npre_run:\n  - module load abinit\n  - ulimit -s unlimited\n"
	path := filepath.Join(dir, "manager.yml")
	require.NoError(t, os.WriteFile(path, []byte(conf), 0o644))
	t.Setenv("ABIGO_MAX_JOBS", "3")

	M, err := LoadManagerFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/abinit/bin/abinit", M.Abinit)
	assert.Equal(t, "anaddb", M.Anaddb)
	assert.Equal(t, 2*time.Second, M.PollInterval)
	assert.Equal(t, 3, M.MaxJobs)
	assert.Len(t, M.PreRun, 2)
	assert.Equal(t, []string{"mpirun", "-n", "2", "/opt/abinit/bin/abinit"}, M.Command(M.Abinit))
	assert.Equal(t, []string{"OMP_NUM_THREADS=1"}, M.Env())
	assert.IsType(t, &ShellLauncher{}, M.Launcher)

	sh := M.ToShellManager(1)
	assert.Equal(t, 1, sh.MaxJobs)
	assert.Equal(t, []string{"/opt/abinit/bin/abinit"}, sh.Command(sh.Abinit))
	assert.Equal(t, 2, M.MPINcpus, "ToShellManager should not change the original")

	t.Chdir(dir)
	M, err = LoadManager()
	require.NoError(t, err)
	assert.Equal(t, "/opt/abinit/bin/abinit", M.Abinit)

	require.NoError(t, os.WriteFile(path, []byte("mpi_ncpus: 0\n"), 0o644))
	_, err = LoadManagerFromPath(path)
	assert.Error(t, err)
	_, err = LoadManagerFromPath(filepath.Join(dir, "nothere.yml"))
	assert.Error(t, err)
}

func TestManagerMergeDDBs(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "mrgddb.sh")
	//copies the first DDB to the output, it is enough to see that it ran.
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nread out\nread desc\nread n\nread f\ncat \"$f\" > \"$out\"\n"), 0o755))
	gamma, err := filepath.Abs("../ddb/testdata/gamma_DDB")
	require.NoError(t, err)
	q1, err := filepath.Abs("../ddb/testdata/q1_DDB")
	require.NoError(t, err)
	M := testManager(newFakeLauncher())
	M.MPIRunner = "mpirun-that-does-not-exist"
	M.MPINcpus = 4
	M.Mrgddb = script
	out, err := M.MergeDDBs(context.Background(), []string{gamma, q1}, "out_DDB", "two files", dir)
	require.NoError(t, err, "mrgddb runs without the MPI runner")
	assert.Equal(t, filepath.Join(dir, "out_DDB"), out)
	assert.FileExists(t, out)
}

func TestJobScript(t *testing.T) {
	J := Job{
		Name:   "w0_t0",
		Dir:    "/scratch/my flow/w0/t0",
		Args:   []string{"mpirun", "-n", "2", "abinit", "run.abi"},
		Stdout: "run.log",
		Stderr: "run.err",
		Env:    []string{"OMP_NUM_THREADS=1"},
		PreRun: []string{"module load abinit"},
	}
	s := J.Script()
	assert.Contains(t, s, "cd '/scratch/my flow/w0/t0'\n")
	assert.Contains(t, s, "export OMP_NUM_THREADS=1\n")
	assert.Contains(t, s, "module load abinit\nexec mpirun -n 2 abinit run.abi > run.log 2> run.err\n")
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
	assert.Equal(t, "''", shellQuote(""))

	dir := t.TempDir()
	L := &ShellLauncher{}
	err := L.Run(context.Background(), Job{Name: "echo", Dir: dir, Args: []string{"echo", "hello"}, Stdout: "out.txt"})
	require.NoError(t, err)
	out, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))
	assert.FileExists(t, filepath.Join(dir, jobScript))
	err = L.Run(context.Background(), Job{Name: "false", Dir: dir, Args: []string{"false"}})
	assert.Error(t, err)
}

//TestPhononFlow runs the phonons of AlAs task by task: ground state, one work per q-point
//with one task per perturbation, merge of the DDB files and anaddb with two DOS methods.
func TestPhononFlow(t *testing.T) {
	ctx := context.Background()
	L := newFakeLauncher()
	M := testManager(L)
	inputs := phononInputs(t, testQpts)
	workdir := t.TempDir()
	F, err := PhononFlow(ctx, workdir, M, inputs[0], inputs[1:])
	require.NoError(t, err)
	require.Equal(t, 3, F.Len())
	assert.Equal(t, 2, F.Work(1).Len(), "ipert 3 is not an atomic displacement")
	assert.Equal(t, PhononWork, F.Work(1).Kind())
	require.NoError(t, F.BuildAndDump())
	assert.FileExists(t, filepath.Join(workdir, DumpName))

	in, err := os.ReadFile(F.Work(1).Task(1).InputPath())
	require.NoError(t, err)
	assert.Contains(t, string(in), "rfatpol 2 2\n")
	assert.Contains(t, string(in), "rfdir 1 0 0\n")
	assert.Contains(t, string(in), "irdwfk 1\n")
	assert.Contains(t, string(in), `output_file "run.abo"`)

	t0 := F.Work(0).Task(0)
	assert.Equal(t, Ready, t0.CheckStatus())
	assert.Equal(t, Locked, F.Work(1).Task(0).CheckStatus())
	assert.ErrorIs(t, F.Work(1).Task(0).StartAndWait(ctx), ErrNotReady)

	require.NoError(t, t0.StartAndWait(ctx))
	assert.Equal(t, Done, t0.Status())
	assert.Equal(t, OK, t0.CheckStatus())

	for _, w := range F.Works()[1:] {
		for _, task := range w.Tasks() {
			require.NoError(t, task.StartAndWait(ctx))
			assert.Equal(t, Done, task.Status())
			link, err := os.Readlink(filepath.Join(task.Indir(), "in_WFK"))
			require.NoError(t, err)
			assert.Equal(t, t0.OutputFile("WFK"), link)
		}
	}
	require.NoError(t, F.CheckStatus(ctx))
	for i, w := range F.Works() {
		assert.True(t, w.AllOK(), "work %d", i)
		assert.True(t, w.Finalized(), "work %d", i)
		if i == 0 {
			continue
		}
		ddbs, err := filepath.Glob(filepath.Join(w.Outdir(), "*DDB"))
		require.NoError(t, err)
		assert.Len(t, ddbs, 1)
	}
	assert.True(t, F.AllOK())
	assert.Equal(t, OK, F.Status())

	out, err := F.MergeDDBs(ctx, "flow_DDB", "DDB of the AlAs phonon flow")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(F.Outdir(), "flow_DDB"), out)
	merged, err := ddb.Read(out)
	require.NoError(t, err)
	assert.Len(t, merged.Blocks, 3)
	q, err := merged.QPoints()
	require.NoError(t, err)
	assert.Len(t, q, 2)

	for _, method := range []string{"gaussian: 0.001 eV", "tetra"} {
		ain, err := PhbandsAndDos(inputs[0].Structure, [3]int{4, 4, 4}, 5, 10, method)
		require.NoError(t, err)
		aw := NewWork(M)
		atask := aw.RegisterTask(NewAnaddbTask(ain, FileNode{out}, M))
		F.RegisterWork(aw)
		require.NoError(t, F.Allocate())
		require.NoError(t, F.Build())
		require.NoError(t, atask.StartAndWait(ctx))
		assert.Equal(t, Done, atask.Status())
		require.NoError(t, F.CheckStatus(ctx))
		assert.Equal(t, OK, atask.Status())
		assert.FileExists(t, filepath.Join(atask.Indir(), "in_DDB"))
		text, err := os.ReadFile(atask.InputPath())
		require.NoError(t, err)
		assert.Contains(t, string(text), `ddb_filepath "indata/in_DDB"`)
		assert.Equal(t, []string{"anaddb", "run.abi"}, atask.Job().Args)
	}
	require.NoError(t, F.Finalize(ctx))
	assert.True(t, F.AllOK())
	assert.Len(t, L.names(), 2+1+4+2)

	var buf bytes.Buffer
	require.NoError(t, F.ShowStatus(&buf))
	assert.Contains(t, buf.String(), "w0_t0")
	assert.Contains(t, buf.String(), "anaddb")

	G, err := LoadFlow(workdir, M)
	require.NoError(t, err)
	assert.Equal(t, F.UID(), G.UID())
	require.Equal(t, F.Len(), G.Len())
	for i, w := range G.Works() {
		assert.Equal(t, F.Work(i).Kind(), w.Kind())
		assert.True(t, w.Finalized())
		require.Equal(t, F.Work(i).Len(), w.Len())
		for j, task := range w.Tasks() {
			orig := F.Work(i).Task(j)
			assert.Equal(t, orig.Status(), task.Status())
			assert.Equal(t, orig.Workdir(), task.Workdir())
			assert.Equal(t, orig.Kind(), task.Kind())
			assert.Len(t, task.Deps(), len(orig.Deps()))
		}
	}
	parents, err := G.Parents(G.Work(2).Task(1))
	require.NoError(t, err)
	require.Len(t, parents, 1)
	assert.Equal(t, 0, parents[0].ID())
	assert.Nil(t, G.Work(0).Task(0).Input())
	require.NoError(t, G.Build(), "the input files are already there")
}

func TestSchedulerRun(t *testing.T) {
	L := newFakeLauncher()
	M := testManager(L)
	inputs := phononInputs(t, testQpts)
	F, err := PhononFlow(context.Background(), t.TempDir(), M, inputs[0], inputs[1:])
	require.NoError(t, err)
	require.NoError(t, F.BuildAndDump())

	S := NewScheduler(F)
	S.Metrics = NewMetricsForTesting()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, S.Run(ctx))
	assert.True(t, F.AllOK())
	for _, w := range F.Works() {
		assert.True(t, w.Finalized())
	}
	assert.Equal(t, 5.0, testutil.ToFloat64(S.Metrics.TasksLaunched))
	assert.Equal(t, 5.0, testutil.ToFloat64(S.Metrics.TasksFinished.WithLabelValues("OK")))
	assert.Equal(t, 0.0, testutil.ToFloat64(S.Metrics.TasksRunning))
	assert.Equal(t, 0.0, testutil.ToFloat64(S.Metrics.FlowsRunning))
	assert.Equal(t, "w0_t0", L.names()[2], "the ground state runs after the two dry runs and before the phonons")
}

func TestRegisterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m1, err := RegisterMetrics(reg)
	require.NoError(t, err)
	m1.TasksLaunched.Inc()
	m2, err := RegisterMetrics(reg)
	require.NoError(t, err)
	assert.Same(t, m1.TasksFinished, m2.TasksFinished)
	assert.Equal(t, 1.0, testutil.ToFloat64(m2.TasksLaunched))
	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "the vectors have no children yet")

	other := prometheus.NewRegistry()
	other.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "abigo", Name: "tasks_running", Help: "Something else."}))
	_, err = RegisterMetrics(other)
	assert.Error(t, err)
	assert.NotPanics(t, func() {
		NewMetrics()
		NewMetrics()
	})
}

func TestSchedulerFakeClock(t *testing.T) {
	fc := clockwork.NewFakeClockAt(time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC))
	SetClock(fc)
	t.Cleanup(func() { SetClock(nil) })
	L := newFakeLauncher()
	M := testManager(L)
	M.DryRunPerts = false
	inputs := phononInputs(t, testQpts[:1])
	F, err := PhononFlow(context.Background(), t.TempDir(), M, inputs[0], inputs[1:])
	require.NoError(t, err)
	require.NoError(t, F.BuildAndDump())
	require.Equal(t, 1, F.Work(1).Len(), "without the dry run there is one task per q-point")

	S := NewScheduler(F)
	S.Clock = fc
	S.Interval = time.Minute
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- S.Run(ctx) }()
	for {
		select {
		case err := <-done:
			require.NoError(t, err)
			assert.True(t, F.AllOK())
			assert.Contains(t, F.Work(0).Task(0).History()[0], "2024-04-26T15:")
			return
		default:
		}
		bctx, bcancel := context.WithTimeout(ctx, 50*time.Millisecond)
		_ = fc.BlockUntilContext(bctx, 1)
		bcancel()
		fc.Advance(time.Minute)
	}
}

func TestSchedulerStalled(t *testing.T) {
	L := newFakeLauncher()
	L.behavior["w0_t0"] = "critical"
	M := testManager(L)
	inputs := phononInputs(t, testQpts)
	F, err := PhononFlow(context.Background(), t.TempDir(), M, inputs[0], inputs[1:])
	require.NoError(t, err)
	require.NoError(t, F.Build())
	S := NewScheduler(F)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err = S.Run(ctx)
	assert.ErrorIs(t, err, ErrStalled)
	t0 := F.Work(0).Task(0)
	assert.Equal(t, AbiCritical, t0.Status())
	assert.Contains(t, t0.History()[len(t0.History())-1], "m_fake.F90:42")
	assert.Equal(t, Locked, F.Work(1).Task(0).Status())
	assert.False(t, F.AllOK())
}

func TestSchedulerInterruptAndResume(t *testing.T) {
	L := newFakeLauncher()
	L.behavior["w0_t0"] = "block"
	M := testManager(L)
	inputs := phononInputs(t, testQpts[:1])
	dir := t.TempDir()
	F, err := NewFlow(dir, M)
	require.NoError(t, err)
	F.RegisterWork(NewWork(M)).Register(inputs[0])
	require.NoError(t, F.Allocate())
	require.NoError(t, F.BuildAndDump())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err = NewScheduler(F).Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	task := F.Work(0).Task(0)
	assert.Equal(t, Init, task.Status())
	assert.Contains(t, task.History()[len(task.History())-1], "interrupted")

	//The interrupted state was saved.
	G, err := LoadFlow(dir, testManager(newFakeLauncher()))
	require.NoError(t, err)
	assert.Equal(t, Init, G.Work(0).Task(0).Status())

	//A flow saved while its task was running, say by a process that was killed.
	G.Work(0).Task(0).SetStatus(Running, "")
	require.NoError(t, G.Dump())
	G, err = LoadFlow(dir, testManager(newFakeLauncher()))
	require.NoError(t, err)
	assert.Equal(t, Init, G.Work(0).Task(0).Status())

	rctx, rcancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer rcancel()
	require.NoError(t, NewScheduler(G).Run(rctx))
	assert.True(t, G.AllOK())

	//If the calculation finished while nobody was watching, the output is enough.
	G.Work(0).Task(0).SetStatus(Submitted, "")
	require.NoError(t, G.Dump())
	H, err := LoadFlow(dir, testManager(newFakeLauncher()))
	require.NoError(t, err)
	assert.Equal(t, Done, H.Work(0).Task(0).Status())
	require.NoError(t, H.CheckStatus(rctx))
	assert.Equal(t, OK, H.Work(0).Task(0).Status())
}

func TestTaskFailures(t *testing.T) {
	ctx := context.Background()
	for behavior, want := range map[string]Status{
		"":            OK,
		"unconverged": Unconverged,
		"critical":    AbiCritical,
		"incomplete":  Error,
		"fail":        Error,
	} {
		L := newFakeLauncher()
		L.behavior["w0_t0"] = behavior
		M := testManager(L)
		inputs := phononInputs(t, testQpts[:1])
		F, err := NewFlow(t.TempDir(), M)
		require.NoError(t, err)
		task := F.RegisterWork(NewWork(M)).Register(inputs[0])
		require.NoError(t, F.Allocate())
		require.NoError(t, F.Build())
		err = task.StartAndWait(ctx)
		if behavior == "fail" {
			assert.Error(t, err)
		} else {
			assert.NoError(t, err)
		}
		require.NoError(t, F.CheckStatus(ctx))
		assert.Equal(t, want, task.Status(), "behavior %q", behavior)
		assert.Equal(t, want == OK, F.Work(0).Finalized(), "behavior %q", behavior)
	}
}

func TestCycles(t *testing.T) {
	M := testManager(newFakeLauncher())
	inputs := phononInputs(t, testQpts[:1])
	F, err := NewFlow(t.TempDir(), M)
	require.NoError(t, err)
	W := F.RegisterWork(NewWork(M))
	a := W.Register(inputs[0])
	b := W.Register(inputs[1], Dep{a, []string{"WFK"}})
	a.AddDeps(Dep{b, []string{"DEN"}})
	assert.ErrorIs(t, F.Allocate(), ErrCycle)

	G, err := NewFlow(t.TempDir(), M)
	require.NoError(t, err)
	W = G.RegisterWork(NewWork(M))
	c := W.Register(inputs[0])
	c.AddDeps(Dep{W, []string{"DDB"}})
	assert.ErrorIs(t, G.Allocate(), ErrCycle)
	assert.ErrorIs(t, G.Build(), ErrNotAllocated)

	H, err := NewFlow(t.TempDir(), M)
	require.NoError(t, err)
	W = H.RegisterWork(NewWork(M))
	first := W.Register(inputs[0])
	W2 := H.RegisterWork(NewWork(M))
	second := W2.Register(inputs[1], Dep{W, []string{"WFK"}})
	require.NoError(t, H.Allocate())
	order, err := H.Order()
	require.NoError(t, err)
	assert.Equal(t, []*Task{first, second}, order)
	assert.True(t, strings.HasSuffix(second.Workdir(), filepath.Join("w1", "t0")))
}
