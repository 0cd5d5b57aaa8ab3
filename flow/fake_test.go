package flow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	abinit "github.com/rmera/goabinit"
	"github.com/stretchr/testify/require"
)

//fakeLauncher pretends to be ABINIT and anaddb: it writes the output files the
//flow looks for, without computing anything.
type fakeLauncher struct {
	mu       sync.Mutex
	jobs     []Job
	behavior map[string]string //job name -> fail, block, critical, unconverged or incomplete
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{behavior: make(map[string]string)}
}

func (L *fakeLauncher) names() []string {
	L.mu.Lock()
	defer L.mu.Unlock()
	ret := make([]string, len(L.jobs))
	for i, v := range L.jobs {
		ret[i] = v.Name
	}
	return ret
}

const completed = "\n Calculation completed.\n"

//qptFromInput returns the value of qpt in an input file, or gamma.
func qptFromInput(input string) string {
	for _, line := range strings.Split(input, "\n") {
		if rest, ok := strings.CutPrefix(line, "qpt "); ok {
			return strings.Join(strings.Fields(rest), ", ")
		}
	}
	return "0.0, 0.0, 0.0"
}

func (L *fakeLauncher) Run(ctx context.Context, J Job) error {
	L.mu.Lock()
	L.jobs = append(L.jobs, J)
	behavior := L.behavior[J.Name]
	L.mu.Unlock()
	if behavior == "fail" {
		return fmt.Errorf("%s: command not found", J.Args[0])
	}
	if behavior == "block" {
		<-ctx.Done()
		return fmt.Errorf("%s: killed: %w", J.Args[0], ctx.Err())
	}
	input, err := os.ReadFile(filepath.Join(J.Dir, inputName))
	if err != nil {
		return err
	}
	write := func(name, text string) error {
		return os.WriteFile(filepath.Join(J.Dir, name), []byte(text), 0o644)
	}
	if J.Name == "irredperts" {
		q := qptFromInput(string(input))
		var b strings.Builder
		b.WriteString("--- !IrredPerts\nirred_perts:\n")
		for _, ipert := range []int{1, 2, 3} {
			fmt.Fprintf(&b, "  - qpt: [%s]\n    ipert: %d\n    idir: 1\n", q, ipert)
		}
		b.WriteString("...\n")
		return write(J.Stdout, b.String())
	}
	abo := "fake output\n"
	switch behavior {
	case "critical":
		abo += "--- !ERROR\nsrc_file: m_fake.F90\nsrc_line: 42\nmessage: |\n    Something went wrong\n...\n"
	case "unconverged":
		abo += "--- !ScfConvergenceWarning\nmessage: not converged\n...\n" + completed
	case "incomplete":
	default:
		abo += completed
	}
	if J.Args[0] == "abinit" {
		out := filepath.Join(J.Dir, outdata)
		if strings.Contains(string(input), "\nrfphon ") {
			src := "../ddb/testdata/gamma_DDB"
			if qptFromInput(string(input)) != "0.0, 0.0, 0.0" {
				src = "../ddb/testdata/q1_DDB"
			}
			data, err := os.ReadFile(src)
			if err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(out, "out_DDB"), data, 0o644); err != nil {
				return err
			}
		} else if err := os.WriteFile(filepath.Join(out, "out_WFK"), []byte("fake WFK"), 0o644); err != nil {
			return err
		}
	}
	if err := write(J.Stderr, ""); err != nil {
		return err
	}
	if err := write(J.Stdout, "fake log\n"); err != nil {
		return err
	}
	return write(outputName, abo)
}

func testManager(L Launcher) *Manager {
	return &Manager{
		ManagerConfig: ManagerConfig{
			Abinit:       "abinit",
			Anaddb:       "anaddb",
			MPIRunner:    "mpirun",
			MPINcpus:     1,
			OMPThreads:   1,
			MaxJobs:      2,
			PollInterval: time.Millisecond,
			DryRunPerts:  true,
		},
		Launcher: L,
	}
}

//phononInputs returns the ground state input and one phonon input per q-point, for AlAs,
//split from a multi-dataset input.
func phononInputs(t *testing.T, qpts [][3]float64) []*AbinitInput {
	S, err := abinit.StructureFromUcell("AlAs")
	require.NoError(t, err)
	M, err := NewMultiDataset(S, []string{"13al.981214.fhi", "33as.pspnc"}, 1+len(qpts))
	require.NoError(t, err)
	M.SetVariables(map[string]any{
		"nband":   4,
		"ecut":    3.0,
		"ngkpt":   []int{4, 4, 4},
		"nshiftk": 1,
		"shiftk":  []float64{0, 0, 0},
		"tolvrs":  1.0e-8,
	})
	for i, q := range qpts {
		d, err := M.Dataset(i + 2)
		require.NoError(t, err)
		d.SetVariable("nstep", 20).
			SetVariable("rfphon", 1).
			SetVariable("nqpt", 1).
			SetVariable("qpt", []float64{q[0], q[1], q[2]})
	}
	return M.SplitDatasets()
}
