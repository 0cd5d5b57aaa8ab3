package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/rmera/goabinit/ddb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, v := range []string{"scf", "timer", "fatbands", "ddb", "flow", "browse", "source"} {
		assert.Contains(t, names, v)
	}
	_, err := execute(t, "scf")
	assert.Error(t, err, "scf needs a file")
	_, err = execute(t, "flow", "status", filepath.Join(t.TempDir(), "nothere"))
	assert.Error(t, err)
}

func TestMetricsServer(t *testing.T) {
	none := &metricsServer{}
	m, err := none.start(slog.Default())
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.NoError(t, none.close())

	//The phonon command runs two schedulers with the same server.
	ms := &metricsServer{addr: "127.0.0.1:0"}
	m1, err := ms.start(slog.Default())
	require.NoError(t, err)
	m2, err := ms.start(slog.Default())
	require.NoError(t, err)
	assert.Same(t, m1, m2)
	m1.TasksRunning.Set(2)
	resp, err := http.Get("http://" + ms.ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "abigo_tasks_running 2")
	assert.NoError(t, ms.close())
}

func TestParseQpt(t *testing.T) {
	q, err := parseQpt("0.25,0,-0.5")
	require.NoError(t, err)
	assert.Equal(t, [3]float64{0.25, 0, -0.5}, q)
	_, err = parseQpt("0.25,0")
	assert.Error(t, err)
	_, err = parseQpt("a,b,c")
	assert.Error(t, err)
}

func TestPhononInputs(t *testing.T) {
	O := defaultPhononOptions()
	O.qpts = []string{"0,0,0", "0.5,0,0"}
	inputs, err := O.inputs()
	require.NoError(t, err)
	require.Len(t, inputs, 3)
	_, ok := inputs[0].Get("rfphon")
	assert.False(t, ok, "the first input is the ground state")
	for _, in := range inputs[1:] {
		v, ok := in.Get("rfphon")
		require.True(t, ok)
		assert.Equal(t, 1, v)
	}
	assert.Contains(t, inputs[2].String(), "qpt 0.5 0.0 0.0")

	O.ngkpt = []int{4, 4}
	_, err = O.inputs()
	assert.Error(t, err)
	O = defaultPhononOptions()
	O.ucell = "Unobtainium"
	_, err = O.inputs()
	assert.Error(t, err)
}

func TestDDBMerge(t *testing.T) {
	out := filepath.Join(t.TempDir(), "merged_DDB")
	stdout, err := execute(t, "ddb", "merge", "-o", out, "../../ddb/testdata/gamma_DDB", "../../ddb/testdata/q1_DDB")
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 blocks, 2 q-points")
	D, err := ddb.Read(out)
	require.NoError(t, err)
	assert.Equal(t, "DDB merged by abigo", D.Description())

	stdout, err = execute(t, "ddb", "info", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "q =   0.2500")

	_, err = execute(t, "ddb", "merge", "../../ddb/testdata/gamma_DDB")
	assert.Error(t, err, "-o is required")
}

func TestPlotCommands(t *testing.T) {
	dir := t.TempDir()
	stdout, err := execute(t, "scf", "../../abio/testdata/run.abo", "-o", filepath.Join(dir, "gs"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 iterations")
	assert.FileExists(t, filepath.Join(dir, "gs_0.png"))
	assert.FileExists(t, filepath.Join(dir, "gs_1.png"))

	_, err = execute(t, "scf", "--dfpt", "../../abio/testdata/run.abo", "-o", filepath.Join(dir, "dfpt"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "dfpt_0.png"))

	pie := filepath.Join(dir, "pie.png")
	stdout, err = execute(t, "timer", "--key", "wall", "-o", pie, "../../abio/testdata/run.abo")
	require.NoError(t, err)
	assert.Contains(t, stdout, "fourwf%(pot)")
	info, err := os.Stat(pie)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	_, err = execute(t, "timer", "--key", "gpu", "-o", pie, "../../abio/testdata/run.abo")
	assert.Error(t, err)
}

func TestNotebookCommands(t *testing.T) {
	stdout, err := execute(t, "browse", "--list", "../../abio/testdata")
	require.NoError(t, err)
	assert.Contains(t, stdout, "run.abo")
	assert.Contains(t, stdout, "GS SCF cycles")

	page := filepath.Join(t.TempDir(), "files.html")
	_, err = execute(t, "browse", "--html", page, "--widget", "radiobuttons", "../../abio/testdata")
	require.NoError(t, err)
	assert.FileExists(t, page)

	_, err = execute(t, "browse", "--html", page, "--widget", "slider", "../../abio/testdata")
	assert.ErrorContains(t, err, "tooglebuttons")

	stdout, err = execute(t, "source", "--format", "text", "../../notebook", "Summary")
	require.NoError(t, err)
	assert.Contains(t, stdout, "func Summary(path string) string")
}
