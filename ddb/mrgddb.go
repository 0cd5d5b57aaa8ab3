/*
 * mrgddb.go, part of goabinit.
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
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

//Mrgddb merges DDB files with the mrgddb program distributed with ABINIT.
type Mrgddb struct {
	command []string
	Logger  *slog.Logger
}

//NewMrgddb returns a Mrgddb that runs the mrgddb found in the PATH.
func NewMrgddb() *Mrgddb {
	return &Mrgddb{command: []string{"mrgddb"}, Logger: slog.Default()}
}

//SetCommand sets the command used to run mrgddb. It can include arguments, or a wrapper
//like "mpirun -n 1 mrgddb".
func (M *Mrgddb) SetCommand(command string) {
	M.command = strings.Fields(command)
}

//Command returns the command used to run mrgddb.
func (M *Mrgddb) Command() string {
	return strings.Join(M.command, " ")
}

//Stdin returns the input mrgddb reads from the standard input to merge paths into out.
func Stdin(paths []string, out, description string) string {
	lines := make([]string, 0, len(paths)+3)
	lines = append(lines, out, description, fmt.Sprint(len(paths)))
	lines = append(lines, paths...)
	return strings.Join(lines, "\n") + "\n"
}

//Merge runs mrgddb in the directory cwd to merge the DDB files in paths into out, and
//returns out. A relative out is taken from cwd. The input for mrgddb is written to cwd/mrgddb.stdin and its output
//to cwd/mrgddb.stdout and cwd/mrgddb.stderr. A single file is just copied.
func (M *Mrgddb) Merge(ctx context.Context, paths []string, out, description, cwd string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("goAbinit/ddb: no DDB files to merge into %s", out)
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(cwd, out)
	}
	if len(paths) == 1 {
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return "", err
		}
		return Merge(out, description, paths...)
	}
	if len(M.command) == 0 {
		return "", fmt.Errorf("goAbinit/ddb: empty mrgddb command")
	}
	if err := os.MkdirAll(cwd, 0o755); err != nil {
		return "", err
	}
	stdinPath := filepath.Join(cwd, "mrgddb.stdin")
	if err := os.WriteFile(stdinPath, []byte(Stdin(paths, out, description)), 0o644); err != nil {
		return "", err
	}
	stdin, err := os.Open(stdinPath)
	if err != nil {
		return "", err
	}
	defer stdin.Close()
	stdout, err := os.Create(filepath.Join(cwd, "mrgddb.stdout"))
	if err != nil {
		return "", err
	}
	defer stdout.Close()
	stderr, err := os.Create(filepath.Join(cwd, "mrgddb.stderr"))
	if err != nil {
		return "", err
	}
	defer stderr.Close()
	cmd := exec.CommandContext(ctx, M.command[0], M.command[1:]...)
	cmd.Dir = cwd
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	logger := M.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("running mrgddb", "command", M.Command(), "cwd", cwd, "ninputs", len(paths), "out", out)
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("goAbinit/ddb: mrgddb failed (see %s): %w", filepath.Join(cwd, "mrgddb.stderr"), err)
	}
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("goAbinit/ddb: mrgddb didn't produce %s: %w", out, err)
	}
	return out, nil
}
