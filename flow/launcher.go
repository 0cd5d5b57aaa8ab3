/*
 * launcher.go, part of goabinit.
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
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

//Job is a program to be run in a directory, with its standard streams redirected to files
//in that directory.
type Job struct {
	Name   string
	Dir    string
	Args   []string //the command line, program included.
	Stdin  string   //file names, relative to Dir. Empty means no redirection.
	Stdout string
	Stderr string
	Env    []string //NAME=value
	PreRun []string //shell commands run before the program.
}

//Script returns a shell script that runs the job.
func (J Job) Script() string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&b, "# %s\n", J.Name)
	fmt.Fprintf(&b, "cd %s\n", shellQuote(J.Dir))
	for _, v := range J.Env {
		k, val, _ := strings.Cut(v, "=")
		fmt.Fprintf(&b, "export %s=%s\n", k, shellQuote(val))
	}
	for _, v := range J.PreRun {
		b.WriteString(v + "\n")
	}
	args := make([]string, len(J.Args))
	for i, v := range J.Args {
		args[i] = shellQuote(v)
	}
	b.WriteString("exec " + strings.Join(args, " "))
	for _, r := range []struct{ op, file string }{{"<", J.Stdin}, {">", J.Stdout}, {"2>", J.Stderr}} {
		if r.file != "" {
			fmt.Fprintf(&b, " %s %s", r.op, shellQuote(r.file))
		}
	}
	b.WriteString("\n")
	return b.String()
}

func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r == '/' || r == '.' || r == '_' || r == '-' || r == '=' || r == ',' || r == ':' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

//Launcher runs jobs. Run blocks until the job finishes, and returns an error if it
//could not be run or exited with a non-zero status.
type Launcher interface {
	Run(ctx context.Context, J Job) error
}

//The script ShellLauncher writes in the directory of each job.
const jobScript = "job.sh"

//ShellLauncher runs each job with /bin/sh in the local machine. The script is kept in
//the job directory as job.sh, so the job can be rerun by hand.
type ShellLauncher struct {
	Shell  string //"/bin/sh" if empty.
	Logger *slog.Logger
}

func (L *ShellLauncher) Run(ctx context.Context, J Job) error {
	if len(J.Args) == 0 {
		return fmt.Errorf("goAbinit/flow: job %s has no command", J.Name)
	}
	script := filepath.Join(J.Dir, jobScript)
	if err := os.WriteFile(script, []byte(J.Script()), 0o755); err != nil {
		return err
	}
	shell := L.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	logger := L.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("launching job", "job", J.Name, "dir", J.Dir, "command", strings.Join(J.Args, " "))
	cmd := exec.CommandContext(ctx, shell, script)
	cmd.Dir = J.Dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("goAbinit/flow: job %s failed: %w: %s", J.Name, err, strings.TrimSpace(string(out)))
	}
	return nil
}
