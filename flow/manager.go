/*
 * manager.go, part of goabinit.
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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rmera/goabinit/ddb"
	"github.com/spf13/viper"
)

//ManagerConfig is the part of a Manager read from the configuration file.
type ManagerConfig struct {
	Abinit       string        `mapstructure:"abinit"`
	Anaddb       string        `mapstructure:"anaddb"`
	Mrgddb       string        `mapstructure:"mrgddb"` //if empty, DDB files are merged without external programs.
	MPIRunner    string        `mapstructure:"mpi_runner"`
	MPINcpus     int           `mapstructure:"mpi_ncpus"`
	OMPThreads   int           `mapstructure:"omp_threads"`
	PreRun       []string      `mapstructure:"pre_run"`
	MaxJobs      int           `mapstructure:"max_jobs"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	DryRunPerts  bool          `mapstructure:"dry_run_perts"`
}

//Manager knows how to run the programs of a flow in the local machine.
type Manager struct {
	ManagerConfig
	Launcher Launcher
	Logger   *slog.Logger
}

//The file LoadManager looks for, in the current directory and in ~/.abigo.
const managerFile = "manager"

func setDefaults(v *viper.Viper) {
	v.SetDefault("abinit", "abinit")
	v.SetDefault("anaddb", "anaddb")
	v.SetDefault("mrgddb", "")
	v.SetDefault("mpi_runner", "mpirun")
	v.SetDefault("mpi_ncpus", 1)
	v.SetDefault("omp_threads", 1)
	v.SetDefault("pre_run", []string{})
	v.SetDefault("max_jobs", 1)
	v.SetDefault("poll_interval", 5*time.Second)
	v.SetDefault("dry_run_perts", false)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("ABIGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	//AutomaticEnv only applies to keys viper knows about, which the defaults take care of.
	return v
}

func fromViper(v *viper.Viper) (*Manager, error) {
	var c ManagerConfig
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("goAbinit/flow: parsing manager configuration: %w", err)
	}
	M := &Manager{ManagerConfig: c, Logger: slog.Default()}
	if err := M.Validate(); err != nil {
		return nil, err
	}
	M.Launcher = &ShellLauncher{Logger: M.Logger}
	return M, nil
}

//LoadManager reads manager.yml (or .yaml, .toml, .json) from the current directory or,
//if not there, from ~/.abigo. If no file is found, the defaults are used. The values can
//be overridden with ABIGO_* environment variables (e.g. ABIGO_MPI_NCPUS=4).
func LoadManager() (*Manager, error) {
	v := newViper()
	v.SetConfigName(managerFile)
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".abigo"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("goAbinit/flow: reading manager configuration: %w", err)
		}
	}
	return fromViper(v)
}

//LoadManagerFromPath reads the manager configuration from the given file.
func LoadManagerFromPath(path string) (*Manager, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("goAbinit/flow: reading manager configuration %s: %w", path, err)
	}
	return fromViper(v)
}

//Validate checks the configuration.
func (M *Manager) Validate() error {
	switch {
	case M.Abinit == "":
		return fmt.Errorf("goAbinit/flow: empty abinit command in manager")
	case M.MPINcpus < 1:
		return fmt.Errorf("goAbinit/flow: mpi_ncpus must be at least 1, got %d", M.MPINcpus)
	case M.OMPThreads < 1:
		return fmt.Errorf("goAbinit/flow: omp_threads must be at least 1, got %d", M.OMPThreads)
	case M.MaxJobs < 1:
		return fmt.Errorf("goAbinit/flow: max_jobs must be at least 1, got %d", M.MaxJobs)
	case M.PollInterval <= 0:
		return fmt.Errorf("goAbinit/flow: poll_interval must be positive, got %s", M.PollInterval)
	}
	return nil
}

//ToShellManager returns a copy of the manager that runs one job at a time, with mpiNcpus
//MPI processes. If the manager has no launcher, the copy gets a ShellLauncher.
func (M *Manager) ToShellManager(mpiNcpus int) *Manager {
	ret := *M
	ret.PreRun = append([]string(nil), M.PreRun...)
	ret.MPINcpus = max(1, mpiNcpus)
	ret.MaxJobs = 1
	if ret.Launcher == nil {
		ret.Launcher = &ShellLauncher{Logger: M.logger()}
	}
	return &ret
}

func (M *Manager) logger() *slog.Logger {
	if M == nil || M.Logger == nil {
		return slog.Default()
	}
	return M.Logger
}

//Command returns the command line to run program (with the MPI runner if more than one
//process was requested).
func (M *Manager) Command(program string) []string {
	cmd := strings.Fields(program)
	if M.MPINcpus > 1 && M.MPIRunner != "" {
		mpi := append(strings.Fields(M.MPIRunner), "-n", fmt.Sprint(M.MPINcpus))
		cmd = append(mpi, cmd...)
	}
	return cmd
}

//Env returns the environment variables set for every job.
func (M *Manager) Env() []string {
	return []string{fmt.Sprintf("OMP_NUM_THREADS=%d", M.OMPThreads)}
}

//MergeDDBs merges the DDB files in paths into out, with mrgddb if the manager has a command
//for it, or natively otherwise. The files mrgddb needs are written to cwd.
func (M *Manager) MergeDDBs(ctx context.Context, paths []string, out, description, cwd string) (string, error) {
	if M.Mrgddb == "" {
		M.logger().Debug("merging DDB files", "ninputs", len(paths), "out", out)
		return ddb.Merge(out, description, paths...)
	}
	mrg := ddb.NewMrgddb()
	//mrgddb is serial.
	mrg.SetCommand(M.Mrgddb)
	mrg.Logger = M.logger()
	return mrg.Merge(ctx, paths, out, description, cwd)
}
