/*
 * ddb.go, part of goabinit.
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
	"os"
	"path/filepath"

	"github.com/rmera/goabinit/ddb"
	"github.com/rmera/goabinit/flow"
	"github.com/spf13/cobra"
)

func newDDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ddb",
		Short: "Inspect and merge derivative databases",
	}
	cmd.AddCommand(newDDBMergeCmd(), newDDBInfoCmd())
	return cmd
}

func newDDBMergeCmd() *cobra.Command {
	var out, description, mrgddb string
	cmd := &cobra.Command{
		Use:   "merge -o <out> <DDB>...",
		Short: "Merge DDB files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return fmt.Errorf("the output file (-o) is required")
			}
			logger := flow.FromContext(cmd.Context())
			var merged string
			var err error
			if mrgddb == "" {
				merged, err = ddb.Merge(out, description, args...)
			} else {
				M := ddb.NewMrgddb()
				M.SetCommand(mrgddb)
				M.Logger = logger
				cwd, werr := os.Getwd()
				if werr != nil {
					return werr
				}
				abs, aerr := filepath.Abs(out)
				if aerr != nil {
					return aerr
				}
				merged, err = M.Merge(cmd.Context(), args, abs, description, cwd)
			}
			if err != nil {
				return err
			}
			D, err := ddb.Read(merged)
			if err != nil {
				return err
			}
			logger.Info("DDB files merged", "inputs", len(args), "output", merged)
			fmt.Fprintln(cmd.OutOrStdout(), D.String())
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Merged DDB file")
	cmd.Flags().StringVar(&description, "description", "DDB merged by abigo", "Description written in the header")
	cmd.Flags().StringVar(&mrgddb, "mrgddb", "", "Merge with this mrgddb command instead of natively")
	return cmd
}

func newDDBInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <DDB>...",
		Short: "Print the blocks and q-points of DDB files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, p := range args {
				D, err := ddb.Read(p)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, D.String())
				if d := D.Description(); d != "" {
					fmt.Fprintln(w, "  description:", d)
				}
				q, err := D.QPoints()
				if err != nil {
					return err
				}
				for _, v := range q {
					fmt.Fprintf(w, "  q = %8.4f %8.4f %8.4f\n", v[0], v[1], v[2])
				}
			}
			return nil
		},
	}
}
