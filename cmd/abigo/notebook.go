/*
 * notebook.go, part of goabinit.
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

	"github.com/rmera/goabinit/notebook"
	"github.com/spf13/cobra"
)

func newBrowseCmd() *cobra.Command {
	var recurse, list bool
	var widgetType, html string
	cmd := &cobra.Command{
		Use:   "browse [DIR]",
		Short: "Browse the ABINIT files in a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			top := "."
			if len(args) > 0 {
				top = args[0]
			}
			W, err := notebook.Listdir(top, recurse, widgetType)
			if err != nil {
				return err
			}
			switch {
			case html != "":
				page, err := W.HTML()
				if err != nil {
					return err
				}
				return os.WriteFile(html, []byte(page), 0o644)
			case list:
				for _, p := range W.Paths() {
					fmt.Fprintln(cmd.OutOrStdout(), notebook.Summary(p))
				}
				return nil
			}
			if W.Len() == 0 {
				return fmt.Errorf("no ABINIT files in %s", top)
			}
			return notebook.RunBrowser(W)
		},
	}
	f := cmd.Flags()
	f.BoolVarP(&recurse, "recurse", "r", false, "Include the subdirectories")
	f.BoolVar(&list, "list", false, "Print the summary of every file instead of opening the browser")
	f.StringVar(&widgetType, "widget", notebook.Dropdown, "Widget used by --html: tooglebuttons, dropdown or radiobuttons")
	f.StringVar(&html, "html", "", "Write the file selector as HTML to this file")
	return cmd
}

func newSourceCmd() *cobra.Command {
	var format, out string
	var module bool
	cmd := &cobra.Command{
		Use:   "source <package> <name>",
		Short: "Print the highlighted source of a function, method or type",
		Long: `Print the source of a declaration of a Go package. The package is a directory,
or, with --module, an import path of the current module. Methods are given as Type.Method.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if module {
				page, err := notebook.PrintSourceInModule(args[1], args[0])
				if err != nil {
					return err
				}
				return writeOut(cmd, out, page)
			}
			src, err := notebook.Source(args[0], args[1])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return notebook.Highlight(w, src, "go", format)
		},
	}
	f := cmd.Flags()
	f.StringVar(&format, "format", "terminal", "html, html-inline, terminal or text")
	f.StringVarP(&out, "output", "o", "", "Write to this file instead of the standard output")
	f.BoolVar(&module, "module", false, "The package is an import path in the current module (always HTML)")
	return cmd
}

func writeOut(cmd *cobra.Command, path, s string) error {
	if path == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), s)
		return err
	}
	return os.WriteFile(path, []byte(s), 0o644)
}
