/*
 * source.go, part of goabinit.
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

package notebook

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

//ErrNotFound is returned when a declaration is not in the package.
var ErrNotFound = errors.New("notebook: declaration not found")

//Style is the chroma style used to highlight the code.
var Style = "friendly"

//recvName returns the name of the type of a method receiver.
func recvName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return recvName(t.X)
	case *ast.IndexExpr:
		return recvName(t.X)
	case *ast.IndexListExpr:
		return recvName(t.X)
	case *ast.Ident:
		return t.Name
	}
	return ""
}

//declName returns the names a declaration can be looked up with.
func declName(d ast.Decl) []string {
	switch v := d.(type) {
	case *ast.FuncDecl:
		if v.Recv != nil && len(v.Recv.List) > 0 {
			return []string{recvName(v.Recv.List[0].Type) + "." + v.Name.Name}
		}
		return []string{v.Name.Name}
	case *ast.GenDecl:
		var ret []string
		for _, s := range v.Specs {
			switch spec := s.(type) {
			case *ast.TypeSpec:
				ret = append(ret, spec.Name.Name)
			case *ast.ValueSpec:
				for _, n := range spec.Names {
					ret = append(ret, n.Name)
				}
			}
		}
		return ret
	}
	return nil
}

//goFiles returns the non-test Go files in dir.
func goFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		return nil, err
	}
	var ret []string
	for _, f := range files {
		if !strings.HasSuffix(f, "_test.go") {
			ret = append(ret, f)
		}
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("notebook: no Go files in %s", dir)
	}
	sort.Strings(ret)
	return ret, nil
}

//Source returns the source code, doc comment included, of the declaration name in the Go
//package in dir. name is a function, type, variable or constant, or a method as Type.Method.
func Source(dir, name string) (string, error) {
	files, err := goFiles(dir)
	if err != nil {
		return "", err
	}
	fset := token.NewFileSet()
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		f, err := parser.ParseFile(fset, path, src, parser.ParseComments)
		if err != nil {
			return "", err
		}
		for _, d := range f.Decls {
			found := false
			for _, n := range declName(d) {
				if n == name {
					found = true
				}
			}
			if !found {
				continue
			}
			start := d.Pos()
			switch v := d.(type) {
			case *ast.FuncDecl:
				if v.Doc != nil {
					start = v.Doc.Pos()
				}
			case *ast.GenDecl:
				if v.Doc != nil {
					start = v.Doc.Pos()
				}
			}
			return string(src[fset.Position(start).Offset:fset.Position(d.End()).Offset]), nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s", ErrNotFound, name, dir)
}

//Highlight writes src, in the given language (a chroma lexer name, or a file name to guess it
//from), to w. format is "html" (a standalone page), "html-inline" (just the code block),
//"terminal" (ANSI colors) or "text".
func Highlight(w io.Writer, src, language, format string) error {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Match(language)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	var formatter chroma.Formatter
	switch format {
	case "html":
		formatter = html.New(html.Standalone(true), html.WithLineNumbers(true))
	case "html-inline":
		formatter = html.New(html.WithLineNumbers(true))
	case "terminal":
		formatter = formatters.Get("terminal256")
	case "text", "":
		_, err := io.WriteString(w, src)
		return err
	default:
		return fmt.Errorf("notebook: unknown format %q, use html, html-inline, terminal or text", format)
	}
	style := styles.Get(Style)
	if style == nil {
		style = styles.Fallback
	}
	it, err := lexer.Tokenise(nil, src)
	if err != nil {
		return err
	}
	return formatter.Format(w, style, it)
}

//PrintSource returns the source of the declaration name in the package in dir, highlighted
//as a standalone HTML page.
func PrintSource(dir, name string) (string, error) {
	src, err := Source(dir, name)
	if err != nil {
		return "", err
	}
	var b bytes.Buffer
	if err := Highlight(&b, src, "go", "html"); err != nil {
		return "", err
	}
	return b.String(), nil
}

//PrintSourceInModule is like PrintSource, but the package is given by its import path
//(e.g. github.com/rmera/goabinit/flow), or its path relative to the root of the module,
//which is searched from the current directory up.
func PrintSourceInModule(name, pkg string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	root, modpath, err := moduleRoot(wd)
	if err != nil {
		return "", err
	}
	rel := pkg
	if pkg == modpath {
		rel = "."
	} else if r, ok := strings.CutPrefix(pkg, modpath+"/"); ok {
		rel = r
	}
	return PrintSource(filepath.Join(root, filepath.FromSlash(rel)), name)
}

//moduleRoot returns the directory with the go.mod that contains dir, and the module path.
func moduleRoot(dir string) (string, string, error) {
	for d := dir; ; d = filepath.Dir(d) {
		f, err := os.Open(filepath.Join(d, "go.mod"))
		if err == nil {
			defer f.Close()
			s := bufio.NewScanner(f)
			for s.Scan() {
				if p, ok := strings.CutPrefix(strings.TrimSpace(s.Text()), "module "); ok {
					return d, strings.Trim(strings.TrimSpace(p), `"`), nil
				}
			}
			return "", "", fmt.Errorf("notebook: no module line in %s", filepath.Join(d, "go.mod"))
		}
		if filepath.Dir(d) == d {
			return "", "", fmt.Errorf("notebook: %s is not inside a Go module", dir)
		}
	}
}
