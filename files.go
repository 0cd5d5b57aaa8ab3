/*
 * files.go, part of goabinit.
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

package abinit

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

//FileKind identifies the files produced (or read) by ABINIT that this library knows about.
type FileKind int

const (
	Unknown FileKind = iota
	AbinitInputFile
	AbinitOutputFile
	LogFile
	DDBFile
	GSRFile
	FatbandsFile
	PhbstFile
	PhdosFile
	HistFile
	DenFile
	WfkFile
	AnaddbNcFile
)

var kindNames = map[FileKind]string{
	Unknown:          "unknown",
	AbinitInputFile:  "abinit input",
	AbinitOutputFile: "abinit output",
	LogFile:          "log",
	DDBFile:          "DDB",
	GSRFile:          "GSR.nc",
	FatbandsFile:     "FATBANDS.nc",
	PhbstFile:        "PHBST.nc",
	PhdosFile:        "PHDOS.nc",
	HistFile:         "HIST.nc",
	DenFile:          "DEN.nc",
	WfkFile:          "WFK.nc",
	AnaddbNcFile:     "anaddb.nc",
}

func (K FileKind) String() string {
	return kindNames[K]
}

//the order matters: the first suffix that matches wins.
var suffixKinds = []struct {
	suffix string
	kind   FileKind
}{
	{"_GSR.nc", GSRFile},
	{"_FATBANDS.nc", FatbandsFile},
	{"_PHBST.nc", PhbstFile},
	{"_PHDOS.nc", PhdosFile},
	{"_HIST.nc", HistFile},
	{"_DEN.nc", DenFile},
	{"_WFK.nc", WfkFile},
	{"anaddb.nc", AnaddbNcFile},
	{"DDB", DDBFile},
	{"DDB.gz", DDBFile},
	{"DDB.zst", DDBFile},
	{".abo", AbinitOutputFile},
	{".abi", AbinitInputFile},
	{".log", LogFile},
}

//FileKindOf returns the kind of the ABINIT file in path, based on its name.
func FileKindOf(path string) FileKind {
	base := filepath.Base(path)
	for _, v := range suffixKinds {
		if strings.HasSuffix(base, v.suffix) {
			return v.kind
		}
	}
	return Unknown
}

//IsAbiFile returns true if the file in path is one of those this library can open.
func IsAbiFile(path string) bool {
	return FileKindOf(path) != Unknown
}

//DirFiles contains the files in one directory.
type DirFiles struct {
	Dir   string
	Files []string
}

//Dir2AbiFiles returns, for top and, if recurse is true, all its subdirectories, the list of files
//that can be opened with this library. Directories without such files are omitted. The
//directories are sorted by name, and so are the files.
func Dir2AbiFiles(top string, recurse bool) ([]DirFiles, error) {
	dirs := make(map[string][]string)
	err := filepath.WalkDir(top, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != top && !recurse {
				return filepath.SkipDir
			}
			return nil
		}
		if IsAbiFile(path) {
			dir := filepath.Dir(path)
			dirs[dir] = append(dirs[dir], path)
		}
		return nil
	})
	if err != nil {
		return nil, NewFileError("can't list directory", top, "Dir2AbiFiles", true, err)
	}
	ret := make([]DirFiles, 0, len(dirs))
	for k, v := range dirs {
		sort.Strings(v)
		ret = append(ret, DirFiles{Dir: k, Files: v})
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Dir < ret[j].Dir })
	return ret, nil
}
