/*
 * io.go, part of goabinit.
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
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	abinit "github.com/rmera/goabinit"
)

//*zstd.Decoder doesn't implement io.ReadCloser, as its Close returns nothing.
type zstdrc struct {
	*zstd.Decoder
}

func (z zstdrc) Close() error {
	z.Decoder.Close()
	return nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

//readerFor returns a function that builds a decompressing reader, depending on the extension of name.
func readerFor(name string) func(io.Reader) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		return func(a io.Reader) (io.ReadCloser, error) { return gzip.NewReader(a) }
	case strings.HasSuffix(name, ".zst"):
		return func(a io.Reader) (io.ReadCloser, error) {
			r, err := zstd.NewReader(a)
			if err != nil {
				return nil, err
			}
			return zstdrc{r}, nil
		}
	}
	return func(a io.Reader) (io.ReadCloser, error) { return io.NopCloser(a), nil }
}

func writerFor(name string) func(io.Writer) (io.WriteCloser, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		return func(a io.Writer) (io.WriteCloser, error) { return gzip.NewWriterLevel(a, gzip.BestCompression) }
	case strings.HasSuffix(name, ".zst"):
		return func(a io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(a, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		}
	}
	return func(a io.Writer) (io.WriteCloser, error) { return nopCloser{a}, nil }
}

//Read reads the DDB file in path, which can be compressed with gzip or zstd.
func Read(path string) (*DDB, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, abinit.NewFileError("can't open DDB", path, "ddb.Read", true, err)
	}
	defer f.Close()
	AnyNewReader := readerFor(path)
	r, err := AnyNewReader(bufio.NewReader(f))
	if err != nil {
		return nil, abinit.NewFileError("can't decompress DDB", path, "ddb.Read", true, err)
	}
	defer r.Close()
	return Parse(r, path)
}

//WriteFile writes the DDB to path, compressed if the name ends in .gz or .zst.
func (D *DDB) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return abinit.NewFileError("can't create DDB", path, "ddb.WriteFile", true, err)
	}
	AnyNewWriter := writerFor(path)
	w, err := AnyNewWriter(f)
	if err != nil {
		f.Close()
		return abinit.NewFileError("can't compress DDB", path, "ddb.WriteFile", true, err)
	}
	if err = D.Write(w); err == nil {
		err = w.Close()
	}
	if err2 := f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return abinit.NewFileError("can't write DDB", path, "ddb.WriteFile", true, err)
	}
	return nil
}
