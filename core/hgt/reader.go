package hgt

import (
	"archive/zip"
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"dem-manager/core/tile"
)

// ErrSampleCount is returned when a file does not hold side² samples for its type.
var ErrSampleCount = errors.New("hgt: unexpected sample count")

// Reader loads HGT files from the local file system.
type Reader struct{}

// ReadTile reads the samples of the file at path and validates them against typ.
func (Reader) ReadTile(path string, typ tile.Type) ([]int16, error) {
	if typ.SampleCount() == 0 {
		return nil, fmt.Errorf("hgt: cannot read %s as %s", path, typ)
	}

	if strings.HasSuffix(strings.ToLower(path), ".zip") {
		return readZip(path, typ)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hgt: open %s: %w", path, err)
	}
	defer f.Close()

	samples, err := Decode(f, typ)
	if err != nil {
		return nil, fmt.Errorf("hgt: %s: %w", path, err)
	}
	return samples, nil
}

func readZip(path string, typ tile.Type) ([]int16, error) {
	z, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("hgt: open %s: %w", path, err)
	}
	defer z.Close()

	for _, entry := range z.File {
		name := filepath.Base(entry.Name)
		if strings.HasPrefix(name, ".") || entry.FileInfo().IsDir() {
			continue
		}
		r, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("hgt: open %s in %s: %w", entry.Name, path, err)
		}
		samples, err := Decode(r, typ)
		r.Close()
		if err != nil {
			return nil, fmt.Errorf("hgt: %s in %s: %w", entry.Name, path, err)
		}
		return samples, nil
	}
	return nil, fmt.Errorf("hgt: %s holds no height file", path)
}

// Decode reads exactly typ.SampleCount() samples from r.
func Decode(r io.Reader, typ tile.Type) ([]int16, error) {
	want := typ.SampleCount()
	samples := make([]int16, want)
	br := bufio.NewReader(r)
	if err := binary.Read(br, binary.BigEndian, samples); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: file shorter than %d samples", ErrSampleCount, want)
		}
		return nil, err
	}
	var extra [1]byte
	if n, _ := io.ReadFull(br, extra[:]); n > 0 {
		return nil, fmt.Errorf("%w: file longer than %d samples", ErrSampleCount, want)
	}
	return samples, nil
}

// Encode writes samples in HGT byte order.
func Encode(w io.Writer, samples []int16) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.BigEndian, samples); err != nil {
		return err
	}
	return bw.Flush()
}

// FileNames lists the file names a tile may be stored under, most specific first.
func FileNames(id string, typ tile.Type) []string {
	names := []string{id + ".hgt", id + ".hgt.zip"}
	switch typ {
	case tile.SRTM1:
		names = append(names, id+".SRTMGL1.hgt.zip")
	case tile.SRTM3:
		names = append(names, id+".SRTMGL3.hgt.zip")
	}
	return names
}

// Locate returns the path of the local file holding id in dir.
func (Reader) Locate(dir, id string, typ tile.Type) (string, bool) {
	return Locate(dir, id, typ)
}

// Locate returns the path of the local file holding id in dir.
func Locate(dir, id string, typ tile.Type) (string, bool) {
	if dir == "" {
		return "", false
	}
	for _, name := range FileNames(id, typ) {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}
