// Package raster encodes assembled mesh grids as georeferenced images.
package raster

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdok/meshraster/grid"
	"github.com/pdok/meshraster/processing"
)

var ErrUnsupportedFormat = errors.New("unsupported raster format")

type Format uint8

const (
	GeoTIFF Format = iota + 1
	ASCIIGrid
)

func (f Format) String() string {
	switch f {
	case GeoTIFF:
		return "GeoTIFF"
	case ASCIIGrid:
		return "ASCII grid"
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return GeoTIFF, nil
	case ".asc":
		return ASCIIGrid, nil
	}
	return 0, fmt.Errorf("%w: %q, use .tif, .tiff or .asc", ErrUnsupportedFormat, filepath.Ext(path))
}

// WorldFilePath is the path of the world file accompanying the image at path.
func WorldFilePath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".tfw"
}

// FileTarget writes a raster to Path, and for a GeoTIFF also its world file. Either all
// files are put in place or the previous ones are left as they were.
type FileTarget struct {
	Path   string
	EPSG   int
	Logger zerolog.Logger
}

func (t FileTarget) WriteRaster(m *grid.Matrix, ref processing.Georeference) error {
	format, err := FormatOf(t.Path)
	if err != nil {
		return err
	}
	epsg := t.EPSG
	if epsg == 0 {
		epsg = DefaultEPSG
	}

	var files []pendingFile
	defer func() {
		for _, f := range files {
			f.discard()
		}
	}()

	image, err := createPending(t.Path)
	if err != nil {
		return err
	}
	files = append(files, image)
	switch format {
	case GeoTIFF:
		err = EncodeGeoTIFF(image.file, m, ref, epsg)
	case ASCIIGrid:
		err = EncodeASCIIGrid(image.file, m, ref)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", format, err)
	}

	if format == GeoTIFF {
		world, err := createPending(WorldFilePath(t.Path))
		if err != nil {
			return err
		}
		files = append(files, world)
		if _, err = io.WriteString(world.file, ref.WorldFile()); err != nil {
			return err
		}
	}

	for _, f := range files {
		if err = f.file.Chmod(0o644); err != nil {
			return err
		}
		if err = f.file.Close(); err != nil {
			return err
		}
	}
	if err = commit(files); err != nil {
		return err
	}
	files = nil
	t.Logger.Info().Str("path", t.Path).Stringer("format", format).Int("width", m.Width()).Int("height", m.Height()).Msg("wrote raster")
	return nil
}

// pendingFile is a temporary file next to path, renamed onto path once complete.
type pendingFile struct {
	path string
	file *os.File
}

func createPending(path string) (pendingFile, error) {
	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return pendingFile{}, fmt.Errorf("create temp file: %w", err)
	}
	return pendingFile{path: path, file: file}, nil
}

func (f pendingFile) discard() {
	f.file.Close()
	os.Remove(f.file.Name())
}

// commit moves closed pending files onto their paths in order. When a move fails, the
// paths already moved onto get their previous file back.
func commit(files []pendingFile) error {
	backups := make([]string, len(files))
	defer func() {
		for _, b := range backups {
			if b != "" {
				os.Remove(b)
			}
		}
	}()
	for i, f := range files {
		b, err := backup(f.path)
		if err != nil {
			return err
		}
		backups[i] = b
	}
	for i, f := range files {
		if err := os.Rename(f.file.Name(), f.path); err != nil {
			for j := i - 1; j >= 0; j-- {
				restore(files[j].path, backups[j])
			}
			return err
		}
	}
	return nil
}

// backup hard links an existing regular file at path to a hidden name next to it.
// It returns an empty name when there is nothing to keep.
func backup(path string) (string, error) {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", nil
	}
	reserved, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.bak")
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	reserved.Close()
	name := reserved.Name()
	if err = os.Remove(name); err != nil {
		return "", err
	}
	if err = os.Link(path, name); err != nil {
		return "", fmt.Errorf("backup %s: %w", path, err)
	}
	return name, nil
}

func restore(path, saved string) {
	if saved == "" {
		os.Remove(path)
		return
	}
	os.Rename(saved, path)
}
