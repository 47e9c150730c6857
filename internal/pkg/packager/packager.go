// Package packager serializes conversion results into PNG files and the
// bulk download archive.
package packager

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/ds124wfegd/cartoonizer/internal/pkg/cartoon"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/codec"
	"github.com/klauspost/compress/zip"
)

const (
	ArchiveName        = "all_cartoon_outputs.zip"
	PNGContentType     = "image/png"
	ArchiveContentType = "application/zip"
)

// PackagingError marks failures that happen after a successful conversion:
// the results exist but cannot be downloaded.
type PackagingError struct {
	Op    string
	Label string
	Err   error
}

func (e *PackagingError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("packaging %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("packaging %s %s: %v", e.Op, e.Label, e.Err)
}

func (e *PackagingError) Unwrap() error { return e.Err }

// File is one downloadable PNG.
type File struct {
	Name        string
	Label       string
	Caption     string
	ContentType string
	Data        []byte
}

// EncodeResult PNG-encodes a single result.
func EncodeResult(r cartoon.Result) (File, error) {
	var buf bytes.Buffer
	if err := codec.EncodePNG(&buf, r.Image); err != nil {
		return File{}, &PackagingError{Op: "encode", Label: r.Label, Err: err}
	}
	return File{
		Name:        r.Filename,
		Label:       r.Label,
		Caption:     r.Caption,
		ContentType: PNGContentType,
		Data:        buf.Bytes(),
	}, nil
}

// Files encodes every result in order, the original only when asked to.
func Files(rs *cartoon.ResultSet, includeOriginal bool) ([]File, error) {
	entries := rs.Styles()
	if includeOriginal {
		entries = rs.Entries()
	}

	files := make([]File, 0, len(entries))
	for _, r := range entries {
		f, err := EncodeResult(r)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// WriteArchive streams a deflated zip holding one PNG per style result.
// The original is never included.
func WriteArchive(w io.Writer, rs *cartoon.ResultSet) error {
	files, err := Files(rs, false)
	if err != nil {
		return err
	}
	return writeZip(w, files)
}

// Archive is WriteArchive into memory.
func Archive(rs *cartoon.ResultSet) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteArchive(&buf, rs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeZip(w io.Writer, files []File) error {
	zw := zip.NewWriter(w)
	seen := make(map[string]bool, len(files))
	now := time.Now()

	for _, f := range files {
		if seen[f.Name] {
			return &PackagingError{Op: "archive", Label: f.Label, Err: fmt.Errorf("duplicate entry %q", f.Name)}
		}
		seen[f.Name] = true

		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: now,
		})
		if err != nil {
			return &PackagingError{Op: "archive", Label: f.Label, Err: err}
		}
		if _, err := entry.Write(f.Data); err != nil {
			return &PackagingError{Op: "archive", Label: f.Label, Err: err}
		}
	}

	if err := zw.Close(); err != nil {
		return &PackagingError{Op: "archive", Err: err}
	}
	return nil
}
