// Package archivefs implements the zip archive reader and writer used by
// SDK package extraction and the Plugin Driver's host API archive
// capability. It wraps the standard library's archive/zip: no third-party
// zip implementation in the example pack is an importable module (the
// closest, android/soong/third_party/zip, is an in-tree fork with no
// module path of its own), so this is the one deliberately stdlib-only
// corner of the build.
package archivefs

import (
	"archive/zip"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/labt-build/labt/internal/fs"
)

// Writer builds a zip archive on disk with atomic-commit semantics: all
// entries land in a temporary file beside the destination, and only a
// successful Close renames it into place.
type Writer struct {
	dest string
	tmp  *os.File
	zw   *zip.Writer
}

// NewWriter opens a Writer whose final output will appear at dest only
// once Close succeeds.
func NewWriter(dest string) (*Writer, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".archive-*.tmp")
	if err != nil {
		return nil, errors.Wrap(err, "creating archive staging file")
	}
	return &Writer{dest: dest, tmp: tmp, zw: zip.NewWriter(tmp)}, nil
}

// AddFile writes the contents of src into the archive at name, preserving
// src's file mode. A positive align pads the entry so its data begins at
// an offset that is a multiple of align, the way Android's zipalign tool
// aligns uncompressed entries for mmap access; alignment forces the entry
// to be stored rather than deflated, since compression makes the data
// offset meaningless to the eventual reader. Pass 0 for no alignment.
func (w *Writer) AddFile(name string, src io.Reader, mode os.FileMode, align int) error {
	header := &zip.FileHeader{Name: filepath.ToSlash(name), Method: zip.Deflate}
	header.SetMode(mode)
	if align > 1 {
		header.Method = zip.Store
		offset, err := w.tmp.Seek(0, io.SeekCurrent)
		if err != nil {
			return errors.Wrapf(err, "measuring archive offset for %s", name)
		}
		header.Extra = alignmentPadding(offset, len(header.Name), align)
	}
	entry, err := w.zw.CreateHeader(header)
	if err != nil {
		return errors.Wrapf(err, "adding %s to archive", name)
	}
	if _, err := io.Copy(entry, src); err != nil {
		return errors.Wrapf(err, "writing %s into archive", name)
	}
	return nil
}

// AddDir records a directory entry, the way a directory survives in a zip
// archive: a zero-length entry whose name ends in '/'. align is accepted
// for symmetry with AddFile but has no effect: a directory entry carries
// no data for an offset to align.
func (w *Writer) AddDir(name string, align int) error {
	header := &zip.FileHeader{Name: strings.TrimSuffix(filepath.ToSlash(name), "/") + "/"}
	header.SetMode(os.ModeDir | 0o755)
	_, err := w.zw.CreateHeader(header)
	return errors.Wrapf(err, "adding directory %s to archive", name)
}

// alignmentPadding builds a local-file-header Extra field whose length pads
// the entry's data start up to the next multiple of align. It uses extra
// field ID 0xd935, the "alignment padding" ID Android's zipalign assigns to
// padding it inserts for this same reason, so the field is self-describing
// to any reader that inspects it instead of looking like garbage.
func alignmentPadding(offset int64, nameLen, align int) []byte {
	const localHeaderFixedSize = 30
	const extraFieldOverhead = 4
	base := offset + localHeaderFixedSize + int64(nameLen) + extraFieldOverhead
	pad := int(int64(align) - base%int64(align))
	if pad == align {
		pad = 0
	}
	field := make([]byte, extraFieldOverhead+pad)
	binary.LittleEndian.PutUint16(field[0:2], 0xd935)
	binary.LittleEndian.PutUint16(field[2:4], uint16(pad))
	return field
}

// Close finalizes the zip stream and atomically commits it to dest. On any
// failure the staging file is removed and dest is left untouched.
func (w *Writer) Close() error {
	if err := w.zw.Close(); err != nil {
		os.Remove(w.tmp.Name())
		return errors.Wrap(err, "closing archive stream")
	}
	if err := w.tmp.Sync(); err != nil {
		os.Remove(w.tmp.Name())
		return errors.Wrap(err, "syncing archive staging file")
	}
	if err := w.tmp.Close(); err != nil {
		os.Remove(w.tmp.Name())
		return errors.Wrap(err, "closing archive staging file")
	}
	if err := fs.RenameWithFallback(w.tmp.Name(), w.dest); err != nil {
		os.Remove(w.tmp.Name())
		return errors.Wrap(err, "committing archive")
	}
	return nil
}

// Extract unpacks every entry in the zip archive at src into destDir,
// rejecting any entry whose normalized path would land outside destDir
// (the zip-slip guard).
func Extract(src, destDir string) error {
	return ExtractSelected(src, destDir, nil)
}

// ExtractSelected behaves like Extract but, when selected is non-empty,
// unpacks only the named entries instead of every entry in the archive.
// Directory entries are still created as needed to hold a selected file's
// parent path even when the directory entry itself isn't selected.
func ExtractSelected(src, destDir string, selected []string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return errors.Wrapf(err, "opening archive %s", src)
	}
	defer r.Close()

	var allow map[string]bool
	if len(selected) > 0 {
		allow = make(map[string]bool, len(selected))
		for _, name := range selected {
			allow[name] = true
		}
	}

	for _, entry := range r.File {
		if allow != nil && !allow[entry.Name] {
			continue
		}

		target, err := safeJoin(destDir, entry.Name)
		if err != nil {
			return err
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrapf(err, "creating directory %s", target)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return errors.Wrapf(err, "creating parent directory for %s", target)
		}
		if err := extractFile(entry, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(entry *zip.File, target string) error {
	rc, err := entry.Open()
	if err != nil {
		return errors.Wrapf(err, "opening archive entry %s", entry.Name)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, entry.Mode())
	if err != nil {
		return errors.Wrapf(err, "creating %s", target)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return errors.Wrapf(err, "extracting %s", entry.Name)
	}
	return nil
}

// safeJoin resolves name under root and rejects it outright if the result
// would escape root, the zip-slip guard required of any archive reader
// that accepts attacker-influenced entry names. It joins the raw,
// uncleaned name onto root and cleans the result rather than rooting name
// first: rooting would collapse a leading ".." into root itself and turn
// every traversal attempt into a silently remapped, still-accepted path.
func safeJoin(root, name string) (string, error) {
	cleanRoot := filepath.Clean(root)
	target := filepath.Clean(filepath.Join(root, filepath.FromSlash(name)))
	if target != cleanRoot && !strings.HasPrefix(target, cleanRoot+string(filepath.Separator)) {
		return "", errors.Errorf("archive entry %q escapes destination directory", name)
	}
	return target, nil
}
