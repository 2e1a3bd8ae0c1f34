package archive

import (
	"archive/tar"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/materials-commons/mcbun/pkg/rerr"
	"github.com/saracen/walker"
)

// Entry is one file or directory found under a cache directory.
type Entry struct {
	// Rel is the slash separated path relative to the cache root.
	Rel  string
	Info os.FileInfo
}

// List walks root and returns its entries sorted by relative path. Symbolic
// links fail the walk with SYMLINKED_BUNFILE_NOT_ALLOWED.
func List(ctx context.Context, root string) ([]Entry, error) {
	var (
		mu      sync.Mutex
		entries []Entry
	)

	root = filepath.Clean(root)
	err := walker.WalkWithContext(ctx, root, func(pathname string, fi os.FileInfo) error {
		if pathname == root {
			return nil
		}

		if fi.Mode()&os.ModeSymlink != 0 {
			return rerr.New(rerr.SymlinkedBunfileNotAllowed, "%s is a symlink", pathname)
		}

		if !fi.IsDir() && !fi.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, pathname)
		if err != nil {
			return err
		}

		mu.Lock()
		entries = append(entries, Entry{Rel: filepath.ToSlash(rel), Info: fi})
		mu.Unlock()
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Rel < entries[j].Rel })
	return entries, nil
}

// Write packs srcDir into archivePath as a tar stream filtered by the compression
// that dataType names. The archive is written to a temporary file next to
// archivePath and renamed into place, so a failed write leaves any previous
// archive untouched. Returns the number of entries written.
func Write(ctx context.Context, srcDir, archivePath, dataType string) (int, error) {
	entries, err := List(ctx, srcDir)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(archivePath), 0750); err != nil {
		return 0, rerr.Unix(rerr.UnixFileMkdirErr, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(archivePath), filepath.Base(archivePath)+".*.tmp")
	if err != nil {
		return 0, rerr.Unix(rerr.UnixFileCreateErr, err)
	}

	tmpPath := tmp.Name()
	if err := writeTar(ctx, tmp, srcDir, entries, ParseDataType(dataType)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return 0, err
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return 0, rerr.Unix(rerr.UnixFileCloseErr, err)
	}

	if err := os.Rename(tmpPath, archivePath); err != nil {
		_ = os.Remove(tmpPath)
		return 0, rerr.Unix(rerr.UnixFileRenameErr, err)
	}

	return len(entries), nil
}

func writeTar(ctx context.Context, w io.Writer, srcDir string, entries []Entry, c Compression) error {
	cw, err := newCompressor(w, c)
	if err != nil {
		return rerr.New(rerr.UnixFileWriteErr, "compressor %s: %s", c, err)
	}

	tw := tar.NewWriter(cw)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := writeEntry(tw, srcDir, entry); err != nil {
			return err
		}
	}

	// Close order: tar writer, then the compressor, the file belongs to the caller.
	if err := tw.Close(); err != nil {
		return rerr.Unix(rerr.UnixFileWriteErr, err)
	}

	if err := cw.Close(); err != nil {
		return rerr.Unix(rerr.UnixFileWriteErr, err)
	}

	return nil
}

func writeEntry(tw *tar.Writer, srcDir string, entry Entry) error {
	hdr, err := tar.FileInfoHeader(entry.Info, "")
	if err != nil {
		return rerr.New(rerr.UnixFileStatErr, "%s: %s", entry.Rel, err)
	}

	hdr.Name = entry.Rel
	if entry.Info.IsDir() && !strings.HasSuffix(hdr.Name, "/") {
		hdr.Name += "/"
	}
	hdr.Format = tar.FormatPAX
	hdr.Uname, hdr.Gname = "", ""

	if err := tw.WriteHeader(hdr); err != nil {
		return rerr.Unix(rerr.UnixFileWriteErr, err)
	}

	if entry.Info.IsDir() {
		return nil
	}

	f, err := os.Open(filepath.Join(srcDir, filepath.FromSlash(entry.Rel)))
	if err != nil {
		return rerr.Unix(rerr.UnixFileOpenErr, err)
	}
	defer f.Close()

	n, err := io.Copy(tw, f)
	if err != nil {
		return rerr.Unix(rerr.UnixFileReadErr, err)
	}

	if n != hdr.Size {
		return rerr.New(rerr.SysCopyLenErr, "%s: copied %d of %d bytes", entry.Rel, n, hdr.Size)
	}

	return nil
}
