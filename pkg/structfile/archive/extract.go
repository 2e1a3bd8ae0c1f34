package archive

import (
	"archive/tar"
	"bufio"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/materials-commons/mcbun/pkg/rerr"
)

// Extract unpacks archivePath into destDir, creating destDir when missing.
// The compression is detected from the stream. Link entries fail with
// SYMLINKED_BUNFILE_NOT_ALLOWED and entries that would land outside destDir
// fail with SYS_STRUCT_FILE_PATH_ERR. Returns the number of entries extracted.
func Extract(ctx context.Context, archivePath, destDir string) (int, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return 0, rerr.Unix(rerr.UnixFileOpenErr, err)
	}
	defer f.Close()

	if err := os.MkdirAll(destDir, 0750); err != nil {
		return 0, rerr.Unix(rerr.UnixFileMkdirErr, err)
	}

	r, release, err := newDecompressor(bufio.NewReader(f))
	if err != nil {
		return 0, rerr.New(rerr.SysTarStructFileExtractErr, "%s: %s", archivePath, err)
	}
	defer release()

	count := 0
	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			return count, nil
		}

		if err != nil {
			return count, rerr.New(rerr.SysTarStructFileExtractErr, "%s: %s", archivePath, err)
		}

		rel, err := entryPath(hdr.Name)
		if err != nil {
			return count, err
		}

		if rel == "" {
			continue
		}

		target := filepath.Join(destDir, filepath.FromSlash(rel))
		mode := hdr.FileInfo().Mode()
		switch {
		case hdr.Typeflag == tar.TypeSymlink || hdr.Typeflag == tar.TypeLink:
			return count, rerr.New(rerr.SymlinkedBunfileNotAllowed, "%s: entry %s is a link", archivePath, hdr.Name)
		case mode.IsDir():
			if err := os.MkdirAll(target, mode.Perm()|0700); err != nil {
				return count, rerr.Unix(rerr.UnixFileMkdirErr, err)
			}
		case mode.IsRegular():
			if err := extractFile(tr, target, hdr); err != nil {
				return count, err
			}
		default:
			continue
		}

		count++
	}
}

func extractFile(tr *tar.Reader, target string, hdr *tar.Header) error {
	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return rerr.Unix(rerr.UnixFileMkdirErr, err)
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, hdr.FileInfo().Mode().Perm()|0600)
	if err != nil {
		return rerr.Unix(rerr.UnixFileCreateErr, err)
	}

	n, err := io.Copy(out, tr)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = closeErr
	}

	if err != nil {
		return rerr.Unix(rerr.UnixFileWriteErr, err)
	}

	if n != hdr.Size {
		return rerr.New(rerr.SysCopyLenErr, "%s: wrote %d of %d bytes", hdr.Name, n, hdr.Size)
	}

	if !hdr.ModTime.IsZero() {
		_ = os.Chtimes(target, hdr.ModTime, hdr.ModTime)
	}

	return nil
}

// entryPath cleans an archive entry name into a relative slash path. The
// archive root itself returns "".
func entryPath(name string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	switch {
	case clean == "." || clean == "/":
		return "", nil
	case path.IsAbs(clean), clean == "..", strings.HasPrefix(clean, "../"):
		return "", rerr.New(rerr.SysStructFilePathErr, "archive entry %s escapes the cache directory", name)
	}

	return clean, nil
}
