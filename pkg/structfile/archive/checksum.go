package archive

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/materials-commons/mcbun/pkg/rerr"
	"github.com/zeebo/blake3"
)

const checksumPrefix = "blake3:"

// FileChecksum returns the BLAKE3 digest of a file as "blake3:<hex>".
func FileChecksum(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", rerr.Unix(rerr.UnixFileOpenErr, err)
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", rerr.Unix(rerr.UnixFileReadErr, err)
	}

	return checksumPrefix + hex.EncodeToString(h.Sum(nil)), nil
}

// LinkOrCopy hard links src to dst, copying the bytes when the two are on
// different filesystems or links are not supported. dst must not exist.
func LinkOrCopy(src, dst string) error {
	if err := os.Link(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return rerr.Unix(rerr.UnixFileOpenErr, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0640)
	if err != nil {
		return rerr.Unix(rerr.UnixFileLinkErr, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return rerr.Unix(rerr.UnixFileWriteErr, err)
	}

	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return rerr.Unix(rerr.UnixFileCloseErr, err)
	}

	return nil
}
