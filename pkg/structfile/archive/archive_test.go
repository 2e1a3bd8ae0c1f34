package archive

import (
	"archive/tar"
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/materials-commons/mcbun/pkg/rerr"
	"github.com/stretchr/testify/require"
)

func populate(t *testing.T, dir string, files map[string]string) {
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0640))
	}
}

func TestWriteExtractRoundTrip(t *testing.T) {
	files := map[string]string{
		"a.txt":         "hello a",
		"sub/b.txt":     "hello b",
		"sub/deep/c.md": "",
	}

	var tests = []struct {
		dataType string
		expected Compression
	}{
		{dataType: DataTypeTar, expected: None},
		{dataType: DataTypeGzipTar, expected: Gzip},
		{dataType: DataTypeZstdTar, expected: Zstd},
		{dataType: DataTypeLZ4Tar, expected: LZ4},
		{dataType: "something else", expected: None},
	}

	for _, test := range tests {
		t.Run(test.dataType, func(t *testing.T) {
			src := t.TempDir()
			populate(t, src, files)
			archivePath := filepath.Join(t.TempDir(), "vault", "bundle.tar")

			n, err := Write(context.Background(), src, archivePath, test.dataType)
			require.NoErrorf(t, err, "Write failed: %s", err)
			require.Equal(t, 5, n) // 3 files + sub + sub/deep

			f, err := os.Open(archivePath)
			require.NoError(t, err)
			require.Equal(t, test.expected, Detect(bufio.NewReader(f)))
			_ = f.Close()

			dest := filepath.Join(t.TempDir(), "cache")
			n, err = Extract(context.Background(), archivePath, dest)
			require.NoErrorf(t, err, "Extract failed: %s", err)
			require.Equal(t, 5, n)

			for rel, content := range files {
				got, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(rel)))
				require.NoError(t, err)
				require.Equal(t, content, string(got))
			}
		})
	}
}

func TestListIsSortedAndRejectsSymlinks(t *testing.T) {
	src := t.TempDir()
	populate(t, src, map[string]string{"b": "2", "a/z": "1", "a/y": "0"})

	entries, err := List(context.Background(), src)
	require.NoError(t, err)

	var rels []string
	for _, e := range entries {
		rels = append(rels, e.Rel)
	}
	require.Equal(t, []string{"a", "a/y", "a/z", "b"}, rels)

	require.NoError(t, os.Symlink(filepath.Join(src, "b"), filepath.Join(src, "link")))
	_, err = List(context.Background(), src)
	require.Error(t, err)
	require.Equal(t, rerr.SymlinkedBunfileNotAllowed, rerr.Code(err))
}

func writeRawTar(t *testing.T, path string, hdrs []*tar.Header) {
	f, err := os.Create(path)
	require.NoError(t, err)
	tw := tar.NewWriter(f)
	for _, hdr := range hdrs {
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Size > 0 {
			_, err := tw.Write(make([]byte, hdr.Size))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, f.Close())
}

func TestExtractRejectsUnsafeEntries(t *testing.T) {
	var tests = []struct {
		name     string
		hdr      *tar.Header
		expected rerr.Status
	}{
		{
			name:     "parent escape",
			hdr:      &tar.Header{Name: "../evil", Typeflag: tar.TypeReg, Size: 1, Mode: 0644},
			expected: rerr.SysStructFilePathErr,
		},
		{
			name:     "nested escape",
			hdr:      &tar.Header{Name: "a/../../evil", Typeflag: tar.TypeReg, Size: 1, Mode: 0644},
			expected: rerr.SysStructFilePathErr,
		},
		{
			name:     "symlink",
			hdr:      &tar.Header{Name: "link", Typeflag: tar.TypeSymlink, Linkname: "/etc/passwd"},
			expected: rerr.SymlinkedBunfileNotAllowed,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			archivePath := filepath.Join(t.TempDir(), "bad.tar")
			writeRawTar(t, archivePath, []*tar.Header{test.hdr})

			_, err := Extract(context.Background(), archivePath, filepath.Join(t.TempDir(), "cache"))
			require.Error(t, err)
			require.Equal(t, test.expected, rerr.Code(err))
		})
	}
}

func TestExtractMissingArchive(t *testing.T) {
	_, err := Extract(context.Background(), "/no/such/archive.tar", t.TempDir())
	require.Error(t, err)
	require.True(t, rerr.IsNotFound(err))
}

func TestParseDataType(t *testing.T) {
	require.Equal(t, Gzip, ParseDataType("gzipTar"))
	require.Equal(t, None, ParseDataType(""))
	require.Equal(t, DataTypeZstdTar, Zstd.DataType())
	require.Equal(t, DataTypeTar, None.DataType())
	require.Equal(t, "lz4", LZ4.String())
}
