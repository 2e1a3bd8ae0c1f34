package structfile

import (
	"context"
	"errors"
	"io"
	"os"
	"syscall"

	"github.com/apex/log"
	"github.com/materials-commons/mcbun/pkg/fdtable"
	"github.com/materials-commons/mcbun/pkg/lock"
	"github.com/materials-commons/mcbun/pkg/rerr"
	"github.com/materials-commons/mcbun/pkg/structfile/archive"
)

const maxReadLen = 64 * 1024 * 1024

// TarDriver serves sub-files of tar struct files out of a cache directory that
// the archive is extracted into on first access. Mutations mark the cache dirty;
// when the last sub-file of an archive closes a dirty cache is written back.
type TarDriver struct {
	structs *DescTable
	subs    *fdtable.Table[*subDesc]
	specs   SpecCollCache
	locker  *lock.KeyLocker[string]
}

func NewTarDriver(specs SpecCollCache) *TarDriver {
	if specs == nil {
		specs = NewInMemorySpecCollCache()
	}

	return &TarDriver{
		structs: NewDescTable(),
		subs:    fdtable.New[*subDesc](NumSubFileDesc),
		specs:   specs,
		locker:  lock.NewKeyLocker[string](),
	}
}

func (d *TarDriver) Type() Type {
	return TarType
}

// Descs exposes the struct file descriptor table.
func (d *TarDriver) Descs() *DescTable {
	return d.structs
}

func (d *TarDriver) Create(ctx context.Context, sf *SubFile) (int, error) {
	fd := -1
	err := d.withStruct(ctx, sf, func(idx int, desc *Desc) error {
		p, _, err := desc.subPath(sf.SpecColl.Collection, sf.SubFilePath)
		if err != nil {
			return err
		}

		f, err := os.OpenFile(p, os.O_RDWR|os.O_CREATE|os.O_TRUNC, fileMode(sf.Mode, 0640))
		if err != nil {
			return rerr.Unix(rerr.UnixFileCreateErr, err)
		}

		desc.SpecColl.CacheDirty = true
		fd, err = d.allocSub(idx, desc, f, false)
		return err
	})

	return fd, err
}

func (d *TarDriver) Open(ctx context.Context, sf *SubFile) (int, error) {
	fd := -1
	err := d.withStruct(ctx, sf, func(idx int, desc *Desc) error {
		p, _, err := desc.subPath(sf.SpecColl.Collection, sf.SubFilePath)
		if err != nil {
			return err
		}

		f, err := os.OpenFile(p, sf.Flags, fileMode(sf.Mode, 0640))
		if err != nil {
			return rerr.Unix(rerr.UnixFileOpenErr, err)
		}

		if sf.Flags&(os.O_CREATE|os.O_TRUNC) != 0 {
			desc.SpecColl.CacheDirty = true
		}

		fd, err = d.allocSub(idx, desc, f, false)
		return err
	})

	return fd, err
}

func (d *TarDriver) Read(_ context.Context, fd int, length int) ([]byte, error) {
	if length < 0 || length > maxReadLen {
		return nil, rerr.New(rerr.SysInvalidInputParam, "read length %d out of range", length)
	}

	var data []byte
	err := d.withSub(fd, func(sub *subDesc, _ *Desc) error {
		buf := make([]byte, length)
		n, err := io.ReadFull(sub.file, buf)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return rerr.Unix(rerr.UnixFileReadErr, err)
		}

		data = buf[:n]
		return nil
	})

	return data, err
}

func (d *TarDriver) Write(_ context.Context, fd int, data []byte) (int, error) {
	written := 0
	err := d.withSub(fd, func(sub *subDesc, desc *Desc) error {
		n, err := sub.file.Write(data)
		written = n
		if n > 0 || err == nil {
			desc.SpecColl.CacheDirty = true
		}

		if err != nil {
			return rerr.Unix(rerr.UnixFileWriteErr, err)
		}

		return nil
	})

	return written, err
}

func (d *TarDriver) Close(ctx context.Context, fd int) error {
	return d.closeSub(ctx, fd, rerr.UnixFileCloseErr)
}

func (d *TarDriver) Closedir(ctx context.Context, fd int) error {
	return d.closeSub(ctx, fd, rerr.UnixFileClosedirErr)
}

func (d *TarDriver) Fstat(_ context.Context, fd int) (*StatResult, error) {
	var st *StatResult
	err := d.withSub(fd, func(sub *subDesc, _ *Desc) error {
		fi, err := sub.file.Stat()
		if err != nil {
			return rerr.Unix(rerr.UnixFileFstatErr, err)
		}

		st = toStatResult(fi)
		return nil
	})

	return st, err
}

func (d *TarDriver) Lseek(_ context.Context, fd int, offset int64, whence int) (int64, error) {
	var pos int64
	err := d.withSub(fd, func(sub *subDesc, _ *Desc) error {
		var err error
		if pos, err = sub.file.Seek(offset, whence); err != nil {
			return rerr.Unix(rerr.UnixFileLseekErr, err)
		}

		return nil
	})

	return pos, err
}

func (d *TarDriver) Readdir(_ context.Context, fd int) (*DirEntry, error) {
	var entry *DirEntry
	err := d.withSub(fd, func(sub *subDesc, _ *Desc) error {
		if !sub.isDir {
			return rerr.Unix(rerr.UnixFileReaddirErr, syscall.ENOTDIR)
		}

		entries, err := sub.file.ReadDir(1)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return rerr.Unix(rerr.UnixFileReaddirErr, err)
		case len(entries) == 0:
			return nil
		}

		entry = &DirEntry{Name: entries[0].Name(), IsDir: entries[0].IsDir()}
		if fi, err := entries[0].Info(); err == nil {
			entry.Size = fi.Size()
		}

		return nil
	})

	return entry, err
}

func (d *TarDriver) Unlink(ctx context.Context, sf *SubFile) error {
	return d.withStruct(ctx, sf, func(_ int, desc *Desc) error {
		p, rel, err := desc.subPath(sf.SpecColl.Collection, sf.SubFilePath)
		if err != nil {
			return err
		}

		if rel == "" {
			return rerr.New(rerr.SysStructFilePathErr, "cannot unlink the mount point %s", sf.SubFilePath)
		}

		if fi, err := os.Lstat(p); err == nil && fi.IsDir() {
			return rerr.Unix(rerr.UnixFileUnlinkErr, syscall.EISDIR)
		}

		if err := os.Remove(p); err != nil {
			return rerr.Unix(rerr.UnixFileUnlinkErr, err)
		}

		desc.SpecColl.CacheDirty = true
		return nil
	})
}

func (d *TarDriver) Stat(ctx context.Context, sf *SubFile) (*StatResult, error) {
	var st *StatResult
	err := d.withStruct(ctx, sf, func(_ int, desc *Desc) error {
		p, _, err := desc.subPath(sf.SpecColl.Collection, sf.SubFilePath)
		if err != nil {
			return err
		}

		fi, err := os.Stat(p)
		if err != nil {
			return rerr.Unix(rerr.UnixFileStatErr, err)
		}

		st = toStatResult(fi)
		return nil
	})

	return st, err
}

func (d *TarDriver) Rename(ctx context.Context, sf *SubFile, newPath string) error {
	return d.withStruct(ctx, sf, func(_ int, desc *Desc) error {
		from, fromRel, err := desc.subPath(sf.SpecColl.Collection, sf.SubFilePath)
		if err != nil {
			return err
		}

		to, toRel, err := desc.subPath(sf.SpecColl.Collection, newPath)
		if err != nil {
			return err
		}

		if fromRel == "" || toRel == "" {
			return rerr.New(rerr.SysStructFilePathErr, "cannot rename the mount point of %s", desc.SpecColl.Collection)
		}

		if err := os.Rename(from, to); err != nil {
			return rerr.Unix(rerr.UnixFileRenameErr, err)
		}

		desc.SpecColl.CacheDirty = true
		return nil
	})
}

func (d *TarDriver) Mkdir(ctx context.Context, sf *SubFile) error {
	return d.withStruct(ctx, sf, func(_ int, desc *Desc) error {
		p, _, err := desc.subPath(sf.SpecColl.Collection, sf.SubFilePath)
		if err != nil {
			return err
		}

		if err := os.Mkdir(p, fileMode(sf.Mode, 0750)); err != nil {
			return rerr.Unix(rerr.UnixFileMkdirErr, err)
		}

		desc.SpecColl.CacheDirty = true
		return nil
	})
}

func (d *TarDriver) Rmdir(ctx context.Context, sf *SubFile) error {
	return d.withStruct(ctx, sf, func(_ int, desc *Desc) error {
		p, rel, err := desc.subPath(sf.SpecColl.Collection, sf.SubFilePath)
		if err != nil {
			return err
		}

		if rel == "" {
			return rerr.New(rerr.SysStructFilePathErr, "cannot remove the mount point %s", sf.SubFilePath)
		}

		fi, err := os.Lstat(p)
		if err != nil {
			return rerr.Unix(rerr.UnixFileRmdirErr, err)
		}

		if !fi.IsDir() {
			return rerr.Unix(rerr.UnixFileRmdirErr, syscall.ENOTDIR)
		}

		if err := os.Remove(p); err != nil {
			return rerr.Unix(rerr.UnixFileRmdirErr, err)
		}

		desc.SpecColl.CacheDirty = true
		return nil
	})
}

func (d *TarDriver) Opendir(ctx context.Context, sf *SubFile) (int, error) {
	fd := -1
	err := d.withStruct(ctx, sf, func(idx int, desc *Desc) error {
		p, _, err := desc.subPath(sf.SpecColl.Collection, sf.SubFilePath)
		if err != nil {
			return err
		}

		f, err := os.Open(p)
		if err != nil {
			return rerr.Unix(rerr.UnixFileOpendirErr, err)
		}

		if fi, err := f.Stat(); err != nil || !fi.IsDir() {
			_ = f.Close()
			return rerr.Unix(rerr.UnixFileOpendirErr, syscall.ENOTDIR)
		}

		fd, err = d.allocSub(idx, desc, f, true)
		return err
	})

	return fd, err
}

func (d *TarDriver) Truncate(ctx context.Context, sf *SubFile) error {
	return d.withStruct(ctx, sf, func(_ int, desc *Desc) error {
		p, _, err := desc.subPath(sf.SpecColl.Collection, sf.SubFilePath)
		if err != nil {
			return err
		}

		if err := os.Truncate(p, sf.Offset); err != nil {
			return rerr.Unix(rerr.UnixFileTruncateErr, err)
		}

		desc.SpecColl.CacheDirty = true
		return nil
	})
}

// Sync writes a dirty cache back into the archive. It is refused while any
// sub-file of the archive is open.
func (d *TarDriver) Sync(ctx context.Context, sc *SpecColl, flags SyncFlags) error {
	if err := checkSpecColl(sc); err != nil {
		return err
	}

	return d.locker.WithLock(sc.PhyPath, func() error {
		idx, desc, found := d.findStruct(sc.PhyPath)
		if found && desc.OpenCnt > 0 {
			return rerr.New(rerr.SysStructFileBusyErr, "%s has %d open sub-files", sc.PhyPath, desc.OpenCnt)
		}

		if !found {
			var err error
			desc = d.newDesc(sc)
			if idx, err = d.structs.Alloc(desc); err != nil {
				return err
			}
		}
		defer d.structs.Free(idx)

		return d.syncLocked(ctx, desc, flags)
	})
}

// Extract unpacks the archive into sc.CacheDir, which must be missing or empty.
func (d *TarDriver) Extract(ctx context.Context, sc *SpecColl) error {
	if err := checkSpecColl(sc); err != nil {
		return err
	}

	if sc.CacheDir == "" {
		return rerr.New(rerr.SysInternalNullInputErr, "extract of %s has no target directory", sc.PhyPath)
	}

	return d.locker.WithLock(sc.PhyPath, func() error {
		if _, desc, found := d.findStruct(sc.PhyPath); found && desc.OpenCnt > 0 {
			return rerr.New(rerr.SysStructFileBusyErr, "%s has %d open sub-files", sc.PhyPath, desc.OpenCnt)
		}

		if empty, err := isEmptyDir(sc.CacheDir); err == nil && !empty {
			return rerr.New(rerr.SysDirInVaultNotEmpty, "%s is not empty", sc.CacheDir)
		}

		idx, err := d.structs.Alloc(&Desc{SpecColl: *sc, DataType: sc.DataType})
		if err != nil {
			return err
		}
		defer d.structs.Free(idx)

		if _, err := archive.Extract(ctx, sc.PhyPath, sc.CacheDir); err != nil {
			log.Warnf("Extract of %s into %s failed: %s", sc.PhyPath, sc.CacheDir, err)
			if rerr.Is(err, rerr.SymlinkedBunfileNotAllowed) || rerr.Is(err, rerr.SysStructFilePathErr) {
				_ = os.RemoveAll(sc.CacheDir)
			}
			return err
		}

		return nil
	})
}

// withStruct runs fn with the archive of sf staged and locked. If fn leaves no
// sub-file open the descriptor is released again, writing back a dirty cache.
func (d *TarDriver) withStruct(ctx context.Context, sf *SubFile, fn func(idx int, desc *Desc) error) error {
	if sf == nil {
		return rerr.New(rerr.SysInternalNullInputErr, "nil sub-file")
	}

	if err := checkSpecColl(sf.SpecColl); err != nil {
		return err
	}

	return d.locker.WithLock(sf.SpecColl.PhyPath, func() error {
		idx, desc, err := d.openStruct(ctx, sf.SpecColl)
		if err != nil {
			return err
		}

		err = fn(idx, desc)
		if desc.OpenCnt == 0 {
			if relErr := d.release(ctx, idx, desc); err == nil {
				err = relErr
			}
		}

		return err
	})
}

// withSub runs fn holding the lock of the archive that owns fd.
func (d *TarDriver) withSub(fd int, fn func(sub *subDesc, desc *Desc) error) error {
	sub, ok := d.subs.Get(fd)
	if !ok {
		return rerr.New(rerr.SysStructFileDescErr, "sub-file descriptor %d is not open", fd)
	}

	desc, ok := d.structs.Get(sub.structIdx)
	if !ok {
		return rerr.New(rerr.SysStructFileDescErr, "struct file descriptor %d is not open", sub.structIdx)
	}

	return d.locker.WithLock(desc.SpecColl.PhyPath, func() error {
		if current, ok := d.subs.Get(fd); !ok || current != sub {
			return rerr.New(rerr.SysStructFileDescErr, "sub-file descriptor %d was closed", fd)
		}

		return fn(sub, desc)
	})
}

func (d *TarDriver) closeSub(ctx context.Context, fd int, code rerr.Status) error {
	return d.withSub(fd, func(sub *subDesc, desc *Desc) error {
		err := sub.file.Close()
		d.subs.Free(fd)
		desc.OpenCnt--

		var relErr error
		if desc.OpenCnt == 0 {
			relErr = d.release(ctx, sub.structIdx, desc)
		}

		if err != nil {
			return rerr.Unix(code, err)
		}

		return relErr
	})
}

func (d *TarDriver) allocSub(idx int, desc *Desc, f *os.File, isDir bool) (int, error) {
	fd, err := d.subs.Alloc(&subDesc{structIdx: idx, file: f, isDir: isDir})
	if err != nil {
		_ = f.Close()
		return -1, err
	}

	desc.OpenCnt++
	return fd, nil
}

func (d *TarDriver) findStruct(phyPath string) (int, *Desc, bool) {
	return d.structs.Find(func(desc *Desc) bool {
		return desc.SpecColl.PhyPath == phyPath
	})
}

// newDesc builds a descriptor for sc, picking up a cache directory recorded by
// an earlier mount of the same archive.
func (d *TarDriver) newDesc(sc *SpecColl) *Desc {
	mount := *sc
	if mount.CacheDir == "" {
		cached, err := d.specs.GetSpecColl(sc.Collection)
		if err != nil {
			log.Warnf("Looking up mount state of %s failed: %s", sc.Collection, err)
		} else if cached != nil && cached.PhyPath == sc.PhyPath {
			mount.CacheDir = cached.CacheDir
			mount.CacheDirty = mount.CacheDirty || cached.CacheDirty
		}
	}

	if mount.DataType == "" {
		mount.DataType = archive.DataTypeTar
	}

	return &Desc{SpecColl: mount, DataType: mount.DataType}
}

// openStruct returns the descriptor holding sc's archive, allocating and staging
// one when none is held. The slot is allocated before any I/O so a full table
// fails fast.
func (d *TarDriver) openStruct(ctx context.Context, sc *SpecColl) (int, *Desc, error) {
	if idx, desc, found := d.findStruct(sc.PhyPath); found {
		return idx, desc, nil
	}

	desc := d.newDesc(sc)
	idx, err := d.structs.Alloc(desc)
	if err != nil {
		return -1, nil, err
	}

	if err := d.stage(ctx, desc); err != nil {
		d.structs.Free(idx)
		return -1, nil, err
	}

	return idx, desc, nil
}

// stage makes sure the cache directory exists and holds the archive contents.
// A missing archive is a new, empty struct file.
func (d *TarDriver) stage(ctx context.Context, desc *Desc) error {
	sc := &desc.SpecColl
	if sc.CacheDir != "" {
		if fi, err := os.Stat(sc.CacheDir); err == nil && fi.IsDir() {
			return nil
		}

		if err := os.MkdirAll(sc.CacheDir, 0750); err != nil {
			return rerr.Unix(rerr.UnixFileMkdirErr, err)
		}
	} else {
		dir, err := makeCacheDir(sc.PhyPath)
		if err != nil {
			return err
		}
		sc.CacheDir = dir
	}

	sc.CacheDirty = false
	if _, err := os.Stat(sc.PhyPath); os.IsNotExist(err) {
		return nil
	}

	if _, err := archive.Extract(ctx, sc.PhyPath, sc.CacheDir); err != nil {
		log.Warnf("Staging %s into %s failed: %s", sc.PhyPath, sc.CacheDir, err)
		_ = os.RemoveAll(sc.CacheDir)
		sc.CacheDir = ""
		return err
	}

	return nil
}

// release frees a descriptor with no open sub-files, writing back a dirty cache.
func (d *TarDriver) release(ctx context.Context, idx int, desc *Desc) error {
	defer d.structs.Free(idx)
	return d.syncLocked(ctx, desc, SyncFlags{})
}

func (d *TarDriver) syncLocked(ctx context.Context, desc *Desc, flags SyncFlags) error {
	sc := &desc.SpecColl

	if flags.DeleteStructFile {
		if sc.CacheDir != "" {
			if err := os.RemoveAll(sc.CacheDir); err != nil {
				return rerr.Unix(rerr.UnixFileRmdirErr, err)
			}
		}
		sc.CacheDir, sc.CacheDirty = "", false
		return d.saveSpec(sc, flags)
	}

	if sc.CacheDir == "" {
		return nil
	}

	if _, err := os.Stat(sc.CacheDir); os.IsNotExist(err) {
		sc.CacheDir, sc.CacheDirty = "", false
		return d.saveSpec(sc, flags)
	}

	if sc.CacheDirty {
		n, err := archive.Write(ctx, sc.CacheDir, sc.PhyPath, desc.DataType)
		if err != nil {
			log.Warnf("Sync of %s from %s failed: %s", sc.PhyPath, sc.CacheDir, err)
			_ = d.saveSpec(sc, flags)
			return err
		}

		log.Infof("Synced %d entries of %s into %s", n, sc.CacheDir, sc.PhyPath)
		sc.CacheDirty = false
	}

	if flags.PurgeCache {
		if err := os.RemoveAll(sc.CacheDir); err != nil {
			return rerr.Unix(rerr.UnixFileRmdirErr, err)
		}
		sc.CacheDir = ""
	}

	return d.saveSpec(sc, flags)
}

func (d *TarDriver) saveSpec(sc *SpecColl, flags SyncFlags) error {
	if flags.NoRegCollInfo {
		return nil
	}

	if err := d.specs.SaveSpecColl(sc); err != nil {
		log.Warnf("Saving mount state of %s failed: %s", sc.Collection, err)
		return err
	}

	return nil
}

func checkSpecColl(sc *SpecColl) error {
	if sc == nil || sc.PhyPath == "" || sc.Collection == "" {
		return rerr.New(rerr.SysInternalNullInputErr, "struct file request is missing its collection or physical path")
	}

	return nil
}

func fileMode(mode uint32, def os.FileMode) os.FileMode {
	if perm := os.FileMode(mode).Perm(); perm != 0 {
		return perm
	}

	return def
}
