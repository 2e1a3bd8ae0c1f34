package subfile

import (
	"context"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/materials-commons/mcbun/pkg/dispatch"
	"github.com/materials-commons/mcbun/pkg/metrics"
	"github.com/materials-commons/mcbun/pkg/rerr"
	"github.com/materials-commons/mcbun/pkg/rpc"
	"github.com/materials-commons/mcbun/pkg/structfile"
)

// Service runs sub-file and whole struct file operations on the server that
// owns the archive, dispatching through d and selecting the driver by type.
type Service struct {
	d       *dispatch.Dispatcher
	drivers *structfile.Registry
}

func NewService(d *dispatch.Dispatcher, drivers *structfile.Registry) *Service {
	return &Service{d: d, drivers: drivers}
}

func (s *Service) Create(ctx context.Context, sf *structfile.SubFile) (int, error) {
	if err := checkSubFile(sf); err != nil {
		return -1, err
	}

	return dispatch.Call(ctx, s.d, "create", sf.Addr, sf, s.localCreate, (*rpc.Client).SubFileCreate)
}

func (s *Service) Open(ctx context.Context, sf *structfile.SubFile) (int, error) {
	if err := checkSubFile(sf); err != nil {
		return -1, err
	}

	return dispatch.Call(ctx, s.d, "open", sf.Addr, sf, s.localOpen, (*rpc.Client).SubFileOpen)
}

func (s *Service) Read(ctx context.Context, req *structfile.FdRequest) ([]byte, error) {
	return dispatch.Call(ctx, s.d, "read", req.Addr, req, s.localRead, (*rpc.Client).SubFileRead)
}

// Write fails with SYS_COPY_LEN_ERR when fewer bytes than requested were written.
func (s *Service) Write(ctx context.Context, req *structfile.FdRequest) (int, error) {
	n, err := dispatch.Call(ctx, s.d, "write", req.Addr, req, s.localWrite, (*rpc.Client).SubFileWrite)
	if err == nil && n != len(req.Data) {
		err = rerr.New(rerr.SysCopyLenErr, "write to fd %d: wrote %d of %d bytes", req.Fd, n, len(req.Data))
		s.notice("write", "", err)
	}

	return n, err
}

func (s *Service) Close(ctx context.Context, req *structfile.FdRequest) error {
	_, err := dispatch.Call(ctx, s.d, "close", req.Addr, req, s.localClose, (*rpc.Client).SubFileClose)
	return err
}

func (s *Service) Unlink(ctx context.Context, sf *structfile.SubFile) error {
	if err := checkSubFile(sf); err != nil {
		return err
	}

	_, err := dispatch.Call(ctx, s.d, "unlink", sf.Addr, sf, s.localUnlink, (*rpc.Client).SubFileUnlink)
	return err
}

func (s *Service) Stat(ctx context.Context, sf *structfile.SubFile) (*structfile.StatResult, error) {
	if err := checkSubFile(sf); err != nil {
		return nil, err
	}

	return dispatch.Call(ctx, s.d, "stat", sf.Addr, sf, s.localStat, (*rpc.Client).SubFileStat)
}

func (s *Service) Fstat(ctx context.Context, req *structfile.FdRequest) (*structfile.StatResult, error) {
	return dispatch.Call(ctx, s.d, "fstat", req.Addr, req, s.localFstat, (*rpc.Client).SubFileFstat)
}

func (s *Service) Lseek(ctx context.Context, req *structfile.FdRequest) (int64, error) {
	return dispatch.Call(ctx, s.d, "lseek", req.Addr, req, s.localLseek, (*rpc.Client).SubFileLseek)
}

func (s *Service) Rename(ctx context.Context, req *structfile.RenameRequest) error {
	if req == nil || req.NewPath == "" {
		return rerr.New(rerr.SysInternalNullInputErr, "rename without a new path")
	}

	if err := checkSubFile(req.SubFile); err != nil {
		return err
	}

	_, err := dispatch.Call(ctx, s.d, "rename", req.SubFile.Addr, req, s.localRename, (*rpc.Client).SubFileRename)
	return err
}

func (s *Service) Mkdir(ctx context.Context, sf *structfile.SubFile) error {
	if err := checkSubFile(sf); err != nil {
		return err
	}

	_, err := dispatch.Call(ctx, s.d, "mkdir", sf.Addr, sf, s.localMkdir, (*rpc.Client).SubFileMkdir)
	return err
}

func (s *Service) Rmdir(ctx context.Context, sf *structfile.SubFile) error {
	if err := checkSubFile(sf); err != nil {
		return err
	}

	_, err := dispatch.Call(ctx, s.d, "rmdir", sf.Addr, sf, s.localRmdir, (*rpc.Client).SubFileRmdir)
	return err
}

func (s *Service) Opendir(ctx context.Context, sf *structfile.SubFile) (int, error) {
	if err := checkSubFile(sf); err != nil {
		return -1, err
	}

	return dispatch.Call(ctx, s.d, "opendir", sf.Addr, sf, s.localOpendir, (*rpc.Client).SubFileOpendir)
}

// Readdir returns nil once the directory is exhausted.
func (s *Service) Readdir(ctx context.Context, req *structfile.FdRequest) (*structfile.DirEntry, error) {
	return dispatch.Call(ctx, s.d, "readdir", req.Addr, req, s.localReaddir, (*rpc.Client).SubFileReaddir)
}

func (s *Service) Closedir(ctx context.Context, req *structfile.FdRequest) error {
	_, err := dispatch.Call(ctx, s.d, "closedir", req.Addr, req, s.localClosedir, (*rpc.Client).SubFileClosedir)
	return err
}

// Truncate sets the length of the sub-file to sf.Offset.
func (s *Service) Truncate(ctx context.Context, sf *structfile.SubFile) error {
	if err := checkSubFile(sf); err != nil {
		return err
	}

	_, err := dispatch.Call(ctx, s.d, "truncate", sf.Addr, sf, s.localTruncate, (*rpc.Client).SubFileTruncate)
	return err
}

func (s *Service) StructFileSync(ctx context.Context, req *structfile.SyncRequest) error {
	if req == nil || req.SpecColl == nil {
		return rerr.New(rerr.SysInternalNullInputErr, "sync without a struct file")
	}

	_, err := dispatch.Call(ctx, s.d, "sync", req.Addr, req, s.localSync, (*rpc.Client).StructFileSync)
	return err
}

func (s *Service) StructFileExtract(ctx context.Context, req *structfile.ExtractRequest) error {
	if req == nil || req.SpecColl == nil {
		return rerr.New(rerr.SysInternalNullInputErr, "extract without a struct file")
	}

	_, err := dispatch.Call(ctx, s.d, "extract", req.Addr, req, s.localExtract, (*rpc.Client).StructFileExtract)
	return err
}

const copyChunk = 4 * 1024 * 1024

// Get reads a whole sub-file. Anything other than exactly the stat'ed size
// fails with SYS_COPY_LEN_ERR.
func (s *Service) Get(ctx context.Context, sf *structfile.SubFile) ([]byte, error) {
	st, err := s.Stat(ctx, sf)
	if err != nil {
		return nil, err
	}

	open := *sf
	open.Flags = os.O_RDONLY
	fd, err := s.Open(ctx, &open)
	if err != nil {
		return nil, err
	}

	req := &structfile.FdRequest{Addr: sf.Addr, Type: sf.SpecColl.Type, Fd: fd}
	data := make([]byte, 0, st.Size)
	for int64(len(data)) < st.Size {
		req.Len = int(min(st.Size-int64(len(data)), copyChunk))
		chunk, err := s.Read(ctx, req)
		if err != nil {
			_ = s.Close(ctx, req)
			return nil, err
		}

		if len(chunk) == 0 {
			break
		}

		data = append(data, chunk...)
	}

	if err := s.Close(ctx, req); err != nil {
		return nil, err
	}

	if int64(len(data)) != st.Size {
		err := rerr.New(rerr.SysCopyLenErr, "%s: read %d of %d bytes", sf.SubFilePath, len(data), st.Size)
		s.notice("get", sf.SubFilePath, err)
		return nil, err
	}

	return data, nil
}

// Put creates or replaces a sub-file with data.
func (s *Service) Put(ctx context.Context, sf *structfile.SubFile, r io.Reader) (int64, error) {
	fd, err := s.Create(ctx, sf)
	if err != nil {
		return 0, err
	}

	req := &structfile.FdRequest{Addr: sf.Addr, Type: sf.SpecColl.Type, Fd: fd}
	buf := make([]byte, copyChunk)
	var total int64
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			req.Data = buf[:n]
			if _, err := s.Write(ctx, req); err != nil {
				_ = s.Close(ctx, req)
				return total, err
			}
			total += int64(n)
		}

		if readErr == io.EOF {
			break
		}

		if readErr != nil {
			_ = s.Close(ctx, req)
			return total, rerr.Unix(rerr.UnixFileReadErr, readErr)
		}
	}

	req.Data = nil
	return total, s.Close(ctx, req)
}

func (s *Service) notice(op, path string, err error) {
	metrics.SubFileErrors.WithLabelValues(op).Inc()
	log.WithFields(log.Fields{
		"op":     op,
		"path":   path,
		"status": int(rerr.Code(err)),
	}).Warnf("sub-file %s failed: %s", op, err)
}

func checkSubFile(sf *structfile.SubFile) error {
	if sf == nil || sf.SpecColl == nil || sf.SubFilePath == "" {
		return rerr.New(rerr.SysInternalNullInputErr, "sub-file request is missing its path or struct file")
	}

	return nil
}
