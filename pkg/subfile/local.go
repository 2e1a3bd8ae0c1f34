package subfile

import (
	"context"

	"github.com/materials-commons/mcbun/pkg/structfile"
)

// The local* functions run an operation against this server's driver for the
// struct file type. Every failure is logged and counted before it is returned.

func (s *Service) localCreate(ctx context.Context, sf *structfile.SubFile) (int, error) {
	d, err := s.driver("create", sf.SpecColl.Type)
	if err != nil {
		return -1, err
	}

	fd, err := d.Create(ctx, sf)
	return fd, s.check("create", sf.SubFilePath, err)
}

func (s *Service) localOpen(ctx context.Context, sf *structfile.SubFile) (int, error) {
	d, err := s.driver("open", sf.SpecColl.Type)
	if err != nil {
		return -1, err
	}

	fd, err := d.Open(ctx, sf)
	return fd, s.check("open", sf.SubFilePath, err)
}

func (s *Service) localRead(ctx context.Context, req *structfile.FdRequest) ([]byte, error) {
	d, err := s.driver("read", req.Type)
	if err != nil {
		return nil, err
	}

	data, err := d.Read(ctx, req.Fd, req.Len)
	return data, s.check("read", "", err)
}

func (s *Service) localWrite(ctx context.Context, req *structfile.FdRequest) (int, error) {
	d, err := s.driver("write", req.Type)
	if err != nil {
		return 0, err
	}

	n, err := d.Write(ctx, req.Fd, req.Data)
	return n, s.check("write", "", err)
}

func (s *Service) localClose(ctx context.Context, req *structfile.FdRequest) (int, error) {
	d, err := s.driver("close", req.Type)
	if err != nil {
		return -1, err
	}

	return status(s.check("close", "", d.Close(ctx, req.Fd)))
}

func (s *Service) localClosedir(ctx context.Context, req *structfile.FdRequest) (int, error) {
	d, err := s.driver("closedir", req.Type)
	if err != nil {
		return -1, err
	}

	return status(s.check("closedir", "", d.Closedir(ctx, req.Fd)))
}

func (s *Service) localUnlink(ctx context.Context, sf *structfile.SubFile) (int, error) {
	d, err := s.driver("unlink", sf.SpecColl.Type)
	if err != nil {
		return -1, err
	}

	return status(s.check("unlink", sf.SubFilePath, d.Unlink(ctx, sf)))
}

func (s *Service) localStat(ctx context.Context, sf *structfile.SubFile) (*structfile.StatResult, error) {
	d, err := s.driver("stat", sf.SpecColl.Type)
	if err != nil {
		return nil, err
	}

	st, err := d.Stat(ctx, sf)
	return st, s.check("stat", sf.SubFilePath, err)
}

func (s *Service) localFstat(ctx context.Context, req *structfile.FdRequest) (*structfile.StatResult, error) {
	d, err := s.driver("fstat", req.Type)
	if err != nil {
		return nil, err
	}

	st, err := d.Fstat(ctx, req.Fd)
	return st, s.check("fstat", "", err)
}

func (s *Service) localLseek(ctx context.Context, req *structfile.FdRequest) (int64, error) {
	d, err := s.driver("lseek", req.Type)
	if err != nil {
		return -1, err
	}

	off, err := d.Lseek(ctx, req.Fd, req.Offset, req.Whence)
	return off, s.check("lseek", "", err)
}

func (s *Service) localRename(ctx context.Context, req *structfile.RenameRequest) (int, error) {
	d, err := s.driver("rename", req.SubFile.SpecColl.Type)
	if err != nil {
		return -1, err
	}

	return status(s.check("rename", req.SubFile.SubFilePath, d.Rename(ctx, req.SubFile, req.NewPath)))
}

func (s *Service) localMkdir(ctx context.Context, sf *structfile.SubFile) (int, error) {
	d, err := s.driver("mkdir", sf.SpecColl.Type)
	if err != nil {
		return -1, err
	}

	return status(s.check("mkdir", sf.SubFilePath, d.Mkdir(ctx, sf)))
}

func (s *Service) localRmdir(ctx context.Context, sf *structfile.SubFile) (int, error) {
	d, err := s.driver("rmdir", sf.SpecColl.Type)
	if err != nil {
		return -1, err
	}

	return status(s.check("rmdir", sf.SubFilePath, d.Rmdir(ctx, sf)))
}

func (s *Service) localOpendir(ctx context.Context, sf *structfile.SubFile) (int, error) {
	d, err := s.driver("opendir", sf.SpecColl.Type)
	if err != nil {
		return -1, err
	}

	fd, err := d.Opendir(ctx, sf)
	return fd, s.check("opendir", sf.SubFilePath, err)
}

func (s *Service) localReaddir(ctx context.Context, req *structfile.FdRequest) (*structfile.DirEntry, error) {
	d, err := s.driver("readdir", req.Type)
	if err != nil {
		return nil, err
	}

	ent, err := d.Readdir(ctx, req.Fd)
	return ent, s.check("readdir", "", err)
}

func (s *Service) localTruncate(ctx context.Context, sf *structfile.SubFile) (int, error) {
	d, err := s.driver("truncate", sf.SpecColl.Type)
	if err != nil {
		return -1, err
	}

	return status(s.check("truncate", sf.SubFilePath, d.Truncate(ctx, sf)))
}

func (s *Service) localSync(ctx context.Context, req *structfile.SyncRequest) (int, error) {
	d, err := s.driver("sync", req.SpecColl.Type)
	if err != nil {
		return -1, err
	}

	return status(s.check("sync", req.SpecColl.PhyPath, d.Sync(ctx, req.SpecColl, req.Flags)))
}

func (s *Service) localExtract(ctx context.Context, req *structfile.ExtractRequest) (int, error) {
	d, err := s.driver("extract", req.SpecColl.Type)
	if err != nil {
		return -1, err
	}

	return status(s.check("extract", req.SpecColl.PhyPath, d.Extract(ctx, req.SpecColl)))
}

func (s *Service) driver(op string, t structfile.Type) (structfile.Driver, error) {
	d, err := s.drivers.Lookup(t)
	if err != nil {
		s.notice(op, "", err)
		return nil, err
	}

	return d, nil
}

func (s *Service) check(op, path string, err error) error {
	if err != nil {
		s.notice(op, path, err)
	}

	return err
}

func status(err error) (int, error) {
	if err != nil {
		return -1, err
	}

	return 0, nil
}
