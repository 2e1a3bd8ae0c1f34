package bunutil

import (
	"context"

	"github.com/apex/log"
	"github.com/materials-commons/mcbun/pkg/api"
)

type BunOptions struct {
	Extract  bool
	Create   bool
	Bulk     bool
	Force    bool
	Resource string
	DataType string
}

// BunResult holds whichever of the two results the run produced.
type BunResult struct {
	Extract *api.ExtAndRegResult
	Bundle  *api.BundleResult
}

// BunUtil runs ibun: -x extracts structFilePath into coll and registers its
// entries, -c packs coll into a struct file at structFilePath.
func BunUtil(ctx context.Context, s *Session, opts BunOptions, structFilePath, coll string) (*BunResult, error) {
	switch {
	case opts.Extract == opts.Create:
		return nil, usageErrorf("exactly one of -x or -c is required")
	case opts.Extract && opts.DataType != "":
		return nil, usageErrorf("-D only applies to -c")
	case opts.Create && opts.Bulk:
		return nil, usageErrorf("-b only applies to -x")
	}

	objPath, err := s.ResolvePath(structFilePath)
	if err != nil {
		return nil, usageErrorf("bad struct file path %s: %s", structFilePath, err)
	}

	collPath, err := s.ResolvePath(coll)
	if err != nil {
		return nil, usageErrorf("bad collection %s: %s", coll, err)
	}

	if opts.Extract {
		req := &api.ExtAndRegRequest{
			ObjPath:    objPath,
			Collection: collPath,
			Resource:   opts.Resource,
			Force:      opts.Force,
			Bulk:       opts.Bulk,
			User:       s.Env.User,
		}

		result, err := s.client.ExtractAndRegister(ctx, req)
		if err != nil {
			return nil, err
		}

		log.Infof("Extracted %s into %s: %d registered, %d overwritten, %d skipped",
			objPath, collPath, result.Registered, result.Overwritten, result.Skipped)
		return &BunResult{Extract: result}, nil
	}

	req := &api.BundleRequest{
		ObjPath:    objPath,
		Collection: collPath,
		Resource:   s.resource(opts.Resource),
		DataType:   opts.DataType,
		Force:      opts.Force,
		User:       s.Env.User,
	}

	result, err := s.client.BundleCollection(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Infof("Bundled %d data objects of %s into %s", result.Members, collPath, objPath)
	return &BunResult{Bundle: result}, nil
}
