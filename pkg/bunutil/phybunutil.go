package bunutil

import (
	"context"

	"github.com/apex/log"
	"github.com/materials-commons/mcbun/pkg/api"
)

type PhyBunOptions struct {
	Resource       string
	SrcResource    string
	DataType       string
	MaxSubFiles    int
	VerifyChecksum bool
}

// PhyBunUtil runs iphybun over each collection in turn and stops at the first
// collection that fails. The results of the collections already done are
// returned with the error.
func PhyBunUtil(ctx context.Context, s *Session, opts PhyBunOptions, colls []string) ([]*api.PhyBundleResult, error) {
	if opts.Resource == "" {
		return nil, usageErrorf("-R resource is required")
	}

	if opts.MaxSubFiles < 0 {
		return nil, usageErrorf("-N must not be negative")
	}

	if len(colls) == 0 {
		return nil, ErrNoInput
	}

	var results []*api.PhyBundleResult
	for _, coll := range colls {
		collPath, err := s.ResolvePath(coll)
		if err != nil {
			return results, usageErrorf("bad collection %s: %s", coll, err)
		}

		result, err := s.client.PhyBundleCollection(ctx, &api.PhyBundleRequest{
			Collection:     collPath,
			Resource:       opts.Resource,
			SrcResource:    opts.SrcResource,
			DataType:       opts.DataType,
			MaxSubFiles:    opts.MaxSubFiles,
			VerifyChecksum: opts.VerifyChecksum,
			User:           s.Env.User,
		})
		if err != nil {
			return results, err
		}

		log.Infof("Bundled %s: %d bundles, %d data objects skipped", collPath, len(result.Bundles), result.Skipped)
		results = append(results, result)
	}

	return results, nil
}
