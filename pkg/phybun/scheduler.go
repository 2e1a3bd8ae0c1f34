package phybun

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/apex/log"
	"github.com/materials-commons/mcbun/pkg/api"
	"github.com/materials-commons/mcbun/pkg/dispatch"
	"github.com/materials-commons/mcbun/pkg/mcdb/mcmodel"
	"github.com/materials-commons/mcbun/pkg/mcdb/stor"
	"github.com/materials-commons/mcbun/pkg/mcpath"
	"github.com/materials-commons/mcbun/pkg/metrics"
	"github.com/materials-commons/mcbun/pkg/rerr"
	"github.com/materials-commons/mcbun/pkg/rpc"
	"github.com/materials-commons/mcbun/pkg/structfile"
	"github.com/materials-commons/mcbun/pkg/structfile/archive"
	"github.com/materials-commons/mcbun/pkg/subfile"
)

const maxNameAttempts = 10

// Scheduler walks collections and writes their data objects into bundles.
type Scheduler struct {
	stors    *stor.Stors
	subfiles *subfile.Service
	d        *dispatch.Dispatcher
	limits   Limits
}

func NewScheduler(stors *stor.Stors, subfiles *subfile.Service, d *dispatch.Dispatcher, limits Limits) *Scheduler {
	return &Scheduler{stors: stors, subfiles: subfiles, d: d, limits: limits.withDefaults()}
}

// BundleCollection bundles the eligible data objects under req.Collection onto
// req.Resource, which must be a cache resource or a group with a cache member.
// Each bundle is registered with its members in one transaction. The first
// bundle that fails ends the run.
func (s *Scheduler) BundleCollection(ctx context.Context, req *api.PhyBundleRequest) (*api.PhyBundleResult, error) {
	if mcpath.IsTrashOrBundle(req.Collection) {
		return nil, rerr.New(rerr.SysInvalidFilePath, "%s is a trash or bundle collection", req.Collection)
	}

	coll, err := s.stors.CollectionStor.GetCollectionByPath(req.Collection)
	if err != nil {
		return nil, err
	}

	if coll.IsMounted() {
		return nil, rerr.New(rerr.SysStructFileInMountedColl, "%s is a struct file collection", coll.Path)
	}

	resc, err := s.cacheResource(req.Resource)
	if err != nil {
		log.Errorf("Resource %s cannot hold bundles: %s", req.Resource, err)
		return nil, err
	}

	addr := structfile.HostAddr{HostName: resc.Host, ZoneName: mcpath.Zone(req.Collection)}
	local := func(ctx context.Context, req *api.PhyBundleRequest) (*api.PhyBundleResult, error) {
		return s.bundleLocal(ctx, req, resc)
	}

	return dispatch.Call(ctx, s.d, "phybundle", addr, req, local, (*rpc.Client).PhyBundleCollection)
}

// cacheResource returns the resource that will hold the bundle files.
func (s *Scheduler) cacheResource(name string) (*mcmodel.Resource, error) {
	if name == "" {
		return nil, rerr.New(rerr.SysInvalidRescType, "a cache resource is required")
	}

	resc, err := s.stors.ResourceStor.GetResourceByName(name)
	if err != nil {
		return nil, err
	}

	switch {
	case resc.IsCache():
		return resc, nil
	case resc.IsGroup():
		members, err := s.stors.ResourceStor.ListGroupMembers(resc.Name)
		if err != nil {
			return nil, err
		}

		for i := range members {
			if members[i].IsCache() {
				return &members[i], nil
			}
		}

		return nil, rerr.New(rerr.SysNoCacheRescInGrp, "resource group %s has no cache resource", name)
	default:
		return nil, rerr.New(rerr.SysInvalidRescType, "%s is a %s resource, not a cache", name, resc.Class)
	}
}

func (s *Scheduler) bundleLocal(ctx context.Context, req *api.PhyBundleRequest, resc *mcmodel.Resource) (*api.PhyBundleResult, error) {
	objs, err := s.stors.CollectionStor.ListDataObjectsUnder(req.Collection)
	if err != nil {
		return nil, err
	}

	selector := NewMemberSelector(req.SrcResource)
	limits := s.limits
	if req.MaxSubFiles > 0 {
		limits.MaxSubFiles = req.MaxSubFiles
	}

	result := &api.PhyBundleResult{}
	packer := NewPacker(limits)
	for _, m := range selector.Select(objs) {
		if b := packer.Add(m); b != nil {
			if err := s.writeBundle(ctx, req, resc, b, result); err != nil {
				result.Skipped = selector.Skipped
				return result, err
			}
		}
	}

	if b := packer.Flush(); b != nil {
		if err := s.writeBundle(ctx, req, resc, b, result); err != nil {
			result.Skipped = selector.Skipped
			return result, err
		}
	}

	result.Skipped = selector.Skipped
	log.Infof("Bundled %s onto %s: %d bundles, %d objects skipped", req.Collection, resc.Name, len(result.Bundles), result.Skipped)
	return result, nil
}

// writeBundle stages b's members as <bundlePhyPath>.dir/<dataId>, syncs them
// into the archive and registers the bundle. A failure leaves the catalog
// untouched.
func (s *Scheduler) writeBundle(ctx context.Context, req *api.PhyBundleRequest, resc *mcmodel.Resource, b *Bundle,
	result *api.PhyBundleResult) error {
	objPath, err := s.bundleName(req.Collection)
	if err != nil {
		return err
	}
	b.Name = objPath

	phyPath := mcpath.VaultPath(resc.VaultPath, objPath)
	staging, err := structfile.MakeStagingDir(phyPath + ".dir")
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)

	ids := make([]int, 0, b.Count)
	for _, m := range b.Members {
		if err := archive.LinkOrCopy(m.SrcPhyPath, filepath.Join(staging, strconv.Itoa(m.DataID))); err != nil {
			log.Errorf("Staging %s for bundle %s failed: %s", m.Path, objPath, err)
			return err
		}
		ids = append(ids, m.DataID)
	}

	sc := &structfile.SpecColl{
		Collection: objPath,
		ObjPath:    objPath,
		Type:       structfile.TarType,
		PhyPath:    phyPath,
		CacheDir:   staging,
		CacheDirty: true,
		Resource:   resc.Name,
		DataType:   archive.ParseDataType(req.DataType).DataType(),
	}

	err = s.subfiles.StructFileSync(ctx, &structfile.SyncRequest{
		SpecColl: sc,
		Flags:    structfile.SyncFlags{PurgeCache: true, NoRegCollInfo: true},
	})
	if err != nil {
		log.Errorf("Writing bundle %s failed: %s", objPath, err)
		_ = os.Remove(phyPath)
		return err
	}

	info, err := s.register(req, resc, sc, ids)
	if err != nil {
		_ = os.Remove(phyPath)
		return err
	}

	info.Members = b.Count
	result.Bundles = append(result.Bundles, *info)
	metrics.BundlesWritten.Inc()
	metrics.MembersBundled.Add(float64(b.Count))
	metrics.BundleBytes.Observe(float64(info.Size))
	return nil
}

func (s *Scheduler) register(req *api.PhyBundleRequest, resc *mcmodel.Resource, sc *structfile.SpecColl, ids []int) (*api.BundleInfo, error) {
	fi, err := os.Stat(sc.PhyPath)
	if err != nil {
		return nil, rerr.Unix(rerr.UnixFileStatErr, err)
	}

	info := &api.BundleInfo{ObjPath: sc.ObjPath, Size: fi.Size()}
	if req.VerifyChecksum {
		if info.Checksum, err = archive.FileChecksum(sc.PhyPath); err != nil {
			return nil, err
		}
	}

	_, err = s.stors.DataObjectStor.RegisterBundle(&stor.BundleRegistration{
		Registration: stor.Registration{
			Path:     sc.ObjPath,
			DataType: sc.DataType,
			Size:     info.Size,
			Checksum: info.Checksum,
			Owner:    req.User,
			Resource: resc.Name,
			PhyPath:  sc.PhyPath,
		},
		MemberIDs: ids,
	})
	if err != nil {
		log.Errorf("Registering bundle %s failed: %s", sc.ObjPath, err)
		return nil, err
	}

	return info, nil
}

// bundleName picks an unused /<zone>/bundle/... path for a bundle of coll.
func (s *Scheduler) bundleName(coll string) (string, error) {
	for i := 0; i < maxNameAttempts; i++ {
		name := mcpath.BundlePath(coll, fmt.Sprintf("%d", rand.Uint32()))
		_, err := s.stors.DataObjectStor.GetDataObjectByPath(name)
		switch {
		case rerr.Is(err, rerr.CatNoRowsFound):
			return name, nil
		case err != nil:
			return "", err
		}
	}

	return "", rerr.New(rerr.CatNameExistsAsDataObj, "no free bundle name for %s", coll)
}
