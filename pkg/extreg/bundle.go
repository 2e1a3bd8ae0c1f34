package extreg

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

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
)

// BundleCollection packs the good replicas of every data object under
// req.Collection into a struct file registered at req.ObjPath. An existing
// object at req.ObjPath is only replaced when req.Force is set.
func (r *Registrar) BundleCollection(ctx context.Context, req *api.BundleRequest) (*api.BundleResult, error) {
	if mcpath.Zone(req.ObjPath) != mcpath.Zone(req.Collection) {
		return nil, rerr.New(rerr.SysInvalidFilePath, "%s and %s are in different zones", req.ObjPath, req.Collection)
	}

	if mcpath.IsUnder(req.Collection, req.ObjPath) {
		return nil, rerr.New(rerr.SysInvalidFilePath, "%s cannot be bundled into itself", req.Collection)
	}

	rescName := req.Resource
	if rescName == "" {
		rescName = r.defaultResource
	}

	resc, err := r.stors.ResourceStor.GetResourceByName(rescName)
	if err != nil {
		return nil, err
	}

	fwd := *req
	fwd.Resource = resc.Name
	addr := structfile.HostAddr{HostName: resc.Host, ZoneName: mcpath.Zone(req.ObjPath)}
	local := func(ctx context.Context, req *api.BundleRequest) (*api.BundleResult, error) {
		return r.bundleLocal(ctx, req, resc)
	}

	return dispatch.Call(ctx, r.d, "bundle", addr, &fwd, local, (*rpc.Client).BundleCollection)
}

func (r *Registrar) bundleLocal(ctx context.Context, req *api.BundleRequest, resc *mcmodel.Resource) (*api.BundleResult, error) {
	existing, err := r.stors.DataObjectStor.GetDataObjectByPath(req.ObjPath)
	switch {
	case err == nil && !req.Force:
		return nil, rerr.New(rerr.CatNameExistsAsDataObj, "%s already exists, use force to overwrite it", req.ObjPath)
	case err == nil && existing.IsBundled():
		return nil, rerr.New(rerr.CantRmMvBundleType, "%s has a bundled replica and cannot be replaced", req.ObjPath)
	case err != nil && !rerr.Is(err, rerr.CatNoRowsFound):
		return nil, err
	case err != nil:
		existing = nil
	}

	if _, err := r.stors.CollectionStor.GetCollectionByPath(req.Collection); err != nil {
		return nil, err
	}

	objs, err := r.stors.CollectionStor.ListDataObjectsUnder(req.Collection)
	if err != nil {
		return nil, err
	}

	// A replaced struct file stays in place until the new one is cataloged.
	phyPath := mcpath.VaultPath(resc.VaultPath, req.ObjPath)
	writePath := phyPath
	if existing != nil {
		writePath = fmt.Sprintf("%s.%d", phyPath, rand.Uint32())
	}

	staging, err := structfile.MakeStagingDir(phyPath + ".dir")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(staging)

	members := 0
	for _, obj := range objs {
		replica := obj.GoodReplica("")
		if replica == nil {
			log.Warnf("Skipping %s: no good replica to bundle", obj.Path)
			continue
		}

		rel, err := mcpath.RelPath(req.Collection, obj.Path)
		if err != nil {
			return nil, err
		}

		dst := filepath.Join(staging, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0750); err != nil {
			return nil, rerr.Unix(rerr.UnixFileMkdirErr, err)
		}

		if err := archive.LinkOrCopy(replica.PhyPath, dst); err != nil {
			log.Errorf("Staging %s for bundle %s failed: %s", replica.PhyPath, req.ObjPath, err)
			return nil, err
		}
		members++
	}

	sc := &structfile.SpecColl{
		Collection: req.Collection,
		ObjPath:    req.ObjPath,
		Type:       structfile.TarType,
		PhyPath:    writePath,
		CacheDir:   staging,
		CacheDirty: true,
		Resource:   resc.Name,
		DataType:   dataTypeOrDefault(req.DataType),
	}

	err = r.subfiles.StructFileSync(ctx, &structfile.SyncRequest{
		SpecColl: sc,
		Flags:    structfile.SyncFlags{PurgeCache: true, NoRegCollInfo: true},
	})
	if err != nil {
		_ = os.Remove(writePath)
		return nil, err
	}

	fi, err := os.Stat(writePath)
	if err != nil {
		return nil, rerr.Unix(rerr.UnixFileStatErr, err)
	}

	checksum, err := archive.FileChecksum(writePath)
	if err != nil {
		_ = os.Remove(writePath)
		return nil, err
	}

	reg := &stor.Registration{
		Path:     req.ObjPath,
		DataType: sc.DataType,
		Size:     fi.Size(),
		Checksum: checksum,
		Owner:    req.User,
		Resource: resc.Name,
		PhyPath:  phyPath,
	}

	if existing == nil {
		_, err = r.stors.DataObjectStor.RegisterDataObject(reg)
	} else {
		_, err = r.stors.DataObjectStor.ReplaceDataObject(existing, reg)
	}
	if err != nil {
		_ = os.Remove(writePath)
		return nil, err
	}

	if writePath != phyPath {
		if err := os.Rename(writePath, phyPath); err != nil {
			log.Errorf("Moving %s into place at %s failed: %s", writePath, phyPath, err)
			return nil, rerr.Unix(rerr.UnixFileRenameErr, err)
		}
		removeReplaced(existing, phyPath)
	}

	metrics.BundlesWritten.Inc()
	metrics.MembersBundled.Add(float64(members))
	metrics.BundleBytes.Observe(float64(fi.Size()))
	log.Infof("Bundled %d data objects of %s into %s", members, req.Collection, req.ObjPath)
	return &api.BundleResult{ObjPath: req.ObjPath, Members: members, Size: fi.Size()}, nil
}

// removeReplaced deletes the physical files of a replaced object's replicas,
// except the one now holding its successor.
func removeReplaced(obj *mcmodel.DataObject, keep string) {
	for _, replica := range obj.Replicas {
		if replica.IsBundled() || replica.PhyPath == keep {
			continue
		}

		if err := os.Remove(replica.PhyPath); err != nil && !os.IsNotExist(err) {
			log.Warnf("Removing replaced struct file %s failed: %s", replica.PhyPath, err)
		}
	}
}

// dataTypeOrDefault canonicalizes a requested data type. Unknown names are plain tar.
func dataTypeOrDefault(dataType string) string {
	return archive.ParseDataType(dataType).DataType()
}
