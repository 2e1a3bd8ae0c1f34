// Package extreg registers the contents of struct files in the catalog and
// packs collections into struct files.
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
	"github.com/materials-commons/mcbun/pkg/subfile"
	"github.com/pkg/errors"
)

// BulkBatchSize is the number of registrations sent per catalog round trip in
// bulk mode.
const BulkBatchSize = 50

type Registrar struct {
	stors           *stor.Stors
	subfiles        *subfile.Service
	d               *dispatch.Dispatcher
	defaultResource string
}

// NewRegistrar creates a Registrar. defaultResource receives bundles created
// without an explicit resource.
func NewRegistrar(stors *stor.Stors, subfiles *subfile.Service, d *dispatch.Dispatcher, defaultResource string) *Registrar {
	return &Registrar{
		stors:           stors,
		subfiles:        subfiles,
		d:               d,
		defaultResource: defaultResource,
	}
}

// ExtractAndRegister unpacks the struct file at req.ObjPath and registers
// every entry under req.Collection. The call runs on the server hosting the
// struct file's replica. Entries that already exist are skipped unless
// req.Force is set, in which case their content is replaced.
func (r *Registrar) ExtractAndRegister(ctx context.Context, req *api.ExtAndRegRequest) (*api.ExtAndRegResult, error) {
	if mcpath.Zone(req.ObjPath) != mcpath.Zone(req.Collection) {
		return nil, rerr.New(rerr.SysInvalidFilePath, "%s and %s are in different zones", req.ObjPath, req.Collection)
	}

	obj, err := r.stors.DataObjectStor.GetDataObjectByPath(req.ObjPath)
	if err != nil {
		return nil, err
	}

	replica := obj.GoodReplica(req.Resource)
	if replica == nil {
		return nil, rerr.New(rerr.CatNoRowsFound, "%s does not exist or has no good replica on resource '%s'", req.ObjPath, req.Resource)
	}

	resc, err := r.stors.ResourceStor.GetResourceByName(replica.ResourceName)
	if err != nil {
		return nil, err
	}

	fwd := *req
	fwd.Resource = resc.Name
	addr := structfile.HostAddr{HostName: resc.Host, ZoneName: mcpath.Zone(req.ObjPath)}
	local := func(ctx context.Context, req *api.ExtAndRegRequest) (*api.ExtAndRegResult, error) {
		return r.extractLocal(ctx, req, obj, replica, resc)
	}

	return dispatch.Call(ctx, r.d, "ext-and-reg", addr, &fwd, local, (*rpc.Client).ExtractAndRegister)
}

func (r *Registrar) extractLocal(ctx context.Context, req *api.ExtAndRegRequest, obj *mcmodel.DataObject,
	replica *mcmodel.Replica, resc *mcmodel.Resource) (*api.ExtAndRegResult, error) {
	coll, err := r.stors.CollectionStor.GetOrCreateCollectionPath(req.Collection, req.User)
	if err != nil {
		log.Errorf("Preparing collection %s for extraction failed: %s", req.Collection, err)
		return nil, err
	}

	if coll.IsMounted() {
		return nil, rerr.New(rerr.SysStructFileInMountedColl, "%s is a struct file collection", req.Collection)
	}

	staging, err := r.extractToStaging(ctx, req, obj, replica)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(staging)

	entries, err := archive.List(ctx, staging)
	if err != nil {
		return nil, err
	}

	reg := &registration{
		r:       r,
		req:     req,
		resc:    resc,
		staging: staging,
		result:  &api.ExtAndRegResult{},
	}

	if err := reg.registerAll(entries); err != nil && !rerr.Is(err, rerr.CatNoRowsFound) {
		log.Errorf("Registering entries of %s under %s failed: %s", req.ObjPath, req.Collection, err)
		return reg.result, err
	}

	log.Infof("Extracted %s into %s: %d registered, %d overwritten, %d skipped",
		req.ObjPath, req.Collection, reg.result.Registered, reg.result.Overwritten, reg.result.Skipped)
	return reg.result, nil
}

// extractToStaging unpacks the replica into <phyPath>.dir. When that directory
// is already in use a random suffix is added and the extraction retried once.
func (r *Registrar) extractToStaging(ctx context.Context, req *api.ExtAndRegRequest, obj *mcmodel.DataObject,
	replica *mcmodel.Replica) (string, error) {
	sc := &structfile.SpecColl{
		Collection: req.Collection,
		ObjPath:    obj.Path,
		Type:       structfile.TarType,
		PhyPath:    replica.PhyPath,
		CacheDir:   replica.PhyPath + ".dir",
		Resource:   replica.ResourceName,
		DataType:   obj.DataType,
	}

	err := r.subfiles.StructFileExtract(ctx, &structfile.ExtractRequest{SpecColl: sc})
	if rerr.Is(err, rerr.SysDirInVaultNotEmpty) {
		sc.CacheDir = fmt.Sprintf("%s.%d", sc.CacheDir, rand.Uint32())
		err = r.subfiles.StructFileExtract(ctx, &structfile.ExtractRequest{SpecColl: sc})
	}

	if err != nil {
		log.Errorf("Extracting %s into %s failed: %s", replica.PhyPath, sc.CacheDir, err)
		return "", err
	}

	return sc.CacheDir, nil
}

// registration carries the state of one extract and register run.
type registration struct {
	r       *Registrar
	req     *api.ExtAndRegRequest
	resc    *mcmodel.Resource
	staging string
	result  *api.ExtAndRegResult
	// batch holds files already linked into the vault and waiting for a bulk
	// registration.
	batch []*stor.Registration
}

func (g *registration) registerAll(entries []archive.Entry) error {
	for _, entry := range entries {
		logical := mcpath.Join(g.req.Collection, entry.Rel)
		if entry.Info.IsDir() {
			if _, err := g.r.stors.CollectionStor.GetOrCreateCollectionPath(logical, g.req.User); err != nil {
				return err
			}
			g.result.Collections++
			continue
		}

		src := filepath.Join(g.staging, filepath.FromSlash(entry.Rel))
		if err := g.registerFile(logical, src, entry.Info.Size()); err != nil {
			g.skip(logical, err)
		}
	}

	return g.flush()
}

func (g *registration) registerFile(logical, src string, size int64) error {
	existing, err := g.r.stors.DataObjectStor.GetDataObjectByPath(logical)
	switch {
	case err == nil:
		return g.overwrite(existing, src, size)
	case !rerr.Is(err, rerr.CatNoRowsFound):
		return err
	}

	checksum, err := archive.FileChecksum(src)
	if err != nil {
		return err
	}

	vaultPath := mcpath.VaultPath(g.resc.VaultPath, logical)
	if err := placeInVault(src, vaultPath); err != nil {
		return err
	}

	reg := &stor.Registration{
		Path:     logical,
		DataType: "generic",
		Size:     size,
		Checksum: checksum,
		Owner:    g.req.User,
		Resource: g.resc.Name,
		PhyPath:  vaultPath,
	}

	if g.req.Bulk {
		g.batch = append(g.batch, reg)
		if len(g.batch) >= BulkBatchSize {
			return g.flush()
		}
		return nil
	}

	if _, err := g.r.stors.DataObjectStor.RegisterDataObject(reg); err != nil {
		_ = os.Remove(vaultPath)
		return err
	}

	g.registered()
	return nil
}

// overwrite replaces the bytes of an existing object's replica on the target
// resource and records the new size and checksum.
func (g *registration) overwrite(obj *mcmodel.DataObject, src string, size int64) error {
	if !g.req.Force {
		return rerr.New(rerr.SysCopyAlreadyInResc, "%s already exists", obj.Path)
	}

	replica := obj.GoodReplica(g.resc.Name)
	if replica == nil {
		return rerr.New(rerr.SysCopyAlreadyInResc, "%s has no replica on %s to overwrite", obj.Path, g.resc.Name)
	}

	if err := os.Remove(replica.PhyPath); err != nil && !os.IsNotExist(err) {
		return rerr.Unix(rerr.UnixFileUnlinkErr, err)
	}

	if err := placeInVault(src, replica.PhyPath); err != nil {
		return err
	}

	checksum, err := archive.FileChecksum(replica.PhyPath)
	if err != nil {
		return err
	}

	if err := g.r.stors.DataObjectStor.UpdateReplicaContent(replica, size, checksum); err != nil {
		return err
	}

	g.result.Overwritten++
	metrics.Registrations.WithLabelValues("overwritten").Inc()
	return nil
}

// flush registers the pending batch in one transaction, falling back to one
// registration at a time when the batch fails.
func (g *registration) flush() error {
	if len(g.batch) == 0 {
		return nil
	}

	batch := g.batch
	g.batch = nil

	_, err := g.r.stors.DataObjectStor.BulkRegister(batch)
	if err == nil {
		for range batch {
			g.registered()
		}
		return nil
	}

	log.Warnf("Bulk registration of %d entries failed, registering one at a time: %s", len(batch), err)
	for _, reg := range batch {
		if _, err := g.r.stors.DataObjectStor.RegisterDataObject(reg); err != nil {
			_ = os.Remove(reg.PhyPath)
			g.skip(reg.Path, err)
			continue
		}
		g.registered()
	}

	return nil
}

func (g *registration) registered() {
	g.result.Registered++
	metrics.Registrations.WithLabelValues("registered").Inc()
}

func (g *registration) skip(logical string, err error) {
	g.result.Skipped++
	metrics.Registrations.WithLabelValues("skipped").Inc()
	log.WithFields(log.Fields{
		"path":   logical,
		"status": int(rerr.Code(err)),
	}).Warnf("Skipping %s: %s", logical, err)
}

// placeInVault links src to vaultPath, creating parent directories. An
// existing file at vaultPath belongs to another object.
func placeInVault(src, vaultPath string) error {
	if _, err := os.Lstat(vaultPath); err == nil {
		return rerr.New(rerr.SysCopyAlreadyInResc, "physical path %s is already in use", vaultPath)
	}

	if err := os.MkdirAll(filepath.Dir(vaultPath), 0750); err != nil {
		return rerr.Unix(rerr.UnixFileMkdirErr, err)
	}

	if err := archive.LinkOrCopy(src, vaultPath); err != nil {
		return errors.Wrapf(err, "placing %s", vaultPath)
	}

	return nil
}
