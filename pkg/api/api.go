// Package api holds the request and response bodies exchanged between the CLIs,
// mcbund servers and their peers.
package api

import "github.com/materials-commons/mcbun/pkg/structfile"

// ErrorResponse is the body of every failed call.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// FdResponse answers calls that hand out a descriptor.
type FdResponse struct {
	Fd int `json:"fd"`
}

// StatusResponse answers calls that only report a status.
type StatusResponse struct {
	Status int `json:"status"`
}

type ReadResponse struct {
	Data []byte `json:"data"`
}

type WriteResponse struct {
	Written int `json:"written"`
}

type LseekResponse struct {
	Offset int64 `json:"offset"`
}

// ReaddirResponse carries one entry, nil once the directory is exhausted.
type ReaddirResponse struct {
	Entry *structfile.DirEntry `json:"entry"`
}

// ExtAndRegRequest extracts a struct file and registers its entries (ibun -x).
type ExtAndRegRequest struct {
	ObjPath    string `json:"obj_path" validate:"required,startswith=/"`
	Collection string `json:"collection" validate:"required,startswith=/"`
	Resource   string `json:"resource"`
	Force      bool   `json:"force"`
	Bulk       bool   `json:"bulk"`
	User       string `json:"user"`
}

type ExtAndRegResult struct {
	Registered  int `json:"registered"`
	Overwritten int `json:"overwritten"`
	Skipped     int `json:"skipped"`
	Collections int `json:"collections"`
}

// BundleRequest packs a collection into a struct file (ibun -c).
type BundleRequest struct {
	ObjPath    string `json:"obj_path" validate:"required,startswith=/"`
	Collection string `json:"collection" validate:"required,startswith=/"`
	Resource   string `json:"resource"`
	DataType   string `json:"data_type"`
	Force      bool   `json:"force"`
	User       string `json:"user"`
}

type BundleResult struct {
	ObjPath string `json:"obj_path"`
	Members int    `json:"members"`
	Size    int64  `json:"size"`
}

// PhyBundleRequest bundles the data objects of a collection (iphybun).
type PhyBundleRequest struct {
	Collection     string `json:"collection" validate:"required,startswith=/"`
	Resource       string `json:"resource" validate:"required"`
	SrcResource    string `json:"src_resource"`
	DataType       string `json:"data_type"`
	MaxSubFiles    int    `json:"max_sub_files" validate:"gte=0"`
	VerifyChecksum bool   `json:"verify_checksum"`
	User           string `json:"user"`
}

type BundleInfo struct {
	ObjPath  string `json:"obj_path"`
	Members  int    `json:"members"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum,omitempty"`
}

type PhyBundleResult struct {
	Bundles []BundleInfo `json:"bundles"`
	Skipped int          `json:"skipped"`
}
