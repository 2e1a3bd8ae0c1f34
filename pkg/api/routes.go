package api

const (
	RouteSubFileCreate   = "/api/v1/subfile/create"
	RouteSubFileOpen     = "/api/v1/subfile/open"
	RouteSubFileRead     = "/api/v1/subfile/read"
	RouteSubFileWrite    = "/api/v1/subfile/write"
	RouteSubFileClose    = "/api/v1/subfile/close"
	RouteSubFileUnlink   = "/api/v1/subfile/unlink"
	RouteSubFileStat     = "/api/v1/subfile/stat"
	RouteSubFileFstat    = "/api/v1/subfile/fstat"
	RouteSubFileLseek    = "/api/v1/subfile/lseek"
	RouteSubFileRename   = "/api/v1/subfile/rename"
	RouteSubFileMkdir    = "/api/v1/subfile/mkdir"
	RouteSubFileRmdir    = "/api/v1/subfile/rmdir"
	RouteSubFileOpendir  = "/api/v1/subfile/opendir"
	RouteSubFileReaddir  = "/api/v1/subfile/readdir"
	RouteSubFileClosedir = "/api/v1/subfile/closedir"
	RouteSubFileTruncate = "/api/v1/subfile/truncate"

	RouteStructFileSync      = "/api/v1/structfile/sync"
	RouteStructFileExtract   = "/api/v1/structfile/extract"
	RouteStructFileExtAndReg = "/api/v1/structfile/ext-and-reg"
	RouteStructFileBundle    = "/api/v1/structfile/bundle"

	RoutePhyBundle = "/api/v1/phybundle"

	RouteAdminLogLevel = "/api/v1/admin/log-level"
)
