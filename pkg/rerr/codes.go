package rerr

// Status is a negative iRODS-style status code. Zero means success.
type Status int

const (
	SysOutOfFileDesc           Status = -18000
	SysUnrecognizedRemoteFlag  Status = -20000
	SysInvalidServerHost       Status = -21000
	SysSvrToSvrConnectFailed   Status = -22000
	SysInternalNullInputErr    Status = -24000
	SysCopyLenErr              Status = -27000
	SysInvalidRescType         Status = -30000
	SysInvalidFilePath         Status = -31000
	SysCopyAlreadyInResc       Status = -46000
	SysUnmatchedSpecCollType   Status = -53000
	SysCacheStructFileRescErr  Status = -65000
	SysTarStructFileExtractErr Status = -67000
	SysStructFileDescErr       Status = -68000
	SysStructFilePathErr       Status = -72000
	SysStructFileBusyErr       Status = -75000
	SysStructFileInMountedColl Status = -76000
	SysObjTypeNotStructFile    Status = -80000
	SysDirInVaultNotEmpty      Status = -82000
	SysNoCacheRescInGrp        Status = -98000
	SysCantMvBundleDataToTrash Status = -100000
	SysCantMvBundleDataByCopy  Status = -101000
	SysInvalidInputParam       Status = -130000
	UserSockConnectErr         Status = -305000
	UserFileDoesNotExist       Status = -310000
	UserNullInputErr           Status = -316000
	CantRmMvBundleType         Status = -351000
	SymlinkedBunfileNotAllowed Status = -359000
	UnixFileOpenErr            Status = -510000
	UnixFileCreateErr          Status = -511000
	UnixFileReadErr            Status = -512000
	UnixFileWriteErr           Status = -513000
	UnixFileCloseErr           Status = -514000
	UnixFileUnlinkErr          Status = -515000
	UnixFileStatErr            Status = -516000
	UnixFileFstatErr           Status = -517000
	UnixFileLseekErr           Status = -518000
	UnixFileMkdirErr           Status = -520000
	UnixFileRmdirErr           Status = -521000
	UnixFileOpendirErr         Status = -522000
	UnixFileClosedirErr        Status = -523000
	UnixFileReaddirErr         Status = -524000
	UnixFileRenameErr          Status = -528000
	UnixFileTruncateErr        Status = -529000
	UnixFileLinkErr            Status = -530000
	CatNoRowsFound             Status = -808000
	CatUnknownCollection       Status = -814000
	CatInvalidAuthentication   Status = -826000
	CatNameExistsAsDataObj     Status = -834000
)

var names = map[Status]string{
	SysOutOfFileDesc:           "SYS_OUT_OF_FILE_DESC",
	SysUnrecognizedRemoteFlag:  "SYS_UNRECOGNIZED_REMOTE_FLAG",
	SysInvalidServerHost:       "SYS_INVALID_SERVER_HOST",
	SysSvrToSvrConnectFailed:   "SYS_SVR_TO_SVR_CONNECT_FAILED",
	SysInternalNullInputErr:    "SYS_INTERNAL_NULL_INPUT_ERR",
	SysCopyLenErr:              "SYS_COPY_LEN_ERR",
	SysInvalidRescType:         "SYS_INVALID_RESC_TYPE",
	SysInvalidFilePath:         "SYS_INVALID_FILE_PATH",
	SysCopyAlreadyInResc:       "SYS_COPY_ALREADY_IN_RESC",
	SysUnmatchedSpecCollType:   "SYS_UNMATCHED_SPEC_COLL_TYPE",
	SysCacheStructFileRescErr:  "SYS_CACHE_STRUCT_FILE_RESC_ERR",
	SysTarStructFileExtractErr: "SYS_TAR_STRUCT_FILE_EXTRACT_ERR",
	SysStructFileDescErr:       "SYS_STRUCT_FILE_DESC_ERR",
	SysStructFilePathErr:       "SYS_STRUCT_FILE_PATH_ERR",
	SysStructFileBusyErr:       "SYS_STRUCT_FILE_BUSY_ERR",
	SysStructFileInMountedColl: "SYS_STRUCT_FILE_INMOUNTED_COLL",
	SysObjTypeNotStructFile:    "SYS_OBJ_TYPE_NOT_STRUCT_FILE",
	SysDirInVaultNotEmpty:      "SYS_DIR_IN_VAULT_NOT_EMPTY",
	SysNoCacheRescInGrp:        "SYS_NO_CACHE_RESC_IN_GRP",
	SysCantMvBundleDataToTrash: "SYS_CANT_MV_BUNDLE_DATA_TO_TRASH",
	SysCantMvBundleDataByCopy:  "SYS_CANT_MV_BUNDLE_DATA_BY_COPY",
	SysInvalidInputParam:       "SYS_INVALID_INPUT_PARAM",
	UserSockConnectErr:         "USER_SOCK_CONNECT_ERR",
	UserFileDoesNotExist:       "USER_FILE_DOES_NOT_EXIST",
	UserNullInputErr:           "USER__NULL_INPUT_ERR",
	CantRmMvBundleType:         "CANT_RM_MV_BUNDLE_TYPE",
	SymlinkedBunfileNotAllowed: "SYMLINKED_BUNFILE_NOT_ALLOWED",
	UnixFileOpenErr:            "UNIX_FILE_OPEN_ERR",
	UnixFileCreateErr:          "UNIX_FILE_CREATE_ERR",
	UnixFileReadErr:            "UNIX_FILE_READ_ERR",
	UnixFileWriteErr:           "UNIX_FILE_WRITE_ERR",
	UnixFileCloseErr:           "UNIX_FILE_CLOSE_ERR",
	UnixFileUnlinkErr:          "UNIX_FILE_UNLINK_ERR",
	UnixFileStatErr:            "UNIX_FILE_STAT_ERR",
	UnixFileFstatErr:           "UNIX_FILE_FSTAT_ERR",
	UnixFileLseekErr:           "UNIX_FILE_LSEEK_ERR",
	UnixFileMkdirErr:           "UNIX_FILE_MKDIR_ERR",
	UnixFileRmdirErr:           "UNIX_FILE_RMDIR_ERR",
	UnixFileOpendirErr:         "UNIX_FILE_OPENDIR_ERR",
	UnixFileClosedirErr:        "UNIX_FILE_CLOSEDIR_ERR",
	UnixFileReaddirErr:         "UNIX_FILE_READDIR_ERR",
	UnixFileRenameErr:          "UNIX_FILE_RENAME_ERR",
	UnixFileTruncateErr:        "UNIX_FILE_TRUNCATE_ERR",
	UnixFileLinkErr:            "UNIX_FILE_LINK_ERR",
	CatNoRowsFound:             "CAT_NO_ROWS_FOUND",
	CatUnknownCollection:       "CAT_UNKNOWN_COLLECTION",
	CatInvalidAuthentication:   "CAT_INVALID_AUTHENTICATION",
	CatNameExistsAsDataObj:     "CAT_NAME_EXISTS_AS_DATAOBJ",
}

// Name returns the symbolic name of a status. Statuses with an errno folded
// into them are reported by their base code name.
func Name(code Status) string {
	if n, ok := names[code]; ok {
		return n
	}

	if n, ok := names[Base(code)]; ok {
		return n
	}

	return "UNKNOWN_ERROR"
}

// Base strips a folded errno from a status, -513002 becomes -513000.
func Base(code Status) Status {
	return code / 1000 * 1000
}

// Errno returns the errno folded into a status, or 0.
func Errno(code Status) int {
	return -int(code % 1000)
}
