// Package webapi exposes the sub-file, struct file and bundling operations of an
// mcbund server over HTTP.
package webapi

import (
	"errors"
	"net/http"

	"github.com/apex/log"
	"github.com/labstack/echo/v4"
	"github.com/materials-commons/mcbun/pkg/api"
	"github.com/materials-commons/mcbun/pkg/rerr"
)

// ErrorHandler writes every failure as an api.ErrorResponse. The status code
// in the body is what peers and the CLIs rebuild the error from, the HTTP code
// only groups it.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	httpCode, body := toErrorResponse(err)
	if httpCode >= http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"path":   c.Request().URL.Path,
			"status": body.Status,
		}).Errorf("Request failed: %s", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(httpCode)
	} else {
		err = c.JSON(httpCode, body)
	}

	if err != nil {
		log.Errorf("Writing error response failed: %s", err)
	}
}

func toErrorResponse(err error) (int, *api.ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status := rerr.SysInvalidInputParam
		if he.Code == http.StatusUnauthorized {
			status = rerr.CatInvalidAuthentication
		}
		return he.Code, &api.ErrorResponse{Status: int(status), Message: httpErrorMessage(he)}
	}

	code := rerr.Code(err)
	return httpStatus(err, code), &api.ErrorResponse{Status: int(code), Message: err.Error()}
}

func httpErrorMessage(he *echo.HTTPError) string {
	if msg, ok := he.Message.(string); ok {
		return msg
	}

	return http.StatusText(he.Code)
}

func httpStatus(err error, code rerr.Status) int {
	switch {
	case rerr.IsNotFound(err):
		return http.StatusNotFound
	case code == rerr.CatInvalidAuthentication:
		return http.StatusUnauthorized
	}

	switch rerr.Base(code) {
	case rerr.CatNameExistsAsDataObj, rerr.SysCopyAlreadyInResc, rerr.SysStructFileBusyErr,
		rerr.SysStructFileInMountedColl, rerr.SysDirInVaultNotEmpty, rerr.CantRmMvBundleType,
		rerr.SysCantMvBundleDataToTrash:
		return http.StatusConflict
	case rerr.SysInvalidInputParam, rerr.SysInternalNullInputErr, rerr.UserNullInputErr,
		rerr.SysInvalidFilePath, rerr.SysStructFilePathErr, rerr.SysInvalidRescType,
		rerr.SysNoCacheRescInGrp, rerr.SysUnmatchedSpecCollType, rerr.SysUnrecognizedRemoteFlag,
		rerr.SysInvalidServerHost, rerr.SymlinkedBunfileNotAllowed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
