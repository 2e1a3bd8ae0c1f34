package webapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/materials-commons/mcbun/pkg/api"
	"github.com/materials-commons/mcbun/pkg/structfile"
	"github.com/materials-commons/mcbun/pkg/subfile"
)

// SubFileController serves the sub-file operations. A request addressed to
// another server is forwarded by the service, so callers may be CLIs or peers.
// Every mount a request carries is confined to its resource's vault.
type SubFileController struct {
	subfiles *subfile.Service
	vaults   structfile.VaultResolver
}

func NewSubFileController(subfiles *subfile.Service, vaults structfile.VaultResolver) *SubFileController {
	return &SubFileController{subfiles: subfiles, vaults: vaults}
}

// bindSubFile binds a path addressed request and confines its mount.
func (sc *SubFileController) bindSubFile(c echo.Context, sf *structfile.SubFile) error {
	if err := bind(c, sf); err != nil {
		return err
	}

	return structfile.Confine(sf.SpecColl, sc.vaults)
}

func (sc *SubFileController) Create(c echo.Context) error {
	var sf structfile.SubFile
	if err := sc.bindSubFile(c, &sf); err != nil {
		return err
	}

	return fdResponse(c)(sc.subfiles.Create(c.Request().Context(), &sf))
}

func (sc *SubFileController) Open(c echo.Context) error {
	var sf structfile.SubFile
	if err := sc.bindSubFile(c, &sf); err != nil {
		return err
	}

	return fdResponse(c)(sc.subfiles.Open(c.Request().Context(), &sf))
}

func (sc *SubFileController) Opendir(c echo.Context) error {
	var sf structfile.SubFile
	if err := sc.bindSubFile(c, &sf); err != nil {
		return err
	}

	return fdResponse(c)(sc.subfiles.Opendir(c.Request().Context(), &sf))
}

func (sc *SubFileController) Unlink(c echo.Context) error {
	var sf structfile.SubFile
	if err := sc.bindSubFile(c, &sf); err != nil {
		return err
	}

	return statusResponse(c, sc.subfiles.Unlink(c.Request().Context(), &sf))
}

func (sc *SubFileController) Mkdir(c echo.Context) error {
	var sf structfile.SubFile
	if err := sc.bindSubFile(c, &sf); err != nil {
		return err
	}

	return statusResponse(c, sc.subfiles.Mkdir(c.Request().Context(), &sf))
}

func (sc *SubFileController) Rmdir(c echo.Context) error {
	var sf structfile.SubFile
	if err := sc.bindSubFile(c, &sf); err != nil {
		return err
	}

	return statusResponse(c, sc.subfiles.Rmdir(c.Request().Context(), &sf))
}

func (sc *SubFileController) Truncate(c echo.Context) error {
	var sf structfile.SubFile
	if err := sc.bindSubFile(c, &sf); err != nil {
		return err
	}

	return statusResponse(c, sc.subfiles.Truncate(c.Request().Context(), &sf))
}

func (sc *SubFileController) Stat(c echo.Context) error {
	var sf structfile.SubFile
	if err := sc.bindSubFile(c, &sf); err != nil {
		return err
	}

	st, err := sc.subfiles.Stat(c.Request().Context(), &sf)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, st)
}

func (sc *SubFileController) Rename(c echo.Context) error {
	var req structfile.RenameRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := structfile.Confine(req.SubFile.SpecColl, sc.vaults); err != nil {
		return err
	}

	return statusResponse(c, sc.subfiles.Rename(c.Request().Context(), &req))
}

func (sc *SubFileController) Read(c echo.Context) error {
	var req structfile.FdRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	data, err := sc.subfiles.Read(c.Request().Context(), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, api.ReadResponse{Data: data})
}

func (sc *SubFileController) Write(c echo.Context) error {
	var req structfile.FdRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	n, err := sc.subfiles.Write(c.Request().Context(), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, api.WriteResponse{Written: n})
}

func (sc *SubFileController) Close(c echo.Context) error {
	var req structfile.FdRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	return statusResponse(c, sc.subfiles.Close(c.Request().Context(), &req))
}

func (sc *SubFileController) Closedir(c echo.Context) error {
	var req structfile.FdRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	return statusResponse(c, sc.subfiles.Closedir(c.Request().Context(), &req))
}

func (sc *SubFileController) Fstat(c echo.Context) error {
	var req structfile.FdRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	st, err := sc.subfiles.Fstat(c.Request().Context(), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, st)
}

func (sc *SubFileController) Lseek(c echo.Context) error {
	var req structfile.FdRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	offset, err := sc.subfiles.Lseek(c.Request().Context(), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, api.LseekResponse{Offset: offset})
}

// Readdir answers with a nil entry once the directory is exhausted.
func (sc *SubFileController) Readdir(c echo.Context) error {
	var req structfile.FdRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	entry, err := sc.subfiles.Readdir(c.Request().Context(), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, api.ReaddirResponse{Entry: entry})
}

func fdResponse(c echo.Context) func(int, error) error {
	return func(fd int, err error) error {
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, api.FdResponse{Fd: fd})
	}
}

func statusResponse(c echo.Context, err error) error {
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, api.StatusResponse{Status: 0})
}
