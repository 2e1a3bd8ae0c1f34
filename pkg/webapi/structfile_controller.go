package webapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/materials-commons/mcbun/pkg/api"
	"github.com/materials-commons/mcbun/pkg/extreg"
	"github.com/materials-commons/mcbun/pkg/structfile"
	"github.com/materials-commons/mcbun/pkg/subfile"
)

type StructFileController struct {
	subfiles  *subfile.Service
	registrar *extreg.Registrar
	vaults    structfile.VaultResolver
}

func NewStructFileController(subfiles *subfile.Service, registrar *extreg.Registrar, vaults structfile.VaultResolver) *StructFileController {
	return &StructFileController{subfiles: subfiles, registrar: registrar, vaults: vaults}
}

func (sc *StructFileController) Sync(c echo.Context) error {
	var req structfile.SyncRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := structfile.Confine(req.SpecColl, sc.vaults); err != nil {
		return err
	}

	return statusResponse(c, sc.subfiles.StructFileSync(c.Request().Context(), &req))
}

func (sc *StructFileController) Extract(c echo.Context) error {
	var req structfile.ExtractRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := structfile.ConfineExtract(req.SpecColl, sc.vaults); err != nil {
		return err
	}

	return statusResponse(c, sc.subfiles.StructFileExtract(c.Request().Context(), &req))
}

func (sc *StructFileController) ExtractAndRegister(c echo.Context) error {
	var req api.ExtAndRegRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := sc.registrar.ExtractAndRegister(c.Request().Context(), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (sc *StructFileController) Bundle(c echo.Context) error {
	var req api.BundleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := sc.registrar.BundleCollection(c.Request().Context(), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
