package webapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/materials-commons/mcbun/pkg/api"
	"github.com/materials-commons/mcbun/pkg/phybun"
)

type PhyBundleController struct {
	scheduler *phybun.Scheduler
}

func NewPhyBundleController(scheduler *phybun.Scheduler) *PhyBundleController {
	return &PhyBundleController{scheduler: scheduler}
}

func (pc *PhyBundleController) BundleCollection(c echo.Context) error {
	var req api.PhyBundleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := pc.scheduler.BundleCollection(c.Request().Context(), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
