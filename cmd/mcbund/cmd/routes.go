package cmd

import (
	"github.com/labstack/echo/v4"
	"github.com/materials-commons/mcbun/pkg/config"
	"github.com/materials-commons/mcbun/pkg/dispatch"
	"github.com/materials-commons/mcbun/pkg/extreg"
	"github.com/materials-commons/mcbun/pkg/mcdb/stor"
	"github.com/materials-commons/mcbun/pkg/phybun"
	"github.com/materials-commons/mcbun/pkg/structfile"
	"github.com/materials-commons/mcbun/pkg/subfile"
	"github.com/materials-commons/mcbun/pkg/webapi"
)

type RouteDependencies struct {
	cfg   *config.ServerConfig
	stors *stor.Stors
	d     *dispatch.Dispatcher
}

func setupRoutes(deps RouteDependencies) *echo.Echo {
	drivers := structfile.NewRegistry(structfile.NewTarDriver(deps.stors.CollectionStor))
	subfiles := subfile.NewService(deps.d, drivers)
	registrar := extreg.NewRegistrar(deps.stors, subfiles, deps.d, deps.cfg.DefaultResource)
	scheduler := phybun.NewScheduler(deps.stors, subfiles, deps.d, phybun.Limits{
		MaxSubFiles: deps.cfg.MaxSubFiles,
		MaxBytes:    int64(deps.cfg.MaxBundleGB) << 30,
	})

	return webapi.NewServer(webapi.Controllers{
		SubFile:    webapi.NewSubFileController(subfiles, deps.stors.ResourceStor),
		StructFile: webapi.NewStructFileController(subfiles, registrar, deps.stors.ResourceStor),
		PhyBundle:  webapi.NewPhyBundleController(scheduler),
		Log:        webapi.NewLogController(deps.cfg.LogLevel),
	}, deps.cfg.AuthToken)
}
