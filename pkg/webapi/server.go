package webapi

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/materials-commons/mcbun/pkg/api"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Controllers struct {
	SubFile    *SubFileController
	StructFile *StructFileController
	PhyBundle  *PhyBundleController
	Log        *LogController
}

// NewServer builds the echo app with every route mounted. authToken may be
// empty to accept unauthenticated requests.
func NewServer(ctrls Controllers, authToken string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler
	e.Use(middleware.Recover())
	e.Use(TokenAuth(TokenAuthConfig{Skipper: SkipMetrics, Token: authToken}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	RegisterRoutes(e, ctrls)
	return e
}

func RegisterRoutes(e *echo.Echo, ctrls Controllers) {
	if sf := ctrls.SubFile; sf != nil {
		e.POST(api.RouteSubFileCreate, sf.Create)
		e.POST(api.RouteSubFileOpen, sf.Open)
		e.POST(api.RouteSubFileRead, sf.Read)
		e.POST(api.RouteSubFileWrite, sf.Write)
		e.POST(api.RouteSubFileClose, sf.Close)
		e.POST(api.RouteSubFileUnlink, sf.Unlink)
		e.POST(api.RouteSubFileStat, sf.Stat)
		e.POST(api.RouteSubFileFstat, sf.Fstat)
		e.POST(api.RouteSubFileLseek, sf.Lseek)
		e.POST(api.RouteSubFileRename, sf.Rename)
		e.POST(api.RouteSubFileMkdir, sf.Mkdir)
		e.POST(api.RouteSubFileRmdir, sf.Rmdir)
		e.POST(api.RouteSubFileOpendir, sf.Opendir)
		e.POST(api.RouteSubFileReaddir, sf.Readdir)
		e.POST(api.RouteSubFileClosedir, sf.Closedir)
		e.POST(api.RouteSubFileTruncate, sf.Truncate)
	}

	if st := ctrls.StructFile; st != nil {
		e.POST(api.RouteStructFileSync, st.Sync)
		e.POST(api.RouteStructFileExtract, st.Extract)
		e.POST(api.RouteStructFileExtAndReg, st.ExtractAndRegister)
		e.POST(api.RouteStructFileBundle, st.Bundle)
	}

	if pb := ctrls.PhyBundle; pb != nil {
		e.POST(api.RoutePhyBundle, pb.BundleCollection)
	}

	if lc := ctrls.Log; lc != nil {
		e.GET(api.RouteAdminLogLevel, lc.GetLogLevel)
		e.POST(api.RouteAdminLogLevel, lc.SetLogLevel)
	}
}
