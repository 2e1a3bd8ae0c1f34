package webapi

import (
	"net/http"
	"sync"

	"github.com/apex/log"
	"github.com/labstack/echo/v4"
	"github.com/materials-commons/mcbun/pkg/rerr"
)

// LogController lets an operator change the daemon's log level at runtime.
type LogController struct {
	mu              sync.Mutex
	CurrentLogLevel string `json:"current_log_level"`
}

func NewLogController(level string) *LogController {
	if level == "" {
		level = log.InfoLevel.String()
	}

	return &LogController{CurrentLogLevel: level}
}

func (c *LogController) GetLogLevel(ctx echo.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ctx.JSON(http.StatusOK, c)
}

func (c *LogController) SetLogLevel(ctx echo.Context) error {
	var req struct {
		LogLevel string `json:"log_level" validate:"required"`
	}

	if err := bind(ctx, &req); err != nil {
		return err
	}

	level, err := log.ParseLevel(req.LogLevel)
	if err != nil {
		return rerr.New(rerr.SysInvalidInputParam, "invalid log level %s", req.LogLevel)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	log.SetLevel(level)
	c.CurrentLogLevel = level.String()
	log.Infof("Log level set to %s", c.CurrentLogLevel)
	return ctx.JSON(http.StatusOK, c)
}
