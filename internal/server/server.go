package server

import (
	"bookstore/internal/config"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Start はechoを組み立てて起動する。
func Start(addr string, cfg config.Config, h Handlers, logger *zap.Logger) error {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	RegisterRoutes(e, cfg, h)

	logger.Info("server listening", zap.String("addr", addr))
	return e.Start(addr)
}
