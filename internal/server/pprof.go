package server

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PprofServer returns the profiling server. Bind it to an internal address
// only; it is never mounted on the public router.
func PprofServer(addr string) *http.Server {
	pprofRouter := gin.New()
	pprof.Register(pprofRouter)
	return &http.Server{Addr: addr, Handler: pprofRouter}
}

// ServePprof runs srv until it is shut down.
func ServePprof(srv *http.Server, logger *zap.Logger) error {
	logger.Info("Starting pprof server", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
