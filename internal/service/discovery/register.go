package discovery

import (
	"google.golang.org/grpc"

	"github.com/oggyb/campus-match/internal/api"
	"github.com/oggyb/campus-match/internal/app"
)

// Registrar ties the Discovery service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the Discovery service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the Discovery service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	api.RegisterDiscoveryServiceServer(s, NewDiscoveryService(r.appCtx))
}
