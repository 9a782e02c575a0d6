package session

import (
	"google.golang.org/grpc"

	"github.com/oggyb/campus-match/internal/api"
	"github.com/oggyb/campus-match/internal/app"
)

// Registrar ties the Session service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the Session service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the Session service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	api.RegisterSessionServiceServer(s, NewSessionService(r.appCtx))
}
