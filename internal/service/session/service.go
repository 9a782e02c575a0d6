package session

import (
	"context"

	"github.com/oggyb/campus-match/internal/api"
	"github.com/oggyb/campus-match/internal/app"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/session"
)

// Service exposes the per-user conversational state machine to the chat front-end.
type Service struct {
	appCtx *app.AppContext
	store  *session.Store

	api.UnimplementedSessionServiceServer
}

func NewSessionService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx, store: appCtx.Sessions}
}

func (s *Service) GetSession(ctx context.Context, req *api.UserRequest) (*api.Session, error) {
	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	sess, err := s.store.Get(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return api.FromSession(sess), nil
}

// Transition moves the session along the transition table. Unknown states
// are InvalidArgument; disallowed moves are FailedPrecondition.
func (s *Service) Transition(ctx context.Context, req *api.TransitionRequest) (*api.Session, error) {
	s.appCtx.Logger.Debug("Transition called", "profile", req.UserID, "state", req.State)

	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	next := session.State(req.State)
	if !next.Valid() {
		return nil, svcErr.Map(svcErr.Invalid("unknown session state %q", req.State))
	}

	var patches []session.Patch
	if req.CandidateID != nil {
		patches = append(patches, session.WithCandidate(*req.CandidateID))
	}
	if req.Queue != nil {
		patches = append(patches, session.WithQueue(req.Queue))
	}

	sess, err := s.store.Transition(ctx, req.UserID, next, patches...)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return api.FromSession(sess), nil
}

func (s *Service) ResetSession(ctx context.Context, req *api.UserRequest) (*api.Empty, error) {
	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.store.Reset(ctx, req.UserID); err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.Empty{}, nil
}
