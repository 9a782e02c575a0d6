package discovery

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/oggyb/campus-match/internal/api"
	"github.com/oggyb/campus-match/internal/app"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/matching"
)

// Service implements the Discovery gRPC API.
// It is a thin transport layer over matching.Engine; every rule lives there.
type Service struct {
	appCtx *app.AppContext
	engine *matching.Engine

	api.UnimplementedDiscoveryServiceServer
}

// NewDiscoveryService creates a new Discovery service with dependencies from AppContext.
func NewDiscoveryService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx, engine: appCtx.Engine}
}

// NextCandidate returns the next profile to show the viewer.
//
// Behavior:
//   - Exhausted pool → Exhausted=true with no candidate (not an error).
//   - Banned viewer → FailedPrecondition; unknown viewer → NotFound.
//
// Example:
//
//	svc.NextCandidate(ctx, &api.UserRequest{UserID: 42})
func (s *Service) NextCandidate(ctx context.Context, req *api.UserRequest) (*api.CandidateResponse, error) {
	s.appCtx.Logger.Debug("NextCandidate called", "viewer", req.UserID)

	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	p, err := s.engine.NextCandidate(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if p == nil {
		return &api.CandidateResponse{Exhausted: true}, nil
	}
	return &api.CandidateResponse{Candidate: api.FromProfile(p)}, nil
}

// RecordInterest stores a like or dislike and, for likes, resolves a match.
//
// Example:
//
//	svc.RecordInterest(ctx, &api.RecordInterestRequest{FromID: 1, ToID: 2, Positive: true, MarkViewed: true})
func (s *Service) RecordInterest(ctx context.Context, req *api.RecordInterestRequest) (*api.RecordInterestResponse, error) {
	s.appCtx.Logger.Debug("RecordInterest called", "from", req.FromID, "to", req.ToID, "positive", req.Positive)

	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	res, err := s.engine.RecordInterest(ctx, matching.RecordInput{
		FromID:     req.FromID,
		ToID:       req.ToID,
		Positive:   req.Positive,
		Message:    req.Message,
		MarkViewed: req.MarkViewed,
	})
	if err != nil {
		return nil, svcErr.Map(err)
	}

	return &api.RecordInterestResponse{
		Interest:     api.FromInterest(res.Interest),
		Deduplicated: res.Deduplicated,
		Match:        api.FromMatchResult(res.Match),
	}, nil
}

func (s *Service) TryMatch(ctx context.Context, req *api.PairRequest) (*api.MatchResult, error) {
	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	res, err := s.engine.TryMatch(ctx, req.UserID, req.OtherID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	out := api.FromMatchResult(res)
	return &out, nil
}

// MarkViewed hides OtherID from UserID's candidate stream.
func (s *Service) MarkViewed(ctx context.Context, req *api.PairRequest) (*api.Empty, error) {
	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.engine.MarkViewed(ctx, req.UserID, req.OtherID); err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.Empty{}, nil
}

func (s *Service) ResetViews(ctx context.Context, req *api.UserRequest) (*api.ResetViewsResponse, error) {
	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	n, err := s.engine.ResetViews(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.ResetViewsResponse{Removed: n}, nil
}

func (s *Service) ResetViewsBetween(ctx context.Context, req *api.PairRequest) (*api.ResetViewsResponse, error) {
	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	n, err := s.engine.ResetViewsBetween(ctx, req.UserID, req.OtherID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.ResetViewsResponse{Removed: n}, nil
}

// ListViewed returns what ResetViews would re-admit.
func (s *Service) ListViewed(ctx context.Context, req *api.UserRequest) (*api.ViewedList, error) {
	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	ids, err := s.engine.ViewedProfiles(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if ids == nil {
		ids = []uint64{}
	}
	return &api.ViewedList{ProfileIDs: ids}, nil
}

// GetMatches lists the user's active matches with the partner id filled in.
func (s *Service) GetMatches(ctx context.Context, req *api.UserRequest) (*api.MatchList, error) {
	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	views, err := s.engine.GetMatches(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := &api.MatchList{Matches: make([]*api.Match, 0, len(views))}
	for i := range views {
		m := api.FromMatch(&views[i].Match)
		m.PartnerID = views[i].PartnerID
		resp.Matches = append(resp.Matches, m)
	}
	return resp, nil
}

func (s *Service) Unmatch(ctx context.Context, req *api.PairRequest) (*api.Empty, error) {
	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.engine.Unmatch(ctx, req.UserID, req.OtherID); err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.Empty{}, nil
}

// ListIncoming returns likes addressed to the user, newest first.
//
// Behavior:
//   - Excludes banned senders, superseded likes, senders the user disliked
//     afterwards and already matched pairs.
//   - Cursor pagination via PaginationToken; Limit defaults to the configured page size.
func (s *Service) ListIncoming(ctx context.Context, req *api.ListIncomingRequest) (*api.ListIncomingResponse, error) {
	s.appCtx.Logger.Debug("ListIncoming called", "recipient", req.UserID, "token", req.PaginationToken)

	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	rows, next, err := s.engine.ListIncoming(ctx, req.UserID, req.PaginationToken, req.Limit)
	if err != nil {
		s.appCtx.Logger.Warn("ListIncoming failed", "recipient", req.UserID, "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &api.ListIncomingResponse{Interests: make([]*api.Interest, 0, len(rows)), NextPaginationToken: next}
	for i := range rows {
		resp.Interests = append(resp.Interests, api.FromInterest(&rows[i]))
	}

	s.appCtx.Logger.Debug("ListIncoming result", "count", len(resp.Interests), "has_next", next != nil)
	return resp, nil
}

// CountIncoming returns the inbox size, served from Redis when cached.
func (s *Service) CountIncoming(ctx context.Context, req *api.UserRequest) (*api.CountResponse, error) {
	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	if _, err := s.engine.Profiles().Get(ctx, req.UserID); err != nil {
		return nil, svcErr.Map(err)
	}
	n, err := s.engine.CountIncoming(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.CountResponse{Count: n}, nil
}

// SubscribeEvents streams match, inbox and ban events involving the user
// until the client goes away.
func (s *Service) SubscribeEvents(req *api.SubscribeEventsRequest, stream grpc.ServerStreamingServer[api.Event]) error {
	ctx := stream.Context()
	if err := api.Validate(req); err != nil {
		return svcErr.Map(err)
	}
	if _, err := s.engine.Profiles().Get(ctx, req.UserID); err != nil {
		return svcErr.Map(err)
	}

	sub, err := s.appCtx.Events.Subscribe(ctx, req.UserID)
	if err != nil {
		s.appCtx.Logger.Error("SubscribeEvents failed", "profile", req.UserID, "err", err)
		return svcErr.Map(err)
	}
	defer sub.Close()

	// headers tell the client the subscription is live
	if err := stream.SendHeader(metadata.MD{}); err != nil {
		return err
	}
	s.appCtx.Logger.Debug("event subscriber attached", "profile", req.UserID)
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := stream.Send(api.FromEvent(e)); err != nil {
				return err
			}
		}
	}
}
