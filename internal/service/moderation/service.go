package moderation

import (
	"context"
	"time"

	"github.com/oggyb/campus-match/internal/api"
	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/repository"
)

const defaultPendingLimit = 50

// Service implements the Moderation gRPC API: the operability gate, user
// reports and their operator review.
type Service struct {
	appCtx   *app.AppContext
	profiles *repository.ProfileRepository
	reports  *repository.ReportRepository
	now      func() time.Time

	api.UnimplementedModerationServiceServer
}

// NewModerationService creates a new Moderation service with dependencies from AppContext.
func NewModerationService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		profiles: appCtx.Engine.Profiles(),
		reports:  repository.NewReportRepository(appCtx.DB),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// IsOperable reports whether the profile exists and is not banned.
// Unknown ids are reported as not operable rather than NotFound.
func (s *Service) IsOperable(ctx context.Context, req *api.UserRequest) (*api.OperableResponse, error) {
	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	ok, err := s.appCtx.Engine.IsOperable(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.OperableResponse{Operable: ok}, nil
}

// ReportUser files a pending complaint about ToID.
//
// Behavior:
//   - Reason must be one of spam, fake, offensive, underage, other.
//   - Reporting oneself → FailedPrecondition; unknown profiles → NotFound.
//   - A banned reporter cannot file reports.
func (s *Service) ReportUser(ctx context.Context, req *api.ReportUserRequest) (*api.Report, error) {
	s.appCtx.Logger.Debug("ReportUser called", "from", req.FromID, "to", req.ToID, "reason", req.Reason)

	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	if req.FromID == req.ToID {
		return nil, svcErr.Map(svcErr.InvalidState("profile %d cannot report itself", req.FromID))
	}

	reporter, err := s.profiles.Get(ctx, req.FromID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if reporter.Banned {
		return nil, svcErr.Map(svcErr.InvalidState("profile %d is banned", req.FromID))
	}
	if _, err := s.profiles.Get(ctx, req.ToID); err != nil {
		return nil, svcErr.Map(err)
	}

	rep := &db.Report{
		FromID:  req.FromID,
		ToID:    req.ToID,
		Reason:  req.Reason,
		Comment: req.Comment,
		Status:  db.ReportPending,
	}
	if err := s.reports.Create(ctx, rep); err != nil {
		s.appCtx.Logger.Error("ReportUser failed", "err", err)
		return nil, svcErr.Map(err)
	}
	if s.appCtx.Metrics != nil {
		s.appCtx.Metrics.ReportsFiled.WithLabelValues(rep.Reason).Inc()
	}

	s.appCtx.Logger.Info("report filed", "report", rep.ID, "from", rep.FromID, "to", rep.ToID, "reason", rep.Reason)
	return api.FromReport(rep), nil
}

// ListPendingReports returns the review queue, oldest first. It always reads
// storage so reviews by other operators are visible immediately.
func (s *Service) ListPendingReports(ctx context.Context, req *api.ListPendingReportsRequest) (*api.ReportList, error) {
	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultPendingLimit
	}

	rows, err := s.reports.ListPending(ctx, limit)
	if err != nil {
		s.appCtx.Logger.Error("ListPendingReports failed", "err", err)
		return nil, svcErr.Map(err)
	}
	resp := &api.ReportList{Reports: make([]*api.Report, 0, len(rows))}
	for i := range rows {
		resp.Reports = append(resp.Reports, api.FromReport(&rows[i]))
	}
	return resp, nil
}

// ReviewReport closes a pending report.
//
// Behavior:
//   - Action "ban" marks the report reviewed and bans the reported profile.
//   - Action "reject" marks the report rejected.
//   - Unknown report → NotFound; already reviewed → FailedPrecondition.
//   - The status change is claimed first, so two operators never both act.
func (s *Service) ReviewReport(ctx context.Context, req *api.ReviewReportRequest) (*api.Report, error) {
	s.appCtx.Logger.Debug("ReviewReport called", "report", req.ReportID, "action", req.Action)

	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}

	status := db.ReportRejected
	if req.Action == api.ReviewActionBan {
		status = db.ReportReviewed
	}
	if err := s.reports.Review(ctx, req.ReportID, status, req.AdminComment, s.now()); err != nil {
		return nil, svcErr.Map(err)
	}

	rep, err := s.reports.Get(ctx, req.ReportID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	if req.Action == api.ReviewActionBan {
		if _, err := s.appCtx.Engine.SetBanned(ctx, rep.ToID, true); err != nil {
			s.appCtx.Logger.Error("ban after review failed", "report", rep.ID, "profile", rep.ToID, "err", err)
			return nil, svcErr.Map(err)
		}
	}

	s.appCtx.Logger.Info("report reviewed", "report", rep.ID, "status", rep.Status)
	return api.FromReport(rep), nil
}

func (s *Service) BanUser(ctx context.Context, req *api.UserRequest) (*api.BanResponse, error) {
	return s.setBanned(ctx, req, true)
}

func (s *Service) UnbanUser(ctx context.Context, req *api.UserRequest) (*api.BanResponse, error) {
	return s.setBanned(ctx, req, false)
}

func (s *Service) setBanned(ctx context.Context, req *api.UserRequest, banned bool) (*api.BanResponse, error) {
	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	changed, err := s.appCtx.Engine.SetBanned(ctx, req.UserID, banned)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	s.appCtx.Logger.Info("ban flag set", "profile", req.UserID, "banned", banned, "changed", changed)
	return &api.BanResponse{Changed: changed}, nil
}
