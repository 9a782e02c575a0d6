package profile

import (
	"context"
	"strings"
	"time"

	"github.com/oggyb/campus-match/internal/api"
	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/db"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/repository"
)

const defaultSpotlightLimit = 10

// Service implements the Profile gRPC API: registration, edits, lookups and
// the affiliation directory.
type Service struct {
	appCtx       *app.AppContext
	profiles     *repository.ProfileRepository
	affiliations *repository.AffiliationRepository
	now          func() time.Time

	api.UnimplementedProfileServiceServer
}

// NewProfileService creates a new Profile service with dependencies from AppContext.
func NewProfileService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:       appCtx,
		profiles:     appCtx.Engine.Profiles(),
		affiliations: repository.NewAffiliationRepository(appCtx.DB),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// RegisterProfile creates a searchable profile for a chat identity.
//
// Behavior:
//   - Input is validated (name, age 16..99, bio, gender, preference).
//   - The affiliation must exist and be active.
//   - A second registration for the same external id → AlreadyExists.
func (s *Service) RegisterProfile(ctx context.Context, req *api.RegisterProfileRequest) (*api.Profile, error) {
	s.appCtx.Logger.Debug("RegisterProfile called", "external_id", req.ExternalID, "affiliation", req.AffiliationID)

	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.affiliations.RequireActive(ctx, req.AffiliationID); err != nil {
		return nil, svcErr.Map(err)
	}

	now := s.now()
	p := &db.Profile{
		ExternalID:    req.ExternalID,
		Username:      req.Username,
		Name:          strings.TrimSpace(req.Name),
		Age:           req.Age,
		Gender:        db.Gender(req.Gender),
		LookingFor:    db.Gender(req.LookingFor),
		Bio:           req.Bio,
		AffiliationID: req.AffiliationID,
		MediaRef:      req.MediaRef,
		Active:        true,
		Registered:    true,
		Searchable:    true,
		LastActive:    now,
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		s.appCtx.Logger.Warn("RegisterProfile failed", "external_id", req.ExternalID, "err", err)
		return nil, svcErr.Map(err)
	}

	s.appCtx.Logger.Info("profile registered", "profile", p.ID, "affiliation", p.AffiliationID)
	return api.FromProfile(p), nil
}

// UpdateProfile applies a partial edit. Banned profiles cannot be edited.
func (s *Service) UpdateProfile(ctx context.Context, req *api.UpdateProfileRequest) (*api.Profile, error) {
	s.appCtx.Logger.Debug("UpdateProfile called", "profile", req.ID)

	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}

	fields := map[string]any{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Age != nil {
		fields["age"] = *req.Age
	}
	if req.Gender != nil {
		fields["gender"] = db.Gender(*req.Gender)
	}
	if req.LookingFor != nil {
		fields["looking_for"] = db.Gender(*req.LookingFor)
	}
	if req.Bio != nil {
		fields["bio"] = *req.Bio
	}
	if req.MediaRef != nil {
		fields["media_ref"] = *req.MediaRef
	}
	if req.Searchable != nil {
		fields["searchable"] = *req.Searchable
	}
	if req.Active != nil {
		fields["active"] = *req.Active
	}
	if req.AffiliationID != nil {
		if err := s.affiliations.RequireActive(ctx, *req.AffiliationID); err != nil {
			return nil, svcErr.Map(err)
		}
		fields["affiliation_id"] = *req.AffiliationID
	}

	if err := s.profiles.Update(ctx, req.ID, fields); err != nil {
		s.appCtx.Logger.Warn("UpdateProfile failed", "profile", req.ID, "err", err)
		return nil, svcErr.Map(err)
	}
	p, err := s.profiles.Get(ctx, req.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return api.FromProfile(p), nil
}

func (s *Service) GetProfile(ctx context.Context, req *api.GetProfileRequest) (*api.Profile, error) {
	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}

	var (
		p   *db.Profile
		err error
	)
	if req.ID != 0 {
		p, err = s.profiles.Get(ctx, req.ID)
	} else {
		p, err = s.profiles.GetByExternalID(ctx, req.ExternalID)
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return api.FromProfile(p), nil
}

func (s *Service) ListAffiliations(ctx context.Context, req *api.ListAffiliationsRequest) (*api.ListAffiliationsResponse, error) {
	rows, err := s.affiliations.List(ctx, req.ActiveOnly)
	if err != nil {
		s.appCtx.Logger.Error("ListAffiliations failed", "err", err)
		return nil, svcErr.Map(err)
	}
	resp := &api.ListAffiliationsResponse{Affiliations: make([]*api.Affiliation, 0, len(rows))}
	for i := range rows {
		resp.Affiliations = append(resp.Affiliations, api.FromAffiliation(&rows[i]))
	}
	return resp, nil
}

// ListSpotlighted returns the featured profiles of an affiliation.
func (s *Service) ListSpotlighted(ctx context.Context, req *api.ListSpotlightedRequest) (*api.ProfileList, error) {
	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultSpotlightLimit
	}

	rows, err := s.profiles.ListSpotlighted(ctx, req.AffiliationID, limit)
	if err != nil {
		s.appCtx.Logger.Error("ListSpotlighted failed", "err", err)
		return nil, svcErr.Map(err)
	}
	resp := &api.ProfileList{Profiles: make([]*api.Profile, 0, len(rows))}
	for i := range rows {
		resp.Profiles = append(resp.Profiles, api.FromProfile(&rows[i]))
	}
	return resp, nil
}

func (s *Service) CreateAffiliation(ctx context.Context, req *api.CreateAffiliationRequest) (*api.Affiliation, error) {
	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	a := &db.Affiliation{
		Name:      strings.TrimSpace(req.Name),
		ShortName: strings.TrimSpace(req.ShortName),
		City:      strings.TrimSpace(req.City),
		Active:    true,
	}
	if err := s.affiliations.Create(ctx, a); err != nil {
		return nil, svcErr.Map(err)
	}
	s.appCtx.Logger.Info("affiliation created", "affiliation", a.ID, "name", a.Name)
	return api.FromAffiliation(a), nil
}

func (s *Service) SetAffiliationActive(ctx context.Context, req *api.SetAffiliationActiveRequest) (*api.Empty, error) {
	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.affiliations.SetActive(ctx, req.ID, req.Active); err != nil {
		return nil, svcErr.Map(err)
	}
	s.appCtx.Logger.Info("affiliation toggled", "affiliation", req.ID, "active", req.Active)
	return &api.Empty{}, nil
}

// SetProfileFlags marks a profile as synthetic (decoy) or spotlighted.
func (s *Service) SetProfileFlags(ctx context.Context, req *api.SetProfileFlagsRequest) (*api.Profile, error) {
	if err := api.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.profiles.SetFlags(ctx, req.ID, req.Synthetic, req.Spotlighted); err != nil {
		return nil, svcErr.Map(err)
	}
	p, err := s.profiles.Get(ctx, req.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return api.FromProfile(p), nil
}
