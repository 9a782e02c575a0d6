package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ProfileServiceName = "campusmatch.v1.ProfileService"

const (
	ProfileService_RegisterProfile_FullMethodName      = "/campusmatch.v1.ProfileService/RegisterProfile"
	ProfileService_UpdateProfile_FullMethodName        = "/campusmatch.v1.ProfileService/UpdateProfile"
	ProfileService_GetProfile_FullMethodName           = "/campusmatch.v1.ProfileService/GetProfile"
	ProfileService_ListAffiliations_FullMethodName     = "/campusmatch.v1.ProfileService/ListAffiliations"
	ProfileService_ListSpotlighted_FullMethodName      = "/campusmatch.v1.ProfileService/ListSpotlighted"
	ProfileService_CreateAffiliation_FullMethodName    = "/campusmatch.v1.ProfileService/CreateAffiliation"
	ProfileService_SetAffiliationActive_FullMethodName = "/campusmatch.v1.ProfileService/SetAffiliationActive"
	ProfileService_SetProfileFlags_FullMethodName      = "/campusmatch.v1.ProfileService/SetProfileFlags"
)

func init() {
	operatorOnly(
		ProfileService_CreateAffiliation_FullMethodName,
		ProfileService_SetAffiliationActive_FullMethodName,
		ProfileService_SetProfileFlags_FullMethodName,
	)
}

type RegisterProfileRequest struct {
	ExternalID    int64   `json:"external_id" validate:"required,gt=0"`
	Username      *string `json:"username,omitempty" validate:"omitempty,max=64"`
	Name          string  `json:"name" validate:"required,person_name"`
	Age           int     `json:"age" validate:"gte=16,lte=99"`
	Gender        string  `json:"gender" validate:"oneof=male female"`
	LookingFor    string  `json:"looking_for" validate:"oneof=male female any"`
	Bio           string  `json:"bio" validate:"max=500"`
	AffiliationID uint64  `json:"affiliation_id" validate:"required"`
	MediaRef      *string `json:"media_ref,omitempty" validate:"omitempty,max=255"`
}

// UpdateProfileRequest is a partial update; nil fields are left untouched.
type UpdateProfileRequest struct {
	ID            uint64  `json:"id" validate:"required"`
	Name          *string `json:"name,omitempty" validate:"omitempty,person_name"`
	Age           *int    `json:"age,omitempty" validate:"omitempty,gte=16,lte=99"`
	Gender        *string `json:"gender,omitempty" validate:"omitempty,oneof=male female"`
	LookingFor    *string `json:"looking_for,omitempty" validate:"omitempty,oneof=male female any"`
	Bio           *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	AffiliationID *uint64 `json:"affiliation_id,omitempty" validate:"omitempty,gt=0"`
	MediaRef      *string `json:"media_ref,omitempty" validate:"omitempty,max=255"`
	Searchable    *bool   `json:"searchable,omitempty"`
	Active        *bool   `json:"active,omitempty"`
}

// GetProfileRequest looks a profile up by id or by external chat id.
type GetProfileRequest struct {
	ID         uint64 `json:"id,omitempty" validate:"required_without=ExternalID"`
	ExternalID int64  `json:"external_id,omitempty"`
}

type ListAffiliationsRequest struct {
	ActiveOnly bool `json:"active_only"`
}

type ListAffiliationsResponse struct {
	Affiliations []*Affiliation `json:"affiliations"`
}

type ListSpotlightedRequest struct {
	AffiliationID uint64 `json:"affiliation_id" validate:"required"`
	Limit         int    `json:"limit,omitempty" validate:"omitempty,min=1,max=50"`
}

type ProfileList struct {
	Profiles []*Profile `json:"profiles"`
}

type CreateAffiliationRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	ShortName string `json:"short_name" validate:"required,max=50"`
	City      string `json:"city,omitempty" validate:"max=100"`
}

type SetAffiliationActiveRequest struct {
	ID     uint64 `json:"id" validate:"required"`
	Active bool   `json:"active"`
}

type SetProfileFlagsRequest struct {
	ID          uint64 `json:"id" validate:"required"`
	Synthetic   *bool  `json:"synthetic,omitempty"`
	Spotlighted *bool  `json:"spotlighted,omitempty"`
}

// ProfileServiceServer manages profiles and the affiliation directory.
type ProfileServiceServer interface {
	RegisterProfile(context.Context, *RegisterProfileRequest) (*Profile, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*Profile, error)
	GetProfile(context.Context, *GetProfileRequest) (*Profile, error)
	ListAffiliations(context.Context, *ListAffiliationsRequest) (*ListAffiliationsResponse, error)
	ListSpotlighted(context.Context, *ListSpotlightedRequest) (*ProfileList, error)
	CreateAffiliation(context.Context, *CreateAffiliationRequest) (*Affiliation, error)
	SetAffiliationActive(context.Context, *SetAffiliationActiveRequest) (*Empty, error)
	SetProfileFlags(context.Context, *SetProfileFlagsRequest) (*Profile, error)
}

// UnimplementedProfileServiceServer can be embedded to keep implementations
// compiling when methods are added.
type UnimplementedProfileServiceServer struct{}

func (UnimplementedProfileServiceServer) RegisterProfile(context.Context, *RegisterProfileRequest) (*Profile, error) {
	return nil, status.Error(codes.Unimplemented, "method RegisterProfile not implemented")
}
func (UnimplementedProfileServiceServer) UpdateProfile(context.Context, *UpdateProfileRequest) (*Profile, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateProfile not implemented")
}
func (UnimplementedProfileServiceServer) GetProfile(context.Context, *GetProfileRequest) (*Profile, error) {
	return nil, status.Error(codes.Unimplemented, "method GetProfile not implemented")
}
func (UnimplementedProfileServiceServer) ListAffiliations(context.Context, *ListAffiliationsRequest) (*ListAffiliationsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListAffiliations not implemented")
}
func (UnimplementedProfileServiceServer) ListSpotlighted(context.Context, *ListSpotlightedRequest) (*ProfileList, error) {
	return nil, status.Error(codes.Unimplemented, "method ListSpotlighted not implemented")
}
func (UnimplementedProfileServiceServer) CreateAffiliation(context.Context, *CreateAffiliationRequest) (*Affiliation, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateAffiliation not implemented")
}
func (UnimplementedProfileServiceServer) SetAffiliationActive(context.Context, *SetAffiliationActiveRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method SetAffiliationActive not implemented")
}
func (UnimplementedProfileServiceServer) SetProfileFlags(context.Context, *SetProfileFlagsRequest) (*Profile, error) {
	return nil, status.Error(codes.Unimplemented, "method SetProfileFlags not implemented")
}

var ProfileService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ProfileServiceName,
	HandlerType: (*ProfileServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RegisterProfile", Handler: unary(ProfileService_RegisterProfile_FullMethodName, ProfileServiceServer.RegisterProfile)},
		{MethodName: "UpdateProfile", Handler: unary(ProfileService_UpdateProfile_FullMethodName, ProfileServiceServer.UpdateProfile)},
		{MethodName: "GetProfile", Handler: unary(ProfileService_GetProfile_FullMethodName, ProfileServiceServer.GetProfile)},
		{MethodName: "ListAffiliations", Handler: unary(ProfileService_ListAffiliations_FullMethodName, ProfileServiceServer.ListAffiliations)},
		{MethodName: "ListSpotlighted", Handler: unary(ProfileService_ListSpotlighted_FullMethodName, ProfileServiceServer.ListSpotlighted)},
		{MethodName: "CreateAffiliation", Handler: unary(ProfileService_CreateAffiliation_FullMethodName, ProfileServiceServer.CreateAffiliation)},
		{MethodName: "SetAffiliationActive", Handler: unary(ProfileService_SetAffiliationActive_FullMethodName, ProfileServiceServer.SetAffiliationActive)},
		{MethodName: "SetProfileFlags", Handler: unary(ProfileService_SetProfileFlags_FullMethodName, ProfileServiceServer.SetProfileFlags)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "campusmatch/v1/profile",
}

func RegisterProfileServiceServer(s grpc.ServiceRegistrar, srv ProfileServiceServer) {
	s.RegisterService(&ProfileService_ServiceDesc, srv)
}

type ProfileServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewProfileServiceClient(cc grpc.ClientConnInterface) *ProfileServiceClient {
	return &ProfileServiceClient{cc: cc}
}

func (c *ProfileServiceClient) RegisterProfile(ctx context.Context, in *RegisterProfileRequest, opts ...grpc.CallOption) (*Profile, error) {
	return invoke[Profile](ctx, c.cc, ProfileService_RegisterProfile_FullMethodName, in, opts)
}

func (c *ProfileServiceClient) UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*Profile, error) {
	return invoke[Profile](ctx, c.cc, ProfileService_UpdateProfile_FullMethodName, in, opts)
}

func (c *ProfileServiceClient) GetProfile(ctx context.Context, in *GetProfileRequest, opts ...grpc.CallOption) (*Profile, error) {
	return invoke[Profile](ctx, c.cc, ProfileService_GetProfile_FullMethodName, in, opts)
}

func (c *ProfileServiceClient) ListAffiliations(ctx context.Context, in *ListAffiliationsRequest, opts ...grpc.CallOption) (*ListAffiliationsResponse, error) {
	return invoke[ListAffiliationsResponse](ctx, c.cc, ProfileService_ListAffiliations_FullMethodName, in, opts)
}

func (c *ProfileServiceClient) ListSpotlighted(ctx context.Context, in *ListSpotlightedRequest, opts ...grpc.CallOption) (*ProfileList, error) {
	return invoke[ProfileList](ctx, c.cc, ProfileService_ListSpotlighted_FullMethodName, in, opts)
}

func (c *ProfileServiceClient) CreateAffiliation(ctx context.Context, in *CreateAffiliationRequest, opts ...grpc.CallOption) (*Affiliation, error) {
	return invoke[Affiliation](ctx, c.cc, ProfileService_CreateAffiliation_FullMethodName, in, opts)
}

func (c *ProfileServiceClient) SetAffiliationActive(ctx context.Context, in *SetAffiliationActiveRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, ProfileService_SetAffiliationActive_FullMethodName, in, opts)
}

func (c *ProfileServiceClient) SetProfileFlags(ctx context.Context, in *SetProfileFlagsRequest, opts ...grpc.CallOption) (*Profile, error) {
	return invoke[Profile](ctx, c.cc, ProfileService_SetProfileFlags_FullMethodName, in, opts)
}
