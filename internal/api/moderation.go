package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ModerationServiceName = "campusmatch.v1.ModerationService"

const (
	ModerationService_IsOperable_FullMethodName         = "/campusmatch.v1.ModerationService/IsOperable"
	ModerationService_ReportUser_FullMethodName         = "/campusmatch.v1.ModerationService/ReportUser"
	ModerationService_ListPendingReports_FullMethodName = "/campusmatch.v1.ModerationService/ListPendingReports"
	ModerationService_ReviewReport_FullMethodName       = "/campusmatch.v1.ModerationService/ReviewReport"
	ModerationService_BanUser_FullMethodName            = "/campusmatch.v1.ModerationService/BanUser"
	ModerationService_UnbanUser_FullMethodName          = "/campusmatch.v1.ModerationService/UnbanUser"
)

func init() {
	operatorOnly(
		ModerationService_ListPendingReports_FullMethodName,
		ModerationService_ReviewReport_FullMethodName,
		ModerationService_BanUser_FullMethodName,
		ModerationService_UnbanUser_FullMethodName,
	)
}

type OperableResponse struct {
	Operable bool `json:"operable"`
}

type ReportUserRequest struct {
	FromID  uint64  `json:"from_id" validate:"required"`
	ToID    uint64  `json:"to_id" validate:"required"`
	Reason  string  `json:"reason" validate:"oneof=spam fake offensive underage other"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=500"`
}

type ListPendingReportsRequest struct {
	Limit int `json:"limit,omitempty" validate:"omitempty,min=1,max=200"`
}

type ReportList struct {
	Reports []*Report `json:"reports"`
}

const (
	ReviewActionBan    = "ban"
	ReviewActionReject = "reject"
)

type ReviewReportRequest struct {
	ReportID     uint64  `json:"report_id" validate:"required"`
	Action       string  `json:"action" validate:"oneof=ban reject"`
	AdminComment *string `json:"admin_comment,omitempty" validate:"omitempty,max=1000"`
}

type BanResponse struct {
	// Changed is false when the flag already had the requested value.
	Changed bool `json:"changed"`
}

// ModerationServiceServer exposes the gate check, user reports and operator review.
type ModerationServiceServer interface {
	IsOperable(context.Context, *UserRequest) (*OperableResponse, error)
	ReportUser(context.Context, *ReportUserRequest) (*Report, error)
	ListPendingReports(context.Context, *ListPendingReportsRequest) (*ReportList, error)
	ReviewReport(context.Context, *ReviewReportRequest) (*Report, error)
	BanUser(context.Context, *UserRequest) (*BanResponse, error)
	UnbanUser(context.Context, *UserRequest) (*BanResponse, error)
}

type UnimplementedModerationServiceServer struct{}

func (UnimplementedModerationServiceServer) IsOperable(context.Context, *UserRequest) (*OperableResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method IsOperable not implemented")
}
func (UnimplementedModerationServiceServer) ReportUser(context.Context, *ReportUserRequest) (*Report, error) {
	return nil, status.Error(codes.Unimplemented, "method ReportUser not implemented")
}
func (UnimplementedModerationServiceServer) ListPendingReports(context.Context, *ListPendingReportsRequest) (*ReportList, error) {
	return nil, status.Error(codes.Unimplemented, "method ListPendingReports not implemented")
}
func (UnimplementedModerationServiceServer) ReviewReport(context.Context, *ReviewReportRequest) (*Report, error) {
	return nil, status.Error(codes.Unimplemented, "method ReviewReport not implemented")
}
func (UnimplementedModerationServiceServer) BanUser(context.Context, *UserRequest) (*BanResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method BanUser not implemented")
}
func (UnimplementedModerationServiceServer) UnbanUser(context.Context, *UserRequest) (*BanResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UnbanUser not implemented")
}

var ModerationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ModerationServiceName,
	HandlerType: (*ModerationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "IsOperable", Handler: unary(ModerationService_IsOperable_FullMethodName, ModerationServiceServer.IsOperable)},
		{MethodName: "ReportUser", Handler: unary(ModerationService_ReportUser_FullMethodName, ModerationServiceServer.ReportUser)},
		{MethodName: "ListPendingReports", Handler: unary(ModerationService_ListPendingReports_FullMethodName, ModerationServiceServer.ListPendingReports)},
		{MethodName: "ReviewReport", Handler: unary(ModerationService_ReviewReport_FullMethodName, ModerationServiceServer.ReviewReport)},
		{MethodName: "BanUser", Handler: unary(ModerationService_BanUser_FullMethodName, ModerationServiceServer.BanUser)},
		{MethodName: "UnbanUser", Handler: unary(ModerationService_UnbanUser_FullMethodName, ModerationServiceServer.UnbanUser)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "campusmatch/v1/moderation",
}

func RegisterModerationServiceServer(s grpc.ServiceRegistrar, srv ModerationServiceServer) {
	s.RegisterService(&ModerationService_ServiceDesc, srv)
}

type ModerationServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewModerationServiceClient(cc grpc.ClientConnInterface) *ModerationServiceClient {
	return &ModerationServiceClient{cc: cc}
}

func (c *ModerationServiceClient) IsOperable(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*OperableResponse, error) {
	return invoke[OperableResponse](ctx, c.cc, ModerationService_IsOperable_FullMethodName, in, opts)
}

func (c *ModerationServiceClient) ReportUser(ctx context.Context, in *ReportUserRequest, opts ...grpc.CallOption) (*Report, error) {
	return invoke[Report](ctx, c.cc, ModerationService_ReportUser_FullMethodName, in, opts)
}

func (c *ModerationServiceClient) ListPendingReports(ctx context.Context, in *ListPendingReportsRequest, opts ...grpc.CallOption) (*ReportList, error) {
	return invoke[ReportList](ctx, c.cc, ModerationService_ListPendingReports_FullMethodName, in, opts)
}

func (c *ModerationServiceClient) ReviewReport(ctx context.Context, in *ReviewReportRequest, opts ...grpc.CallOption) (*Report, error) {
	return invoke[Report](ctx, c.cc, ModerationService_ReviewReport_FullMethodName, in, opts)
}

func (c *ModerationServiceClient) BanUser(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*BanResponse, error) {
	return invoke[BanResponse](ctx, c.cc, ModerationService_BanUser_FullMethodName, in, opts)
}

func (c *ModerationServiceClient) UnbanUser(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*BanResponse, error) {
	return invoke[BanResponse](ctx, c.cc, ModerationService_UnbanUser_FullMethodName, in, opts)
}
