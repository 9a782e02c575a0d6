package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const DiscoveryServiceName = "campusmatch.v1.DiscoveryService"

const (
	DiscoveryService_NextCandidate_FullMethodName     = "/campusmatch.v1.DiscoveryService/NextCandidate"
	DiscoveryService_RecordInterest_FullMethodName    = "/campusmatch.v1.DiscoveryService/RecordInterest"
	DiscoveryService_TryMatch_FullMethodName          = "/campusmatch.v1.DiscoveryService/TryMatch"
	DiscoveryService_MarkViewed_FullMethodName        = "/campusmatch.v1.DiscoveryService/MarkViewed"
	DiscoveryService_ResetViews_FullMethodName        = "/campusmatch.v1.DiscoveryService/ResetViews"
	DiscoveryService_ResetViewsBetween_FullMethodName = "/campusmatch.v1.DiscoveryService/ResetViewsBetween"
	DiscoveryService_ListViewed_FullMethodName        = "/campusmatch.v1.DiscoveryService/ListViewed"
	DiscoveryService_GetMatches_FullMethodName        = "/campusmatch.v1.DiscoveryService/GetMatches"
	DiscoveryService_Unmatch_FullMethodName           = "/campusmatch.v1.DiscoveryService/Unmatch"
	DiscoveryService_ListIncoming_FullMethodName      = "/campusmatch.v1.DiscoveryService/ListIncoming"
	DiscoveryService_CountIncoming_FullMethodName     = "/campusmatch.v1.DiscoveryService/CountIncoming"
	DiscoveryService_SubscribeEvents_FullMethodName   = "/campusmatch.v1.DiscoveryService/SubscribeEvents"
)

// CandidateResponse carries the next profile to show. Exhausted is set and
// Candidate is nil when the viewer's pool is empty.
type CandidateResponse struct {
	Candidate *Profile `json:"candidate,omitempty"`
	Exhausted bool     `json:"exhausted"`
}

type RecordInterestRequest struct {
	FromID   uint64  `json:"from_id" validate:"required"`
	ToID     uint64  `json:"to_id" validate:"required"`
	Positive bool    `json:"positive"`
	Message  *string `json:"message,omitempty" validate:"omitempty,max=200"`
	// MarkViewed also hides ToID from FromID's candidate stream.
	MarkViewed bool `json:"mark_viewed"`
}

type RecordInterestResponse struct {
	Interest     *Interest   `json:"interest"`
	Deduplicated bool        `json:"deduplicated"`
	Match        MatchResult `json:"match"`
}

type ResetViewsResponse struct {
	Removed int64 `json:"removed"`
}

// ViewedList holds the profiles a viewer already reacted to, oldest first.
type ViewedList struct {
	ProfileIDs []uint64 `json:"profile_ids"`
}

type MatchList struct {
	Matches []*Match `json:"matches"`
}

type ListIncomingRequest struct {
	UserID          uint64  `json:"user_id" validate:"required"`
	PaginationToken *string `json:"pagination_token,omitempty"`
	Limit           int     `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

type ListIncomingResponse struct {
	Interests           []*Interest `json:"interests"`
	NextPaginationToken *string     `json:"next_pagination_token,omitempty"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type SubscribeEventsRequest struct {
	UserID uint64 `json:"user_id" validate:"required"`
}

// DiscoveryServiceServer drives browsing, reactions, matches and the inbox.
type DiscoveryServiceServer interface {
	NextCandidate(context.Context, *UserRequest) (*CandidateResponse, error)
	RecordInterest(context.Context, *RecordInterestRequest) (*RecordInterestResponse, error)
	TryMatch(context.Context, *PairRequest) (*MatchResult, error)
	MarkViewed(context.Context, *PairRequest) (*Empty, error)
	ResetViews(context.Context, *UserRequest) (*ResetViewsResponse, error)
	ResetViewsBetween(context.Context, *PairRequest) (*ResetViewsResponse, error)
	ListViewed(context.Context, *UserRequest) (*ViewedList, error)
	GetMatches(context.Context, *UserRequest) (*MatchList, error)
	Unmatch(context.Context, *PairRequest) (*Empty, error)
	ListIncoming(context.Context, *ListIncomingRequest) (*ListIncomingResponse, error)
	CountIncoming(context.Context, *UserRequest) (*CountResponse, error)
	SubscribeEvents(*SubscribeEventsRequest, grpc.ServerStreamingServer[Event]) error
}

type UnimplementedDiscoveryServiceServer struct{}

func (UnimplementedDiscoveryServiceServer) NextCandidate(context.Context, *UserRequest) (*CandidateResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method NextCandidate not implemented")
}
func (UnimplementedDiscoveryServiceServer) RecordInterest(context.Context, *RecordInterestRequest) (*RecordInterestResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RecordInterest not implemented")
}
func (UnimplementedDiscoveryServiceServer) TryMatch(context.Context, *PairRequest) (*MatchResult, error) {
	return nil, status.Error(codes.Unimplemented, "method TryMatch not implemented")
}
func (UnimplementedDiscoveryServiceServer) MarkViewed(context.Context, *PairRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method MarkViewed not implemented")
}
func (UnimplementedDiscoveryServiceServer) ResetViews(context.Context, *UserRequest) (*ResetViewsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ResetViews not implemented")
}
func (UnimplementedDiscoveryServiceServer) ResetViewsBetween(context.Context, *PairRequest) (*ResetViewsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ResetViewsBetween not implemented")
}
func (UnimplementedDiscoveryServiceServer) ListViewed(context.Context, *UserRequest) (*ViewedList, error) {
	return nil, status.Error(codes.Unimplemented, "method ListViewed not implemented")
}
func (UnimplementedDiscoveryServiceServer) GetMatches(context.Context, *UserRequest) (*MatchList, error) {
	return nil, status.Error(codes.Unimplemented, "method GetMatches not implemented")
}
func (UnimplementedDiscoveryServiceServer) Unmatch(context.Context, *PairRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Unmatch not implemented")
}
func (UnimplementedDiscoveryServiceServer) ListIncoming(context.Context, *ListIncomingRequest) (*ListIncomingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListIncoming not implemented")
}
func (UnimplementedDiscoveryServiceServer) CountIncoming(context.Context, *UserRequest) (*CountResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CountIncoming not implemented")
}
func (UnimplementedDiscoveryServiceServer) SubscribeEvents(*SubscribeEventsRequest, grpc.ServerStreamingServer[Event]) error {
	return status.Error(codes.Unimplemented, "method SubscribeEvents not implemented")
}

func subscribeEventsHandler(srv any, stream grpc.ServerStream) error {
	in := new(SubscribeEventsRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(DiscoveryServiceServer).SubscribeEvents(in, &grpc.GenericServerStream[SubscribeEventsRequest, Event]{ServerStream: stream})
}

var DiscoveryService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: DiscoveryServiceName,
	HandlerType: (*DiscoveryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "NextCandidate", Handler: unary(DiscoveryService_NextCandidate_FullMethodName, DiscoveryServiceServer.NextCandidate)},
		{MethodName: "RecordInterest", Handler: unary(DiscoveryService_RecordInterest_FullMethodName, DiscoveryServiceServer.RecordInterest)},
		{MethodName: "TryMatch", Handler: unary(DiscoveryService_TryMatch_FullMethodName, DiscoveryServiceServer.TryMatch)},
		{MethodName: "MarkViewed", Handler: unary(DiscoveryService_MarkViewed_FullMethodName, DiscoveryServiceServer.MarkViewed)},
		{MethodName: "ResetViews", Handler: unary(DiscoveryService_ResetViews_FullMethodName, DiscoveryServiceServer.ResetViews)},
		{MethodName: "ResetViewsBetween", Handler: unary(DiscoveryService_ResetViewsBetween_FullMethodName, DiscoveryServiceServer.ResetViewsBetween)},
		{MethodName: "ListViewed", Handler: unary(DiscoveryService_ListViewed_FullMethodName, DiscoveryServiceServer.ListViewed)},
		{MethodName: "GetMatches", Handler: unary(DiscoveryService_GetMatches_FullMethodName, DiscoveryServiceServer.GetMatches)},
		{MethodName: "Unmatch", Handler: unary(DiscoveryService_Unmatch_FullMethodName, DiscoveryServiceServer.Unmatch)},
		{MethodName: "ListIncoming", Handler: unary(DiscoveryService_ListIncoming_FullMethodName, DiscoveryServiceServer.ListIncoming)},
		{MethodName: "CountIncoming", Handler: unary(DiscoveryService_CountIncoming_FullMethodName, DiscoveryServiceServer.CountIncoming)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "SubscribeEvents", Handler: subscribeEventsHandler, ServerStreams: true},
	},
	Metadata: "campusmatch/v1/discovery",
}

func RegisterDiscoveryServiceServer(s grpc.ServiceRegistrar, srv DiscoveryServiceServer) {
	s.RegisterService(&DiscoveryService_ServiceDesc, srv)
}

type DiscoveryServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewDiscoveryServiceClient(cc grpc.ClientConnInterface) *DiscoveryServiceClient {
	return &DiscoveryServiceClient{cc: cc}
}

func (c *DiscoveryServiceClient) NextCandidate(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*CandidateResponse, error) {
	return invoke[CandidateResponse](ctx, c.cc, DiscoveryService_NextCandidate_FullMethodName, in, opts)
}

func (c *DiscoveryServiceClient) RecordInterest(ctx context.Context, in *RecordInterestRequest, opts ...grpc.CallOption) (*RecordInterestResponse, error) {
	return invoke[RecordInterestResponse](ctx, c.cc, DiscoveryService_RecordInterest_FullMethodName, in, opts)
}

func (c *DiscoveryServiceClient) TryMatch(ctx context.Context, in *PairRequest, opts ...grpc.CallOption) (*MatchResult, error) {
	return invoke[MatchResult](ctx, c.cc, DiscoveryService_TryMatch_FullMethodName, in, opts)
}

func (c *DiscoveryServiceClient) MarkViewed(ctx context.Context, in *PairRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, DiscoveryService_MarkViewed_FullMethodName, in, opts)
}

func (c *DiscoveryServiceClient) ResetViews(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*ResetViewsResponse, error) {
	return invoke[ResetViewsResponse](ctx, c.cc, DiscoveryService_ResetViews_FullMethodName, in, opts)
}

func (c *DiscoveryServiceClient) ResetViewsBetween(ctx context.Context, in *PairRequest, opts ...grpc.CallOption) (*ResetViewsResponse, error) {
	return invoke[ResetViewsResponse](ctx, c.cc, DiscoveryService_ResetViewsBetween_FullMethodName, in, opts)
}

func (c *DiscoveryServiceClient) ListViewed(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*ViewedList, error) {
	return invoke[ViewedList](ctx, c.cc, DiscoveryService_ListViewed_FullMethodName, in, opts)
}

func (c *DiscoveryServiceClient) GetMatches(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*MatchList, error) {
	return invoke[MatchList](ctx, c.cc, DiscoveryService_GetMatches_FullMethodName, in, opts)
}

func (c *DiscoveryServiceClient) Unmatch(ctx context.Context, in *PairRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, DiscoveryService_Unmatch_FullMethodName, in, opts)
}

func (c *DiscoveryServiceClient) ListIncoming(ctx context.Context, in *ListIncomingRequest, opts ...grpc.CallOption) (*ListIncomingResponse, error) {
	return invoke[ListIncomingResponse](ctx, c.cc, DiscoveryService_ListIncoming_FullMethodName, in, opts)
}

func (c *DiscoveryServiceClient) CountIncoming(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*CountResponse, error) {
	return invoke[CountResponse](ctx, c.cc, DiscoveryService_CountIncoming_FullMethodName, in, opts)
}

func (c *DiscoveryServiceClient) SubscribeEvents(ctx context.Context, in *SubscribeEventsRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Event], error) {
	stream, err := c.cc.NewStream(ctx, &DiscoveryService_ServiceDesc.Streams[0], DiscoveryService_SubscribeEvents_FullMethodName, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[SubscribeEventsRequest, Event]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
