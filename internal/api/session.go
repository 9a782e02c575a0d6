package api

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oggyb/campus-match/internal/session"
)

const SessionServiceName = "campusmatch.v1.SessionService"

const (
	SessionService_GetSession_FullMethodName   = "/campusmatch.v1.SessionService/GetSession"
	SessionService_Transition_FullMethodName   = "/campusmatch.v1.SessionService/Transition"
	SessionService_ResetSession_FullMethodName = "/campusmatch.v1.SessionService/ResetSession"
)

type Session struct {
	UserID      uint64    `json:"user_id"`
	State       string    `json:"state"`
	Previous    string    `json:"previous,omitempty"`
	CandidateID uint64    `json:"candidate_id,omitempty"`
	Queue       []uint64  `json:"queue,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromSession(s session.Session) *Session {
	return &Session{
		UserID:      s.UserID,
		State:       string(s.State),
		Previous:    string(s.Previous),
		CandidateID: s.CandidateID,
		Queue:       s.Queue,
		UpdatedAt:   s.UpdatedAt,
	}
}

// TransitionRequest moves a user's session to State. CandidateID and Queue
// replace the stored payload when set.
type TransitionRequest struct {
	UserID      uint64   `json:"user_id" validate:"required"`
	State       string   `json:"state" validate:"required"`
	CandidateID *uint64  `json:"candidate_id,omitempty"`
	Queue       []uint64 `json:"queue,omitempty"`
}

type SessionServiceServer interface {
	GetSession(context.Context, *UserRequest) (*Session, error)
	Transition(context.Context, *TransitionRequest) (*Session, error)
	ResetSession(context.Context, *UserRequest) (*Empty, error)
}

type UnimplementedSessionServiceServer struct{}

func (UnimplementedSessionServiceServer) GetSession(context.Context, *UserRequest) (*Session, error) {
	return nil, status.Error(codes.Unimplemented, "method GetSession not implemented")
}
func (UnimplementedSessionServiceServer) Transition(context.Context, *TransitionRequest) (*Session, error) {
	return nil, status.Error(codes.Unimplemented, "method Transition not implemented")
}
func (UnimplementedSessionServiceServer) ResetSession(context.Context, *UserRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method ResetSession not implemented")
}

var SessionService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: SessionServiceName,
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSession", Handler: unary(SessionService_GetSession_FullMethodName, SessionServiceServer.GetSession)},
		{MethodName: "Transition", Handler: unary(SessionService_Transition_FullMethodName, SessionServiceServer.Transition)},
		{MethodName: "ResetSession", Handler: unary(SessionService_ResetSession_FullMethodName, SessionServiceServer.ResetSession)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "campusmatch/v1/session",
}

func RegisterSessionServiceServer(s grpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&SessionService_ServiceDesc, srv)
}

type SessionServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionServiceClient(cc grpc.ClientConnInterface) *SessionServiceClient {
	return &SessionServiceClient{cc: cc}
}

func (c *SessionServiceClient) GetSession(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*Session, error) {
	return invoke[Session](ctx, c.cc, SessionService_GetSession_FullMethodName, in, opts)
}

func (c *SessionServiceClient) Transition(ctx context.Context, in *TransitionRequest, opts ...grpc.CallOption) (*Session, error) {
	return invoke[Session](ctx, c.cc, SessionService_Transition_FullMethodName, in, opts)
}

func (c *SessionServiceClient) ResetSession(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, SessionService_ResetSession_FullMethodName, in, opts)
}
