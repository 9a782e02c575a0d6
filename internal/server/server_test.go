package server_test

import (
	"context"
	"net"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/oggyb/campus-match/internal/api"
	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/events"
	"github.com/oggyb/campus-match/internal/server"
	"github.com/oggyb/campus-match/internal/service/discovery"
	"github.com/oggyb/campus-match/internal/service/moderation"
	"github.com/oggyb/campus-match/internal/service/profile"
	"github.com/oggyb/campus-match/internal/service/session"
	"github.com/oggyb/campus-match/internal/testutil"
)

const operatorToken = "let-me-in"

// startServer serves every service over an in-memory listener and returns a client connection.
func startServer(t *testing.T, tokenHash string) (*app.AppContext, *grpc.ClientConn) {
	t.Helper()

	appCtx, _ := testutil.NewAppContext(t)
	srv := server.NewGRPCServer(server.Options{
		Logger:            appCtx.Logger,
		Metrics:           appCtx.Metrics,
		OperatorTokenHash: tokenHash,
		ShutdownTimeout:   time.Second,
	},
		profile.NewRegistrar(appCtx),
		discovery.NewRegistrar(appCtx),
		moderation.NewRegistrar(appCtx),
		session.NewRegistrar(appCtx),
	)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return appCtx, conn
}

func hashToken(t *testing.T) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(operatorToken), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func asOperator(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, api.OperatorMetadataKey, token)
}

func TestEndToEnd(t *testing.T) {
	appCtx, conn := startServer(t, hashToken(t))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	profiles := api.NewProfileServiceClient(conn)
	discover := api.NewDiscoveryServiceClient(conn)

	aff, err := profiles.CreateAffiliation(asOperator(ctx, operatorToken), &api.CreateAffiliationRequest{Name: "Harbor University", ShortName: "HU"})
	require.NoError(t, err)

	register := func(externalID int64, name, gender, lookingFor string) *api.Profile {
		p, err := profiles.RegisterProfile(ctx, &api.RegisterProfileRequest{
			ExternalID: externalID, Name: name, Age: 22, Gender: gender, LookingFor: lookingFor, AffiliationID: aff.ID,
		})
		require.NoError(t, err)
		return p
	}
	alice := register(1, "Alice", "female", "male")
	bob := register(2, "Bob", "male", "female")

	var header metadata.MD
	next, err := discover.NextCandidate(ctx, &api.UserRequest{UserID: alice.ID}, grpc.Header(&header))
	require.NoError(t, err)
	require.NotNil(t, next.Candidate)
	assert.Equal(t, bob.ID, next.Candidate.ID)
	assert.NotEmpty(t, header.Get(server.RequestIDKey), "every call gets a request id")

	stream, err := discover.SubscribeEvents(ctx, &api.SubscribeEventsRequest{UserID: bob.ID})
	require.NoError(t, err)
	_, err = stream.Header()
	require.NoError(t, err)

	_, err = discover.RecordInterest(ctx, &api.RecordInterestRequest{FromID: alice.ID, ToID: bob.ID, Positive: true, MarkViewed: true})
	require.NoError(t, err)

	ev, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, string(events.IncomingInterest), ev.Type)
	assert.Equal(t, int64(1), ev.Count)

	res, err := discover.RecordInterest(ctx, &api.RecordInterestRequest{FromID: bob.ID, ToID: alice.ID, Positive: true})
	require.NoError(t, err)
	assert.True(t, res.Match.Created)

	ev, err = stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, string(events.MatchCreated), ev.Type)
	assert.ElementsMatch(t, []uint64{alice.ID, bob.ID}, ev.UserIDs)

	assert.Positive(t, promtest.CollectAndCount(appCtx.Metrics.RPCDuration))
}

func TestOperatorAuth(t *testing.T) {
	_, conn := startServer(t, hashToken(t))
	ctx := context.Background()
	mod := api.NewModerationServiceClient(conn)

	_, err := mod.ListPendingReports(ctx, &api.ListPendingReportsRequest{})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = mod.ListPendingReports(asOperator(ctx, "wrong"), &api.ListPendingReportsRequest{})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	list, err := mod.ListPendingReports(asOperator(ctx, operatorToken), &api.ListPendingReportsRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Reports)

	// non-operator methods need no token
	op, err := mod.IsOperable(ctx, &api.UserRequest{UserID: 1})
	require.NoError(t, err)
	assert.False(t, op.Operable)
}

func TestOperatorAuthDisabled(t *testing.T) {
	_, conn := startServer(t, "")
	_, err := api.NewModerationServiceClient(conn).BanUser(asOperator(context.Background(), operatorToken), &api.UserRequest{UserID: 1})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestHealthAndValidation(t *testing.T) {
	_, conn := startServer(t, "")
	ctx := context.Background()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: api.DiscoveryServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	_, err = api.NewProfileServiceClient(conn).RegisterProfile(ctx, &api.RegisterProfileRequest{Name: "X"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	sess, err := api.NewSessionServiceClient(conn).GetSession(ctx, &api.UserRequest{UserID: 3})
	require.NoError(t, err)
	assert.Equal(t, "idle", sess.State)
}
