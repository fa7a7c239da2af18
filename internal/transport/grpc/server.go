package grpcx

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
	"github.com/cwrk-planet/coderoom/internal/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type RoomSvc interface {
	CreateRoom(ctx context.Context) (service.CreatedRoom, error)
	GetRoom(ctx context.Context, roomID string) (domain.Session, error)
}

type Server struct {
	rooms RoomSvc
}

func NewServer(rooms RoomSvc) *Server {
	return &Server{rooms: rooms}
}

// New builds a grpc.Server with the room service, health checks and interceptors installed.
func New(s *Server, defaultTimeout time.Duration) (*grpc.Server, *health.Server) {
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(UnaryServerInterceptor(defaultTimeout)),
		grpc.ChainStreamInterceptor(StreamServerInterceptor()),
	)
	Register(gs, s)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
	return gs, hs
}

func Register(gs *grpc.Server, s *Server) {
	gs.RegisterService(&RoomServiceDesc, s)
}

// CreateRoom takes an empty struct and returns {roomId, sessionId, shareLink, hostToken, createdAt}.
func (s *Server) CreateRoom(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	created, err := s.rooms.CreateRoom(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	return toStruct(map[string]any{
		"roomId":             created.RoomID,
		"sessionId":          created.SessionID,
		"shareLink":          created.ShareLink,
		"hostToken":          created.HostToken,
		"hostTokenExpiresAt": created.HostTokenExpiresAt.UTC().Format(time.RFC3339Nano),
		"createdAt":          created.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

// GetRoom takes {roomId} and returns the room state.
func (s *Server) GetRoom(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	roomID := strings.TrimSpace(in.GetFields()["roomId"].GetStringValue())
	if roomID == "" {
		return nil, status.Error(codes.InvalidArgument, "roomId is required")
	}
	sess, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, mapErr(err)
	}

	parts := make([]any, 0, len(sess.Participants))
	for _, p := range sess.Participants {
		parts = append(parts, map[string]any{
			"userId":      p.ConnectionID,
			"displayName": p.DisplayName,
			"joinedAt":    p.JoinedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return toStruct(map[string]any{
		"roomId":       sess.RoomID,
		"code":         sess.Code,
		"language":     sess.Language,
		"participants": parts,
		"createdAt":    sess.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrRoomIDExhausted):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
