package rpc

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"grab-a-time/internal/account"
	"grab-a-time/internal/booking"
	"grab-a-time/internal/handle"
	"grab-a-time/internal/middleware"
	"grab-a-time/internal/model"
	"grab-a-time/internal/store"
)

type Server struct {
	meetings *booking.Service
	accounts *account.Service
	log      *zap.Logger
}

func NewServer(meetings *booking.Service, accounts *account.Service, log *zap.Logger) *Server {
	return &Server{meetings: meetings, accounts: accounts, log: log}
}

func owner(ctx context.Context) (string, error) {
	id, ok := middleware.OwnerIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "no owner in context")
	}
	return id, nil
}

// toStatus maps service errors onto gRPC codes. Anything unexpected is
// logged and hidden behind Internal.
func (s *Server) toStatus(method string, err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, handle.ErrInvalidHandle),
		errors.Is(err, model.ErrInvalidField),
		errors.Is(err, model.ErrInvalidTimestamp),
		errors.Is(err, model.ErrInvalidDuration),
		errors.Is(err, booking.ErrInPast),
		errors.Is(err, account.ErrInvalidInput):
		code = codes.InvalidArgument
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrOwnerNotFound):
		code = codes.NotFound
	case errors.Is(err, store.ErrSlotTaken),
		errors.Is(err, store.ErrDuplicateEmail):
		code = codes.AlreadyExists
	case errors.Is(err, account.ErrBadCredentials):
		code = codes.Unauthenticated
	default:
		s.log.Error("rpc failed", zap.String("method", method), zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}

func authResponse(sess *account.Session) *AuthResponse {
	return &AuthResponse{
		OwnerID:      sess.Owner.ID,
		Name:         sess.Owner.Name,
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
	}
}

func (s *Server) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	sess, err := s.accounts.Register(ctx, account.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return nil, s.toStatus("Register", err)
	}
	return authResponse(sess), nil
}

func (s *Server) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	sess, err := s.accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus("Login", err)
	}
	return authResponse(sess), nil
}

func (s *Server) ListMeetings(ctx context.Context, req *ListMeetingsRequest) (*ListMeetingsResponse, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}

	var from, to time.Time
	if req.From != "" {
		if from, err = model.ParseTimestamp(req.From); err != nil {
			return nil, s.toStatus("ListMeetings", err)
		}
	}
	if req.To != "" {
		if to, err = model.ParseTimestamp(req.To); err != nil {
			return nil, s.toStatus("ListMeetings", err)
		}
	}

	list, err := s.meetings.ListForOwner(ctx, ownerID, from, to)
	if err != nil {
		return nil, s.toStatus("ListMeetings", err)
	}
	out := &ListMeetingsResponse{Meetings: make([]model.MeetingInfo, 0, len(list))}
	for i := range list {
		out.Meetings = append(out.Meetings, list[i].Info())
	}
	return out, nil
}

func (s *Server) GetMeeting(ctx context.Context, req *GetMeetingRequest) (*MeetingResponse, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	m, err := s.meetings.GetForOwner(ctx, ownerID, req.Handle)
	if err != nil {
		return nil, s.toStatus("GetMeeting", err)
	}
	return &MeetingResponse{Meeting: m.Info()}, nil
}

func (s *Server) CancelMeeting(ctx context.Context, req *CancelMeetingRequest) (*CancelMeetingResponse, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.meetings.CancelForOwner(ctx, ownerID, req.Handle); err != nil {
		return nil, s.toStatus("CancelMeeting", err)
	}
	return &CancelMeetingResponse{Handle: req.Handle, Status: model.StatusCancelled}, nil
}
