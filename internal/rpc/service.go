package rpc

import (
	"context"

	"google.golang.org/grpc"

	"grab-a-time/internal/model"
)

const serviceName = "grabatime.v1.MeetingService"

// Full method names, as seen by interceptors.
const (
	MethodRegister      = "/" + serviceName + "/Register"
	MethodLogin         = "/" + serviceName + "/Login"
	MethodListMeetings  = "/" + serviceName + "/ListMeetings"
	MethodGetMeeting    = "/" + serviceName + "/GetMeeting"
	MethodCancelMeeting = "/" + serviceName + "/CancelMeeting"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	OwnerID      string `json:"owner_id"`
	Name         string `json:"name"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ListMeetingsRequest bounds are optional timestamps with an offset.
type ListMeetingsRequest struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

type ListMeetingsResponse struct {
	Meetings []model.MeetingInfo `json:"meetings"`
}

type GetMeetingRequest struct {
	Handle string `json:"handle"`
}

type MeetingResponse struct {
	Meeting model.MeetingInfo `json:"meeting"`
}

type CancelMeetingRequest struct {
	Handle string `json:"handle"`
}

type CancelMeetingResponse struct {
	Handle string `json:"handle"`
	Status string `json:"status"`
}

// MeetingServiceServer is implemented by Server.
type MeetingServiceServer interface {
	Register(context.Context, *RegisterRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	ListMeetings(context.Context, *ListMeetingsRequest) (*ListMeetingsResponse, error)
	GetMeeting(context.Context, *GetMeetingRequest) (*MeetingResponse, error)
	CancelMeeting(context.Context, *CancelMeetingRequest) (*CancelMeetingResponse, error)
}

// unary builds a method descriptor that decodes Req and dispatches through
// the interceptor chain.
func unary[Req any, Resp any](name string, call func(MeetingServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MeetingServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(MeetingServiceServer), ctx, req.(*Req))
			})
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*MeetingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", MeetingServiceServer.Register),
		unary("Login", MeetingServiceServer.Login),
		unary("ListMeetings", MeetingServiceServer.ListMeetings),
		unary("GetMeeting", MeetingServiceServer.GetMeeting),
		unary("CancelMeeting", MeetingServiceServer.CancelMeeting),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "grabatime/v1/meeting.proto",
}

func RegisterMeetingServiceServer(s grpc.ServiceRegistrar, srv MeetingServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls MeetingService with the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, MethodRegister, in, opts)
}

func (c *Client) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *Client) ListMeetings(ctx context.Context, in *ListMeetingsRequest, opts ...grpc.CallOption) (*ListMeetingsResponse, error) {
	return invoke[ListMeetingsResponse](ctx, c.cc, MethodListMeetings, in, opts)
}

func (c *Client) GetMeeting(ctx context.Context, in *GetMeetingRequest, opts ...grpc.CallOption) (*MeetingResponse, error) {
	return invoke[MeetingResponse](ctx, c.cc, MethodGetMeeting, in, opts)
}

func (c *Client) CancelMeeting(ctx context.Context, in *CancelMeetingRequest, opts ...grpc.CallOption) (*CancelMeetingResponse, error) {
	return invoke[CancelMeetingResponse](ctx, c.cc, MethodCancelMeeting, in, opts)
}
