package grpc

import (
	"context"
	"encoding/json"

	"github.com/vibast-solutions/ms-go-contacts/app/entity"
	"github.com/vibast-solutions/ms-go-contacts/app/index"
	"github.com/vibast-solutions/ms-go-contacts/app/service"
	"github.com/vibast-solutions/ms-go-contacts/app/types"

	"github.com/sirupsen/logrus"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const ContactServiceName = "contacts.v1.ContactService"

// ContactServiceServer is the server API of contacts.v1.ContactService.
// Requests and responses are google.protobuf.Struct documents with the same
// JSON shape as the HTTP API.
type ContactServiceServer interface {
	Validate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Consume(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Remove(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Reset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(srv ContactServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) func(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ContactServiceServer), ctx, in)
		}
		info := &gogrpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + ContactServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ContactServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ContactServiceDesc = gogrpc.ServiceDesc{
	ServiceName: ContactServiceName,
	HandlerType: (*ContactServiceServer)(nil),
	Methods: []gogrpc.MethodDesc{
		{MethodName: "Validate", Handler: unaryHandler("Validate", ContactServiceServer.Validate)},
		{MethodName: "Consume", Handler: unaryHandler("Consume", ContactServiceServer.Consume)},
		{MethodName: "Remove", Handler: unaryHandler("Remove", ContactServiceServer.Remove)},
		{MethodName: "Reset", Handler: unaryHandler("Reset", ContactServiceServer.Reset)},
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "contacts/v1/contacts.proto",
}

func RegisterContactServiceServer(s gogrpc.ServiceRegistrar, srv ContactServiceServer) {
	s.RegisterService(&ContactServiceDesc, srv)
}

type resetter interface {
	Reset(source string)
}

type ContactServer struct {
	validator service.ContactValidator
	sink      service.ProfileSink
	admin     resetter
}

func NewContactServer(validator service.ContactValidator, sink service.ProfileSink, admin resetter) *ContactServer {
	return &ContactServer{
		validator: validator,
		sink:      sink,
		admin:     admin,
	}
}

func (s *ContactServer) Validate(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var body types.ValidateProfileRequest
	if err := decodeStruct(req, &body); err != nil {
		logrus.WithError(err).Debug("Failed to decode validate request (grpc)")
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}
	if err := body.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	profile := body.Profile()
	violations := s.validator.Validate(profile)

	return newStruct(map[string]any{
		"user_id":    profile.UserID,
		"valid":      len(violations) == 0,
		"violations": violationList(violations),
	})
}

func (s *ContactServer) Consume(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var body types.ConsumeProfilesRequest
	if err := decodeStruct(req, &body); err != nil {
		logrus.WithError(err).Debug("Failed to decode consume request (grpc)")
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}
	if err := body.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result := s.sink.ConsumeAll(service.SourceGRPC, body.Entities())
	return newStruct(map[string]any{
		"accepted": result.Accepted,
		"changed":  result.Changed,
	})
}

func (s *ContactServer) Remove(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var body types.RemoveProfileRequest
	if err := decodeStruct(req, &body); err != nil {
		logrus.WithError(err).Debug("Failed to decode remove request (grpc)")
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}
	if err := body.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	profile := body.Profile()
	res := s.sink.Remove(service.SourceGRPC, profile)
	return newStruct(map[string]any{
		"user_id": profile.UserID,
		"email":   res.For(index.ChannelEmail).String(),
		"mobile":  res.For(index.ChannelMobile).String(),
	})
}

func (s *ContactServer) Reset(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	s.admin.Reset(service.SourceGRPC)
	return newStruct(map[string]any{"message": "index reset"})
}

func decodeStruct(in *structpb.Struct, out any) error {
	if in == nil {
		in = &structpb.Struct{}
	}
	raw, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		logrus.WithError(err).Error("Failed to encode response (grpc)")
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return out, nil
}

func violationList(violations []entity.Violation) []any {
	out := make([]any, 0, len(violations))
	for _, v := range violations {
		out = append(out, string(v))
	}
	return out
}

// ContactServiceClient is a thin client for contacts.v1.ContactService.
type ContactServiceClient struct {
	cc gogrpc.ClientConnInterface
}

func NewContactServiceClient(cc gogrpc.ClientConnInterface) *ContactServiceClient {
	return &ContactServiceClient{cc: cc}
}

func (c *ContactServiceClient) Validate(ctx context.Context, req *structpb.Struct, opts ...gogrpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Validate", req, opts...)
}

func (c *ContactServiceClient) Consume(ctx context.Context, req *structpb.Struct, opts ...gogrpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Consume", req, opts...)
}

func (c *ContactServiceClient) Remove(ctx context.Context, req *structpb.Struct, opts ...gogrpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Remove", req, opts...)
}

func (c *ContactServiceClient) Reset(ctx context.Context, req *structpb.Struct, opts ...gogrpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Reset", req, opts...)
}

func (c *ContactServiceClient) invoke(ctx context.Context, method string, req *structpb.Struct, opts ...gogrpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ContactServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
