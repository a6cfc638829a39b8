// Service descriptor for the resolver gRPC API
package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "aroresolve.v1.ResolverService"

// Method names of the resolver service
const (
	MethodResolveByAccession = "ResolveByAccession"
	MethodResolveByName      = "ResolveByName"
	MethodResolveFreeText    = "ResolveFreeText"
	MethodSearch             = "Search"
	MethodGetEntry           = "GetEntry"
	MethodParents            = "Parents"
	MethodChildren           = "Children"
	MethodAncestors          = "Ancestors"
	MethodRelated            = "Related"
	MethodReload             = "Reload"
	MethodHealth             = "Health"
	MethodStats              = "Stats"
)

// ResolverServiceServer is the server API of the resolver service. Requests
// and responses are google.protobuf.Struct messages; see server.go for
// their fields.
type ResolverServiceServer interface {
	ResolveByAccession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResolveByName(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResolveFreeText(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Search(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEntry(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Parents(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Children(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ancestors(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Related(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reload(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Health(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Stats(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structMethod func(ResolverServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, call structMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ResolverServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ResolverServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ResolverServiceDesc describes the service for grpc.Server.RegisterService
var ResolverServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ResolverServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(MethodResolveByAccession, ResolverServiceServer.ResolveByAccession),
		unaryMethod(MethodResolveByName, ResolverServiceServer.ResolveByName),
		unaryMethod(MethodResolveFreeText, ResolverServiceServer.ResolveFreeText),
		unaryMethod(MethodSearch, ResolverServiceServer.Search),
		unaryMethod(MethodGetEntry, ResolverServiceServer.GetEntry),
		unaryMethod(MethodParents, ResolverServiceServer.Parents),
		unaryMethod(MethodChildren, ResolverServiceServer.Children),
		unaryMethod(MethodAncestors, ResolverServiceServer.Ancestors),
		unaryMethod(MethodRelated, ResolverServiceServer.Related),
		unaryMethod(MethodReload, ResolverServiceServer.Reload),
		unaryMethod(MethodHealth, ResolverServiceServer.Health),
		unaryMethod(MethodStats, ResolverServiceServer.Stats),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "aroresolve/v1/resolver.proto",
}

// RegisterResolverServiceServer registers srv on s
func RegisterResolverServiceServer(s grpc.ServiceRegistrar, srv ResolverServiceServer) {
	s.RegisterService(&ResolverServiceDesc, srv)
}

// FullMethod returns the gRPC path of a method
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// Client calls the resolver service over a connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with a request built from fields
func (c *Client) Call(ctx context.Context, method string, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
