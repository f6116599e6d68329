// Package grpc serves token introspection to other backends.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/logging"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"github.com/dmitrijs2005/credkeeper/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Authenticator is the part of services.AuthService the gRPC layer calls.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.Account, error)
	Introspect(ctx context.Context, accessToken string) (*services.Introspection, error)
}

type GRPCServer struct {
	address string
	auth    Authenticator
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, auth Authenticator) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		auth:    auth,
	}
}

// newServer builds the gRPC server with the service and interceptors
// registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	RegisterTokenServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

func (s *GRPCServer) Introspect(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	res, err := s.auth.Introspect(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	fields := map[string]any{"active": res.Active}
	if res.Active {
		fields["sub"] = res.Subject
		fields["username"] = res.Username
		fields["exp"] = float64(res.ExpiresAt.Unix())
	}
	return structpb.NewStruct(fields)
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	a := accountFrom(ctx)
	if a == nil {
		return nil, s.toStatus(ctx, common.ErrNotAuthenticated)
	}

	fields := map[string]any{
		"sub":          a.ID,
		"username":     a.Username,
		"verified":     a.IsVerified,
		"pin_verified": a.PinVerified,
	}
	if a.Email != nil {
		fields["email"] = *a.Email
	}
	return structpb.NewStruct(fields)
}
