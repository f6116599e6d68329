package grpc

import (
	"context"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func codeFor(kind common.Kind) codes.Code {
	switch kind {
	case common.KindValidation:
		return codes.InvalidArgument
	case common.KindAuthentication:
		return codes.Unauthenticated
	case common.KindAuthorization:
		return codes.PermissionDenied
	case common.KindConflict:
		return codes.AlreadyExists
	case common.KindNotFound:
		return codes.NotFound
	default:
		return codes.Internal
	}
}

// toStatus converts err to a gRPC status carrying only the public message.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	pub := common.Public(err)
	if pub.Kind == common.KindInternal {
		s.logger.Error(ctx, "rpc failed", "error", err)
	}
	return status.Error(codeFor(pub.Kind), pub.Message)
}
