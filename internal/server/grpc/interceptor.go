package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

type ctxKey string

const accountKey ctxKey = "account"

// protectedMethods need a bearer access token in the call metadata.
var protectedMethods = map[string]bool{
	WhoAmIMethod: true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	if protectedMethods[info.FullMethod] {

		a, err := s.auth.Authenticate(ctx, bearerFromMetadata(ctx))
		if err != nil {
			return nil, s.toStatus(ctx, err)
		}

		ctx = context.WithValue(ctx, accountKey, a)

	}

	return handler(ctx, req)
}

func bearerFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(common.AuthorizationHeaderName)
	if len(values) == 0 {
		return ""
	}
	scheme, token, ok := strings.Cut(values[0], " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}

func accountFrom(ctx context.Context) *models.Account {
	a, _ := ctx.Value(accountKey).(*models.Account)
	return a
}
