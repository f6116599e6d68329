package admin

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	tokengrpc "github.com/dmitrijs2005/credkeeper/internal/server/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
)

const introspectTimeout = 5 * time.Second

func dialInsecure(addr string) (grpc.ClientConnInterface, io.Closer, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, err
	}
	return conn, conn, nil
}

// introspect asks a running server whether an access token is active and
// prints the answer as JSON.
func (a *App) introspect(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("introspect", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	addr := fs.String("addr", a.grpcAddr, "token service address")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%v: %w", err, ErrUsage)
	}
	if fs.NArg() != 1 {
		return ErrUsage
	}

	conn, closer, err := a.dial(*addr)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(ctx, introspectTimeout)
	defer cancel()

	res, err := tokengrpc.NewTokenServiceClient(conn).Introspect(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	out, err := protojson.Marshal(res)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, string(out))
	return nil
}
