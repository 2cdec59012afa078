package rpc

import (
	"context"

	"google.golang.org/grpc/metadata"
)

const correlationIDKey = "x-correlation-id"

func metadataCorrelationID(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	values := md.Get(correlationIDKey)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}
