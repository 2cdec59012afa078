package rpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/navicore/specsvc/internal/domain"
)

// statusFor maps the domain error taxonomy to a gRPC status code, per
// spec.md §7's RPC mapping table.
func statusFor(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrSpecNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidStateTransition), errors.Is(err, domain.ErrInvalidStateForOperation):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrVersionMismatch):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, domain.ErrDuplicateSpecName):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
