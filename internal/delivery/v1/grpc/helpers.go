package grpc

import (
	"errors"

	"github.com/DRSN-tech/pos-backend/pkg/e"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GRPCErrorResponse переводит ошибку usecase в статус gRPC. Ошибки хранилища не раскрываются.
func GRPCErrorResponse(err error) error {
	switch {
	case errors.Is(err, e.ErrValidation):
		msg := e.ErrValidation.Error()
		if v, ok := e.AsValidation(err); ok {
			msg = v.Error()
		}
		return status.Error(codes.InvalidArgument, msg)
	case errors.Is(err, e.ErrNotFound):
		return status.Error(codes.NotFound, e.ErrNotFound.Error())
	case errors.Is(err, e.ErrInsufficientStock):
		return status.Error(codes.FailedPrecondition, e.ErrInsufficientStock.Error())
	case errors.Is(err, e.ErrTxConflict):
		return status.Error(codes.Aborted, e.ErrTxConflict.Error())
	default:
		return status.Error(codes.Internal, e.ErrInternalServerError.Error())
	}
}
