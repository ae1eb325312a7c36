package handler

import (
	"context"
	"errors"

	"github.com/ogurasousui/planner-assistant/internal/core/conversation"
	"github.com/ogurasousui/planner-assistant/internal/core/tool"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var kindCodes = map[tool.Kind]codes.Code{
	tool.KindNotFound:         codes.NotFound,
	tool.KindConflict:         codes.AlreadyExists,
	tool.KindInvalidRange:     codes.InvalidArgument,
	tool.KindInvalidArgument:  codes.InvalidArgument,
	tool.KindMissingParameter: codes.InvalidArgument,
	tool.KindWeekend:          codes.FailedPrecondition,
	tool.KindLocationMismatch: codes.FailedPrecondition,
	tool.KindUnsupported:      codes.Unimplemented,
}

func toStatusError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, conversation.ErrInvalidSessionID):
		return status.Error(codes.InvalidArgument, err.Error())
	}

	if code, ok := kindCodes[tool.Classify(err)]; ok {
		return status.Error(code, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}
