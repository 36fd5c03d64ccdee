package rpc

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"storyboarder/internal/fanout"
	"storyboarder/internal/gateway/session"
	llmclient "storyboarder/internal/llmClient"
	"storyboarder/internal/reconcile"
	"storyboarder/internal/workflow"
)

func codeOf(err error) connect.Code {
	var (
		ve *workflow.ValidationError
		ge *llmclient.GenerationError
		pe *fanout.PartialBatchError
	)
	switch {
	case errors.As(err, &ve),
		errors.Is(err, reconcile.ErrIndexOutOfRange),
		errors.Is(err, reconcile.ErrUnknownCategory),
		errors.Is(err, reconcile.ErrUnknownIdea):
		return connect.CodeInvalidArgument
	case errors.Is(err, session.ErrSessionNotFound):
		return connect.CodeNotFound
	case errors.Is(err, workflow.ErrWrongStage), errors.Is(err, workflow.ErrNoPrevious):
		return connect.CodeFailedPrecondition
	case errors.Is(err, workflow.ErrBusy):
		return connect.CodeAborted
	case errors.As(err, &ge), errors.As(err, &pe):
		return connect.CodeUnavailable
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	}
	return connect.CodeInternal
}

func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var ce *connect.Error
	if errors.As(err, &ce) {
		return err
	}
	return connect.NewError(codeOf(err), err)
}
