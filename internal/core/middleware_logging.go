package core

import (
	"context"

	"diagramcore/pkg/domain"
)

type loggingMiddleware struct {
	logger Logger
}

// NewLoggingMiddleware logs a summary of each cycle's composite patch and
// forwards without contributing.
func NewLoggingMiddleware(logger Logger) Middleware {
	if logger == nil {
		logger = noopLogger{}
	}
	return loggingMiddleware{logger: logger}
}

func (m loggingMiddleware) Name() string { return LoggingMiddlewareName }

func (m loggingMiddleware) Execute(_ context.Context, mc *MiddlewareContext) (Outcome, error) {
	merged := domain.MergeUpdates(mc.History...)
	m.logger.Info("apply cycle",
		"action", string(mc.ActionType),
		"nodes_added", len(merged.NodesToAdd),
		"nodes_updated", len(merged.NodesToUpdate),
		"nodes_removed", len(merged.NodesToRemove),
		"edges_added", len(merged.EdgesToAdd),
		"edges_updated", len(merged.EdgesToUpdate),
		"edges_removed", len(merged.EdgesToRemove),
		"metadata_keys", len(merged.MetadataUpdate),
	)
	return Next(), nil
}
