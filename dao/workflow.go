package dao

import (
	"context"

	"github.com/sdghub/backend/pkg/workflow"
)

// WorkflowStore adapts Store to the workflow package's transactional
// interface. The wrapper only exists to retype InTx's callback argument.
type WorkflowStore struct {
	*Store
}

func NewWorkflowStore(s *Store) WorkflowStore {
	return WorkflowStore{Store: s}
}

func (w WorkflowStore) InTx(ctx context.Context, fn func(tx workflow.Store) error) error {
	return w.Store.InTx(ctx, func(tx *Store) error {
		return fn(WorkflowStore{Store: tx})
	})
}
