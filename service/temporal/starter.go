package temporal

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrAlreadyStarted is returned when a workflow with the same id is running
// or has already completed.
var ErrAlreadyStarted = errors.New("workflow already started")

// ErrWorkflowNotFound is returned when no workflow has the requested id.
var ErrWorkflowNotFound = errors.New("workflow not found")

// WorkflowStatus describes a started workflow.
type WorkflowStatus struct {
	WorkflowID string          `json:"workflow_id"`
	Status     string          `json:"status"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Starter starts card workflows and reports on them.
type Starter interface {
	// StartMintCard starts a MintCardWorkflow. Minting a card that is
	// already being minted, or was minted, returns ErrAlreadyStarted.
	StartMintCard(ctx context.Context, input MintCardInput) (string, error)

	// StartScanWallet starts a ScanWalletWorkflow.
	StartScanWallet(ctx context.Context, input ScanWalletInput) (string, error)

	// DescribeWorkflow reports the status of a workflow, with its result
	// once it has finished.
	DescribeWorkflow(ctx context.Context, workflowID string) (*WorkflowStatus, error)
}

func mintWorkflowID(signature string) string {
	return "mint-card-" + signature
}
