package temporal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
)

// Client is a production implementation of Starter that talks to Temporal.
type Client struct {
	client    client.Client
	taskQueue string
	logger    *slog.Logger
}

// NewClient creates a new Temporal client.
func NewClient(host, namespace, taskQueue string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("connecting to temporal",
		"host", host,
		"namespace", namespace,
		"task_queue", taskQueue,
	)

	c, err := client.Dial(client.Options{
		HostPort:  host,
		Namespace: namespace,
		Logger:    newTemporalLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Temporal: %w", err)
	}

	logger.Info("connected to temporal successfully")

	return &Client{
		client:    c,
		taskQueue: taskQueue,
		logger:    logger,
	}, nil
}

// StartMintCard starts a MintCardWorkflow keyed by the card's signature. A
// failed mint may be retried; a running or completed one may not.
func (c *Client) StartMintCard(ctx context.Context, input MintCardInput) (string, error) {
	signature := input.Card.SourceSignature()
	if signature == "" {
		return "", fmt.Errorf("card has no transaction signature")
	}
	id := mintWorkflowID(signature)

	run, err := c.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                    id,
		TaskQueue:             c.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE_FAILED_ONLY,
		Memo: map[string]interface{}{
			"wallet":    input.Wallet,
			"signature": signature,
		},
	}, MintCardWorkflow, input)
	if err != nil {
		var started *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &started) {
			return id, ErrAlreadyStarted
		}
		c.logger.ErrorContext(ctx, "failed to start mint workflow",
			"workflow_id", id,
			"error", err,
		)
		return "", fmt.Errorf("failed to start mint workflow: %w", err)
	}

	c.logger.InfoContext(ctx, "mint workflow started",
		"workflow_id", run.GetID(),
		"run_id", run.GetRunID(),
		"wallet", input.Wallet,
	)
	return run.GetID(), nil
}

// StartScanWallet starts a ScanWalletWorkflow under a fresh id.
func (c *Client) StartScanWallet(ctx context.Context, input ScanWalletInput) (string, error) {
	id := fmt.Sprintf("scan-wallet-%s-%s", input.Wallet, uuid.NewString())

	run, err := c.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        id,
		TaskQueue: c.taskQueue,
	}, ScanWalletWorkflow, input)
	if err != nil {
		return "", fmt.Errorf("failed to start scan workflow: %w", err)
	}

	c.logger.InfoContext(ctx, "scan workflow started",
		"workflow_id", run.GetID(),
		"wallet", input.Wallet,
	)
	return run.GetID(), nil
}

// DescribeWorkflow reports a workflow's status. Finished workflows carry
// their result, or their error when they failed.
func (c *Client) DescribeWorkflow(ctx context.Context, workflowID string) (*WorkflowStatus, error) {
	desc, err := c.client.DescribeWorkflowExecution(ctx, workflowID, "")
	if err != nil {
		var notFound *serviceerror.NotFound
		if errors.As(err, &notFound) {
			return nil, ErrWorkflowNotFound
		}
		return nil, fmt.Errorf("failed to describe workflow %q: %w", workflowID, err)
	}

	status := &WorkflowStatus{
		WorkflowID: workflowID,
		Status:     statusName(desc.GetWorkflowExecutionInfo().GetStatus()),
	}
	if status.Status == "running" {
		return status, nil
	}

	var result json.RawMessage
	if err := c.client.GetWorkflow(ctx, workflowID, "").Get(ctx, &result); err != nil {
		status.Error = err.Error()
	} else {
		status.Result = result
	}
	return status, nil
}

func statusName(s enumspb.WorkflowExecutionStatus) string {
	switch s {
	case enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING:
		return "running"
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		return StatusCompleted
	case enumspb.WORKFLOW_EXECUTION_STATUS_FAILED:
		return StatusFailed
	case enumspb.WORKFLOW_EXECUTION_STATUS_CANCELED:
		return "canceled"
	case enumspb.WORKFLOW_EXECUTION_STATUS_TERMINATED:
		return "terminated"
	case enumspb.WORKFLOW_EXECUTION_STATUS_TIMED_OUT:
		return "timed_out"
	case enumspb.WORKFLOW_EXECUTION_STATUS_CONTINUED_AS_NEW:
		return "continued_as_new"
	default:
		return "unknown"
	}
}

// SDKClient returns the underlying Temporal SDK client for direct workflow operations.
func (c *Client) SDKClient() client.Client {
	return c.client
}

// TaskQueue returns the configured task queue for this client.
func (c *Client) TaskQueue() string {
	return c.taskQueue
}

// Close closes the Temporal client connection.
func (c *Client) Close() {
	c.logger.Info("closing temporal client")
	c.client.Close()
}
