package temporal

import (
	"context"
	"fmt"
	"sync"
)

// MockStarter is a mock implementation of Starter for testing.
type MockStarter struct {
	mu       sync.Mutex
	mints    []MintCardInput
	scans    []ScanWalletInput
	statuses map[string]*WorkflowStatus
	startErr error
}

// NewMockStarter creates a new MockStarter.
func NewMockStarter() *MockStarter {
	return &MockStarter{
		statuses: make(map[string]*WorkflowStatus),
	}
}

// StartMintCard records the mint. A second mint of the same card returns
// ErrAlreadyStarted.
func (m *MockStarter) StartMintCard(ctx context.Context, input MintCardInput) (string, error) {
	if m.startErr != nil {
		return "", m.startErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := mintWorkflowID(input.Card.SourceSignature())
	if _, ok := m.statuses[id]; ok {
		return id, ErrAlreadyStarted
	}
	m.mints = append(m.mints, input)
	m.statuses[id] = &WorkflowStatus{WorkflowID: id, Status: "running"}
	return id, nil
}

// StartScanWallet records the scan.
func (m *MockStarter) StartScanWallet(ctx context.Context, input ScanWalletInput) (string, error) {
	if m.startErr != nil {
		return "", m.startErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.scans = append(m.scans, input)
	id := fmt.Sprintf("scan-wallet-%s-%d", input.Wallet, len(m.scans))
	m.statuses[id] = &WorkflowStatus{WorkflowID: id, Status: "running"}
	return id, nil
}

// DescribeWorkflow returns the recorded status for id.
func (m *MockStarter) DescribeWorkflow(ctx context.Context, workflowID string) (*WorkflowStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status, ok := m.statuses[workflowID]
	if !ok {
		return nil, ErrWorkflowNotFound
	}
	out := *status
	return &out, nil
}

// SetStatus overrides the status reported for a workflow.
func (m *MockStarter) SetStatus(status *WorkflowStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[status.WorkflowID] = status
}

// SetStartError makes every start fail with err.
func (m *MockStarter) SetStartError(err error) {
	m.startErr = err
}

// Mints returns the mints started so far.
func (m *MockStarter) Mints() []MintCardInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MintCardInput(nil), m.mints...)
}

// Scans returns the scans started so far.
func (m *MockStarter) Scans() []ScanWalletInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ScanWalletInput(nil), m.scans...)
}
