package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/quota"
)

// Status is the outcome of a metered operation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// OperationLog is an append-only record of one attempted operation.
// It is telemetry and is never consulted for admission.
type OperationLog struct {
	ID               uuid.UUID           `json:"id"`
	AccountID        uuid.UUID           `json:"accountId"`
	CredentialID     string              `json:"credentialId,omitempty"`
	OperationType    quota.OperationType `json:"operationType"`
	Status           Status              `json:"status"`
	InputFiles       int                 `json:"inputFiles,omitempty"`
	InputSize        int64               `json:"inputSize"`
	OutputSize       int64               `json:"outputSize"`
	ProcessingTimeMs int64               `json:"processingTimeMs"`
	ErrorMessage     string              `json:"errorMessage,omitempty"`
	Metadata         map[string]any      `json:"metadata,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
}

// Validate checks the fields every sink relies on.
func (l OperationLog) Validate() error {
	if l.AccountID == uuid.Nil {
		return fmt.Errorf("%w: account id is required", ErrInvalidLog)
	}
	if l.OperationType == "" {
		return fmt.Errorf("%w: operation type is required", ErrInvalidLog)
	}
	if l.Status != StatusSuccess && l.Status != StatusFailed {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidLog, l.Status)
	}
	return nil
}
