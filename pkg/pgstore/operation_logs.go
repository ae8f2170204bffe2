package pgstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/audit"
)

var operationLogColumns = []string{
	"id", "account_id", "credential_id", "operation_type", "status",
	"input_files", "input_size", "output_size", "processing_time_ms",
	"error_message", "metadata", "created_at",
}

// WriteBatch implements audit.BatchWriter using the COPY protocol.
func (s *Store) WriteBatch(ctx context.Context, logs []audit.OperationLog) error {
	if len(logs) == 0 {
		return nil
	}

	n, err := s.db.CopyFrom(ctx, pgx.Identifier{"operation_logs"}, operationLogColumns,
		pgx.CopyFromSlice(len(logs), func(i int) ([]any, error) {
			l := logs[i]
			var metadata any
			if len(l.Metadata) > 0 {
				metadata = l.Metadata
			}
			return []any{
				l.ID, l.AccountID, l.CredentialID, string(l.OperationType), string(l.Status),
				l.InputFiles, l.InputSize, l.OutputSize, l.ProcessingTimeMs,
				l.ErrorMessage, metadata, l.CreatedAt,
			}, nil
		}),
	)
	if err != nil {
		return errors.Join(audit.ErrWriteFailed, err)
	}
	if n != int64(len(logs)) {
		return errors.Join(audit.ErrWriteFailed, errShortCopy)
	}
	return nil
}
