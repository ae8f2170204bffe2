package quota

import "errors"

var (
	ErrStoreUnavailable     = errors.New("quota: counter store unavailable")
	ErrInvalidLimit         = errors.New("quota: invalid limit")
	ErrUnknownCategory      = errors.New("quota: unknown category")
	ErrUnknownOperationType = errors.New("quota: unknown operation type")
	ErrIncompleteCatalog    = errors.New("quota: operation type has no category")
	ErrInvalidPeriod        = errors.New("quota: invalid period")
)

var ErrUsageNotSupported = errors.New("quota: counter does not support usage reads")
