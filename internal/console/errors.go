package console

import "errors"

// 前置条件错误：在任何网络调用之前检查
var (
	ErrNoPendingChanges       = errors.New("no pending changes")
	ErrNoPendingConfirmation  = errors.New("no submission awaiting confirmation")
	ErrConfirmationPending    = errors.New("a submission is awaiting confirmation")
	ErrSubmitInFlight         = errors.New("a submission is already in progress")
	ErrModeLocked             = errors.New("another mode is active")
	ErrWrongMode              = errors.New("operation not available in the current mode")
	ErrCheckerNameRequired    = errors.New("checker name is required")
	ErrNoActivePatrol         = errors.New("no active patrol session")
	ErrPatrolAlreadyActive    = errors.New("a patrol session is already active")
	ErrForceEndUnacknowledged = errors.New("previous patrol was force-ended; dismiss the notice first")
	ErrConfirmationRequired   = errors.New("operator confirmation is required")
	ErrInvalidCategory        = errors.New("invalid observation category")
	ErrInvalidChoice          = errors.New("invalid attendance choice")
	ErrObservationNotFound    = errors.New("observation not found in the active session")
	ErrInvalidPeriod          = errors.New("period must be between 1 and 7")
	ErrLateBatchPeriod        = errors.New("late batch is only available in period 1")
	ErrUnknownStudent         = errors.New("unknown student")
	ErrNotHighSchool          = errors.New("school attendance applies to high-school students only")
)
