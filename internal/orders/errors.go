package orders

import "errors"

var (
	ErrInvalidRequest        = errors.New("invalid order request")
	ErrOrderSubmissionFailed = errors.New("order submission failed")
	ErrNotFound              = errors.New("order not found")
	ErrStatusConflict        = errors.New("order status conflict")
	ErrReorderUnavailable    = errors.New("reorder unavailable")
)

// SubmissionError wraps the remote cause of a failed order submission.
// errors.Is(err, ErrOrderSubmissionFailed) holds for every SubmissionError.
type SubmissionError struct {
	Cause error
}

func (e *SubmissionError) Error() string {
	return ErrOrderSubmissionFailed.Error() + ": " + e.Cause.Error()
}

func (e *SubmissionError) Unwrap() error {
	return e.Cause
}

func (e *SubmissionError) Is(target error) bool {
	return target == ErrOrderSubmissionFailed
}
