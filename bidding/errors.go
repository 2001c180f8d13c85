package bidding

import "fmt"

// Stage is a step of the bid submission pipeline
type Stage uint8

const (
	StagePrecondition Stage = iota + 1
	StageEncryption
	StageSubmission
	StageConfirmation
)

var stageNames = map[Stage]string{
	StagePrecondition: "precondition",
	StageEncryption:   "encryption",
	StageSubmission:   "submission",
	StageConfirmation: "confirmation",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", uint8(s))
}

// StageError is returned by every pipeline operation. Err is one of
// models.ValidationError, models.CannotCancelError, models.TransitionError,
// fhe.ErrEncryptionFailed, fhe.ErrProviderUnavailable, chain.RevertedError,
// chain.ErrConfirmationTimeout or a context error.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func (e *StageError) Cause() error {
	return e.Err
}

func stageError(stage Stage, err error) error {
	pipelineFailures.WithLabelValues(stage.String()).Inc()
	return &StageError{Stage: stage, Err: err}
}
