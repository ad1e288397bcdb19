package pipeline

import "fmt"

// Stage is a step in processing one passage
type Stage string

const (
	StageDrafting   Stage = "drafting"
	StageParsing    Stage = "parsing"
	StageVerifying  Stage = "verifying"
	StageEnriching  Stage = "enriching"
	StagePersisting Stage = "persisting"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// StageError is a failure tied to the unit and stage it happened in
type StageError struct {
	Unit  string
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Unit, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
