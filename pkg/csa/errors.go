package csa

import "fmt"

// Action pipeline step names
const (
	StepTicket  = "ticket"
	StepPersist = "persist"
	StepEmail   = "email"
)

// ActionStepError reports which step of the action pipeline failed
type ActionStepError struct {
	Step string
	Err  error
}

func (e *ActionStepError) Error() string {
	return fmt.Sprintf("action step %s failed: %v", e.Step, e.Err)
}

func (e *ActionStepError) Unwrap() error {
	return e.Err
}
