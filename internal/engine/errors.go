package engine

import "fmt"

// InternalError reports an analyzer failure on one file. It never escapes
// AnalyzeFile as a returned error; it is recorded on the stage status and
// the stage contributes no findings.
type InternalError struct {
	Stage string
	Path  string
	Cause error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s stage failed on %s: %v", e.Stage, e.Path, e.Cause)
}

func (e *InternalError) Unwrap() error { return e.Cause }
