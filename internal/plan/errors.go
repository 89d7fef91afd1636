package plan

import "fmt"

// ArityError reports a constructor invoked with the wrong number of children
// for its operator kind
type ArityError struct {
	Kind Kind
	Got  int
	Want string // human-readable arity expectation
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s node requires %s, got %d", e.Kind, e.Want, e.Got)
}

// InvalidHandleError reports a handle that this graph never issued
type InvalidHandleError struct {
	Handle  Handle
	Context string // operator kind or operation being constructed (optional)
}

func (e *InvalidHandleError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("invalid plan node handle %d while building %s", e.Handle, e.Context)
	}
	return fmt.Sprintf("invalid plan node handle %d", e.Handle)
}
