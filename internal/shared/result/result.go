// Package result reports the outcome of best-effort side effects that must not
// fail the operation that triggered them.
package result

// Result is either CoreOperationSucceeded or SideEffectFailed.
type Result struct {
	failed bool
	reason string
}

// CoreOperationSucceeded reports that every side effect completed.
func CoreOperationSucceeded() Result { return Result{} }

// SideEffectFailed reports that the core operation completed but a side effect did not.
func SideEffectFailed(reason string) Result {
	return Result{failed: true, reason: reason}
}

// OK reports whether every side effect completed.
func (r Result) OK() bool { return !r.failed }

// Reason is empty when OK.
func (r Result) Reason() string { return r.reason }

func (r Result) String() string {
	if r.failed {
		return "side_effect_failed: " + r.reason
	}
	return "core_operation_succeeded"
}
