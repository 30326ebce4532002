package restore

import (
	"context"

	"github.com/blackwell-systems/pkgsnap/internal/pkgmgr"
)

// Policy decides how the executor reacts to a failed operation.
type Policy int

const (
	// ContinueOnError keeps executing the remaining operations.
	ContinueOnError Policy = iota
	// AbortOnError stops at the first failure.
	AbortOnError
)

// Status classifies the result of one operation.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// NotAttemptedDetail marks operations that never ran because execution
// stopped early.
const NotAttemptedDetail = "not attempted"

// Outcome is the per-operation result. Detail carries the adapter's error
// text for failed operations and is empty otherwise.
type Outcome struct {
	Operation Operation
	Status    Status
	Detail    string
}

// OverallStatus summarizes a whole report.
type OverallStatus string

const (
	OverallSuccess        OverallStatus = "success"
	OverallPartialSuccess OverallStatus = "partial-success"
	OverallAborted        OverallStatus = "aborted"
)

// Report is the full record of one plan execution, in plan order.
type Report struct {
	Outcomes []Outcome
	Overall  OverallStatus
}

// FailedOperations returns the operations that failed (excluding the
// not-attempted remainder of an abort), as a plan suitable for retry.
// Replaying is safe: operations whose post-condition already holds are
// skipped.
func (r *Report) FailedOperations() Plan {
	var failed Plan
	for _, outcome := range r.Outcomes {
		if outcome.Status == StatusFailed && outcome.Detail != NotAttemptedDetail {
			failed = append(failed, outcome.Operation)
		}
	}
	return failed
}

// Execute applies a plan strictly in order, one operation at a time.
//
// Before each adapter call the executor checks a live view of the installed
// set (taken once up front, kept current as operations succeed) and records
// Skipped without touching the adapter when the operation's post-condition
// already holds, so replaying a plan is idempotent. Adapter failures are
// captured per operation, never raised: under ContinueOnError execution
// proceeds, under AbortOnError the remainder is recorded as not attempted.
// Cancellation is checked between operations only; an in-flight adapter
// call is never interrupted. The package manager offers no transaction
// boundary, so no compensating action is taken on failure.
func Execute(ctx context.Context, plan Plan, mgr pkgmgr.Manager, policy Policy) *Report {
	report := &Report{Outcomes: make([]Outcome, 0, len(plan))}

	view, haveView := liveView(mgr)

	aborted := false
	for i, op := range plan {
		select {
		case <-ctx.Done():
			report.Outcomes = append(report.Outcomes, notAttempted(plan[i:])...)
			aborted = true
		default:
		}
		if aborted {
			break
		}

		if haveView && satisfied(view, op) {
			report.Outcomes = append(report.Outcomes, Outcome{Operation: op, Status: StatusSkipped})
			continue
		}

		if err := apply(mgr, op); err != nil {
			report.Outcomes = append(report.Outcomes, Outcome{
				Operation: op,
				Status:    StatusFailed,
				Detail:    err.Error(),
			})
			if policy == AbortOnError {
				report.Outcomes = append(report.Outcomes, notAttempted(plan[i+1:])...)
				aborted = true
				break
			}
			continue
		}

		report.Outcomes = append(report.Outcomes, Outcome{Operation: op, Status: StatusSucceeded})
		if haveView {
			advance(view, op)
		}
	}

	report.Overall = overall(report.Outcomes, aborted)
	return report
}

// liveView asks the manager for the installed set once. If the listing
// fails the executor degrades to running every operation unconditionally.
func liveView(mgr pkgmgr.Manager) (map[string]string, bool) {
	records, err := mgr.ListInstalled()
	if err != nil {
		return nil, false
	}
	view := make(map[string]string, len(records))
	for _, record := range records {
		view[record.Name] = record.Version
	}
	return view, true
}

// satisfied reports whether an operation's post-condition already holds.
func satisfied(view map[string]string, op Operation) bool {
	version, installed := view[op.Name]
	switch op.Kind {
	case OpRemove:
		return !installed
	case OpInstall, OpChange:
		return installed && version == op.To
	default:
		return false
	}
}

// advance updates the live view after a successful operation.
func advance(view map[string]string, op Operation) {
	switch op.Kind {
	case OpRemove:
		delete(view, op.Name)
	case OpInstall, OpChange:
		view[op.Name] = op.To
	}
}

func apply(mgr pkgmgr.Manager, op Operation) error {
	switch op.Kind {
	case OpRemove:
		return mgr.Remove(op.Name)
	case OpInstall:
		return mgr.Install(op.Name, op.To)
	case OpChange:
		return mgr.ChangeVersion(op.Name, op.From, op.To)
	default:
		return &pkgmgr.AdapterError{ExitCode: -1, Message: "unknown operation kind " + string(op.Kind)}
	}
}

func notAttempted(remainder Plan) []Outcome {
	outcomes := make([]Outcome, 0, len(remainder))
	for _, op := range remainder {
		outcomes = append(outcomes, Outcome{
			Operation: op,
			Status:    StatusFailed,
			Detail:    NotAttemptedDetail,
		})
	}
	return outcomes
}

func overall(outcomes []Outcome, aborted bool) OverallStatus {
	if aborted {
		return OverallAborted
	}
	for _, outcome := range outcomes {
		if outcome.Status == StatusFailed {
			return OverallPartialSuccess
		}
	}
	return OverallSuccess
}
