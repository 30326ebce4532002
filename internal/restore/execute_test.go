package restore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/blackwell-systems/pkgsnap/internal/pkgmgr"
	"github.com/blackwell-systems/pkgsnap/internal/snapshot"
)

// scriptedManager implements pkgmgr.Manager over an in-memory package set.
// Mutations are applied to the set and logged; names listed in failures
// fail with a canned AdapterError instead.
type scriptedManager struct {
	installed map[string]string
	failures  map[string]string // name -> error message
	calls     []string
	listErr   error
}

func newScriptedManager(installed map[string]string) *scriptedManager {
	state := make(map[string]string, len(installed))
	for name, version := range installed {
		state[name] = version
	}
	return &scriptedManager{installed: state, failures: make(map[string]string)}
}

func (m *scriptedManager) Kind() pkgmgr.Kind   { return pkgmgr.KindApt }
func (m *scriptedManager) DatabaseDir() string { return "/var/lib/dpkg" }

func (m *scriptedManager) ListInstalled() ([]pkgmgr.PackageRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	names := make([]string, 0, len(m.installed))
	for name := range m.installed {
		names = append(names, name)
	}
	sort.Strings(names)
	records := make([]pkgmgr.PackageRecord, 0, len(names))
	for _, name := range names {
		records = append(records, pkgmgr.PackageRecord{Name: name, Version: m.installed[name]})
	}
	return records, nil
}

func (m *scriptedManager) fail(name string) error {
	if msg, ok := m.failures[name]; ok {
		return &pkgmgr.AdapterError{ExitCode: 100, Message: msg}
	}
	return nil
}

func (m *scriptedManager) Install(name, version string) error {
	m.calls = append(m.calls, fmt.Sprintf("install %s %s", name, version))
	if err := m.fail(name); err != nil {
		return err
	}
	m.installed[name] = version
	return nil
}

func (m *scriptedManager) Remove(name string) error {
	m.calls = append(m.calls, "remove "+name)
	if err := m.fail(name); err != nil {
		return err
	}
	delete(m.installed, name)
	return nil
}

func (m *scriptedManager) ChangeVersion(name, from, to string) error {
	m.calls = append(m.calls, fmt.Sprintf("change %s %s %s", name, from, to))
	if err := m.fail(name); err != nil {
		return err
	}
	m.installed[name] = to
	return nil
}

// mutatingCalls counts adapter invocations excluding ListInstalled.
func (m *scriptedManager) mutatingCalls() int { return len(m.calls) }

func scenarioPlan() Plan {
	return Plan{
		{Kind: OpRemove, Name: "curl", From: "7.68"},
		{Kind: OpInstall, Name: "git", To: "2.30"},
		{Kind: OpChange, Name: "vim", From: "8.2", To: "8.3"},
	}
}

func TestExecuteSuccess(t *testing.T) {
	mgr := newScriptedManager(map[string]string{"vim": "8.2", "curl": "7.68"})

	report := Execute(context.Background(), scenarioPlan(), mgr, ContinueOnError)

	if report.Overall != OverallSuccess {
		t.Errorf("Expected overall success, got %q", report.Overall)
	}

	for i, outcome := range report.Outcomes {
		if outcome.Status != StatusSucceeded {
			t.Errorf("Expected outcome %d succeeded, got %q (%s)", i, outcome.Status, outcome.Detail)
		}
	}

	if _, ok := mgr.installed["curl"]; ok {
		t.Error("Expected curl to be removed")
	}
	if mgr.installed["git"] != "2.30" {
		t.Errorf("Expected git 2.30, got %q", mgr.installed["git"])
	}
	if mgr.installed["vim"] != "8.3" {
		t.Errorf("Expected vim 8.3, got %q", mgr.installed["vim"])
	}
}

func TestExecutePartialFailureContinues(t *testing.T) {
	mgr := newScriptedManager(map[string]string{"vim": "8.2", "curl": "7.68"})
	mgr.failures["curl"] = "dpkg lock held"

	report := Execute(context.Background(), scenarioPlan(), mgr, ContinueOnError)

	if report.Overall != OverallPartialSuccess {
		t.Errorf("Expected partial success, got %q", report.Overall)
	}

	if len(report.Outcomes) != 3 {
		t.Fatalf("Expected 3 outcomes, got %d", len(report.Outcomes))
	}

	if report.Outcomes[0].Status != StatusFailed {
		t.Errorf("Expected curl outcome failed, got %q", report.Outcomes[0].Status)
	}
	if !strings.Contains(report.Outcomes[0].Detail, "dpkg lock held") {
		t.Errorf("Expected adapter error detail, got %q", report.Outcomes[0].Detail)
	}
	if report.Outcomes[1].Status != StatusSucceeded || report.Outcomes[2].Status != StatusSucceeded {
		t.Errorf("Expected remaining operations to succeed, got %q and %q",
			report.Outcomes[1].Status, report.Outcomes[2].Status)
	}

	failed := report.FailedOperations()
	if len(failed) != 1 || failed[0].Name != "curl" {
		t.Errorf("Expected failed-operation plan [curl], got %v", failed)
	}
}

func TestExecuteAbortPolicy(t *testing.T) {
	mgr := newScriptedManager(map[string]string{"vim": "8.2", "curl": "7.68"})
	mgr.failures["curl"] = "dpkg lock held"

	report := Execute(context.Background(), scenarioPlan(), mgr, AbortOnError)

	if report.Overall != OverallAborted {
		t.Errorf("Expected aborted, got %q", report.Overall)
	}

	if len(report.Outcomes) != 3 {
		t.Fatalf("Expected 3 outcomes, got %d", len(report.Outcomes))
	}

	if report.Outcomes[0].Status != StatusFailed {
		t.Errorf("Expected first outcome failed, got %q", report.Outcomes[0].Status)
	}
	for _, outcome := range report.Outcomes[1:] {
		if outcome.Status != StatusFailed || outcome.Detail != NotAttemptedDetail {
			t.Errorf("Expected not-attempted outcome for %s, got %q (%s)",
				outcome.Operation.Name, outcome.Status, outcome.Detail)
		}
	}

	// Nothing after the failure may reach the adapter.
	if mgr.mutatingCalls() != 1 {
		t.Errorf("Expected exactly 1 adapter call, got %d: %v", mgr.mutatingCalls(), mgr.calls)
	}

	// The not-attempted remainder is not a retryable failure set.
	if failed := report.FailedOperations(); len(failed) != 1 {
		t.Errorf("Expected 1 retryable failure, got %v", failed)
	}
}

func TestExecuteIdempotentReplay(t *testing.T) {
	mgr := newScriptedManager(map[string]string{"vim": "8.2", "curl": "7.68"})
	plan := scenarioPlan()

	first := Execute(context.Background(), plan, mgr, ContinueOnError)
	if first.Overall != OverallSuccess {
		t.Fatalf("Expected first run to succeed, got %q", first.Overall)
	}

	callsAfterFirst := mgr.mutatingCalls()

	second := Execute(context.Background(), plan, mgr, ContinueOnError)
	if second.Overall != OverallSuccess {
		t.Errorf("Expected second run overall success, got %q", second.Overall)
	}

	for i, outcome := range second.Outcomes {
		if outcome.Status != StatusSkipped {
			t.Errorf("Expected outcome %d skipped on replay, got %q", i, outcome.Status)
		}
	}

	if mgr.mutatingCalls() != callsAfterFirst {
		t.Errorf("Expected zero mutating calls on replay, got %d extra",
			mgr.mutatingCalls()-callsAfterFirst)
	}
}

func TestExecuteSkipsAlreadySatisfiedOperations(t *testing.T) {
	// curl already gone, vim already at target; only git needs work.
	mgr := newScriptedManager(map[string]string{"vim": "8.3"})

	report := Execute(context.Background(), scenarioPlan(), mgr, ContinueOnError)

	if report.Overall != OverallSuccess {
		t.Errorf("Expected success, got %q", report.Overall)
	}
	if report.Outcomes[0].Status != StatusSkipped {
		t.Errorf("Expected remove curl skipped, got %q", report.Outcomes[0].Status)
	}
	if report.Outcomes[1].Status != StatusSucceeded {
		t.Errorf("Expected install git succeeded, got %q", report.Outcomes[1].Status)
	}
	if report.Outcomes[2].Status != StatusSkipped {
		t.Errorf("Expected change vim skipped, got %q", report.Outcomes[2].Status)
	}

	if mgr.mutatingCalls() != 1 {
		t.Errorf("Expected 1 adapter call, got %d: %v", mgr.mutatingCalls(), mgr.calls)
	}
}

func TestExecuteCancelledBeforeStart(t *testing.T) {
	mgr := newScriptedManager(map[string]string{"vim": "8.2", "curl": "7.68"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := Execute(ctx, scenarioPlan(), mgr, ContinueOnError)

	if report.Overall != OverallAborted {
		t.Errorf("Expected aborted on cancellation, got %q", report.Overall)
	}

	for _, outcome := range report.Outcomes {
		if outcome.Status != StatusFailed || outcome.Detail != NotAttemptedDetail {
			t.Errorf("Expected not-attempted outcome, got %q (%s)", outcome.Status, outcome.Detail)
		}
	}

	if mgr.mutatingCalls() != 0 {
		t.Errorf("Expected no adapter calls after cancellation, got %v", mgr.calls)
	}
}

func TestExecuteWithoutLiveViewRunsEverything(t *testing.T) {
	mgr := newScriptedManager(map[string]string{"vim": "8.3"})
	mgr.listErr = &pkgmgr.AdapterError{ExitCode: 1, Message: "listing unavailable"}

	report := Execute(context.Background(), scenarioPlan(), mgr, ContinueOnError)

	// With no live view there is no skip pre-check: every operation runs.
	if mgr.mutatingCalls() != 3 {
		t.Errorf("Expected 3 adapter calls, got %d: %v", mgr.mutatingCalls(), mgr.calls)
	}
	if report.Overall != OverallSuccess {
		t.Errorf("Expected success, got %q", report.Overall)
	}
}

// Applying plan(diff(A,B)) and then plan(diff(B,A)) must return the host to
// its starting state.
func TestExecuteRoundTrip(t *testing.T) {
	stateA := map[string]string{"vim": "8.2", "curl": "7.68", "bash": "5.1"}
	stateB := map[string]string{"vim": "8.3", "git": "2.30", "bash": "5.1"}

	snapA := &snapshot.Snapshot{Packages: toRecords(stateA)}
	snapB := &snapshot.Snapshot{Packages: toRecords(stateB)}

	mgr := newScriptedManager(stateA)

	forward, err := BuildPlan(snapshot.Diff(snapA, snapB))
	if err != nil {
		t.Fatalf("BuildPlan forward failed: %v", err)
	}
	if report := Execute(context.Background(), forward, mgr, ContinueOnError); report.Overall != OverallSuccess {
		t.Fatalf("Forward execution failed: %+v", report)
	}

	backward, err := BuildPlan(snapshot.Diff(snapB, snapA))
	if err != nil {
		t.Fatalf("BuildPlan backward failed: %v", err)
	}
	if report := Execute(context.Background(), backward, mgr, ContinueOnError); report.Overall != OverallSuccess {
		t.Fatalf("Backward execution failed: %+v", report)
	}

	if len(mgr.installed) != len(stateA) {
		t.Fatalf("Expected %d packages after round trip, got %d", len(stateA), len(mgr.installed))
	}
	for name, version := range stateA {
		if mgr.installed[name] != version {
			t.Errorf("Expected %s %s after round trip, got %q", name, version, mgr.installed[name])
		}
	}
}

func toRecords(state map[string]string) map[string]pkgmgr.PackageRecord {
	records := make(map[string]pkgmgr.PackageRecord, len(state))
	for name, version := range state {
		records[name] = pkgmgr.PackageRecord{Name: name, Version: version}
	}
	return records
}
