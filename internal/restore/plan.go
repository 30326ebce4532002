package restore

import (
	"fmt"
	"sort"

	"github.com/blackwell-systems/pkgsnap/internal/pkgmgr"
	"github.com/blackwell-systems/pkgsnap/internal/snapshot"
)

// OpKind tags the variant of a restore operation.
type OpKind string

const (
	OpRemove  OpKind = "remove"
	OpInstall OpKind = "install"
	OpChange  OpKind = "change"
)

// Operation is one step of a restore plan. From is set for remove and
// change operations, To for install and change operations.
type Operation struct {
	Kind OpKind
	Name string
	From string
	To   string
}

// String renders an operation the way the CLI presents it.
func (op Operation) String() string {
	switch op.Kind {
	case OpRemove:
		return fmt.Sprintf("remove %s %s", op.Name, op.From)
	case OpInstall:
		return fmt.Sprintf("install %s %s", op.Name, op.To)
	case OpChange:
		return fmt.Sprintf("change %s %s -> %s", op.Name, op.From, op.To)
	default:
		return fmt.Sprintf("unknown operation on %s", op.Name)
	}
}

// Plan is a deterministic, ordered sequence of operations realizing a diff.
type Plan []Operation

// PlanningError means the diff classified a name in more than one bucket.
// That is a contract violation upstream and never happens on valid input.
type PlanningError struct {
	Name string
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("invalid diff: package %q classified in more than one bucket", e.Name)
}

// BuildPlan turns a diff into an ordered plan: removals first to free
// naming conflicts, then installs, then version changes last once the rest
// of the package set has reached its target shape. Each phase is sorted by
// name. The ordering is policy, not dependency resolution.
func BuildPlan(diff *snapshot.DiffResult) (Plan, error) {
	if err := validateDisjoint(diff); err != nil {
		return nil, err
	}

	plan := make(Plan, 0, len(diff.Removed)+len(diff.Added)+len(diff.Changed))

	for _, record := range sortedRecords(diff.Removed) {
		plan = append(plan, Operation{Kind: OpRemove, Name: record.Name, From: record.Version})
	}
	for _, record := range sortedRecords(diff.Added) {
		plan = append(plan, Operation{Kind: OpInstall, Name: record.Name, To: record.Version})
	}
	for _, change := range sortedChanges(diff.Changed) {
		plan = append(plan, Operation{Kind: OpChange, Name: change.Name, From: change.From, To: change.To})
	}

	return plan, nil
}

func validateDisjoint(diff *snapshot.DiffResult) error {
	seen := make(map[string]bool, len(diff.Added)+len(diff.Removed)+len(diff.Changed))
	check := func(name string) error {
		if seen[name] {
			return &PlanningError{Name: name}
		}
		seen[name] = true
		return nil
	}

	for _, record := range diff.Removed {
		if err := check(record.Name); err != nil {
			return err
		}
	}
	for _, record := range diff.Added {
		if err := check(record.Name); err != nil {
			return err
		}
	}
	for _, change := range diff.Changed {
		if err := check(change.Name); err != nil {
			return err
		}
	}
	return nil
}

// sortedRecords copies and sorts records by name so the plan is
// deterministic even when the diff arrives unsorted.
func sortedRecords(records []pkgmgr.PackageRecord) []pkgmgr.PackageRecord {
	sorted := make([]pkgmgr.PackageRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return sorted
}

func sortedChanges(changes []snapshot.Change) []snapshot.Change {
	sorted := make([]snapshot.Change, len(changes))
	copy(sorted, changes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return sorted
}
