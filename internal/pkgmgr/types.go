package pkgmgr

import "fmt"

// PackageRecord identifies one installed package. Version is an opaque
// identifier: records are compared only for equality, never ordered.
type PackageRecord struct {
	Name    string
	Version string
}

// String returns "name version" for display.
func (r PackageRecord) String() string {
	if r.Version == "" {
		return r.Name
	}
	return r.Name + " " + r.Version
}

// Kind identifies which package manager drives a host.
type Kind string

const (
	KindApt Kind = "apt"
	KindDnf Kind = "dnf"
)

// AdapterError reports a failed package manager invocation. ExitCode is -1
// when the process could not be started at all.
type AdapterError struct {
	ExitCode int
	Message  string
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("package manager exited with code %d: %s", e.ExitCode, e.Message)
}
