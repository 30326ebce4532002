package pkgmgr

import (
	"fmt"
	"os/exec"
	"strings"
)

// Manager is the capability set the core needs from a package manager.
// Implementations wrap the host's real tool (apt, dnf); every call blocks
// until the external process completes. Failed invocations return an
// *AdapterError.
type Manager interface {
	// Kind identifies the underlying tool.
	Kind() Kind

	// ListInstalled enumerates every installed package.
	ListInstalled() ([]PackageRecord, error)

	// Install installs a package at a specific version. An empty version
	// installs whatever the repositories currently offer.
	Install(name, version string) error

	// Remove uninstalls a package.
	Remove(name string) error

	// ChangeVersion moves a package from one version to another. The core
	// treats this as one logical operation regardless of how the tool
	// realizes it.
	ChangeVersion(name, from, to string) error

	// DatabaseDir returns the directory holding the manager's own package
	// database, for change watching.
	DatabaseDir() string
}

// New returns the Manager implementation for a kind.
func New(kind Kind) (Manager, error) {
	switch kind {
	case KindApt:
		return &aptManager{}, nil
	case KindDnf:
		return &dnfManager{}, nil
	default:
		return nil, fmt.Errorf("unsupported package manager kind: %q", kind)
	}
}

// runCapture executes a command and returns its stdout, mapping failure to
// an *AdapterError carrying the exit code and stderr text.
func runCapture(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", &AdapterError{
				ExitCode: exitErr.ExitCode(),
				Message:  strings.TrimSpace(string(exitErr.Stderr)),
			}
		}
		return "", &AdapterError{ExitCode: -1, Message: err.Error()}
	}
	return string(output), nil
}

// runMutate executes a state-changing command, mapping failure to an
// *AdapterError carrying the combined output for operator diagnosis.
func runMutate(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		code := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		}
		return &AdapterError{ExitCode: code, Message: strings.TrimSpace(string(output))}
	}
	return nil
}
