package pkgmgr

import (
	"strings"
)

// dnfManager drives Fedora-family hosts via dnf.
type dnfManager struct{}

func (m *dnfManager) Kind() Kind { return KindDnf }

// DatabaseDir is where rpm keeps its database.
func (m *dnfManager) DatabaseDir() string { return "/var/lib/rpm" }

// ListInstalled runs `dnf list installed --quiet` and parses the listing.
func (m *dnfManager) ListInstalled() ([]PackageRecord, error) {
	output, err := runCapture("dnf", "list", "installed", "--quiet")
	if err != nil {
		return nil, err
	}
	return parseDnfList(output), nil
}

// parseDnfList parses `dnf list installed` output. Lines look like:
//
//	curl.x86_64        8.2.1-4.fc39        @updates
//	vim-enhanced.x86_64  2:9.0.2120-1.fc39  @fedora
//
// The name carries an architecture suffix after the last dot, which is
// stripped. The "Installed Packages" header is skipped.
func parseDnfList(output string) []PackageRecord {
	var records []PackageRecord
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Installed Packages") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		idx := strings.LastIndex(fields[0], ".")
		if idx <= 0 {
			continue
		}
		records = append(records, PackageRecord{Name: fields[0][:idx], Version: fields[1]})
	}
	return records
}

// Install pins the exact version with dnf's name-version syntax.
func (m *dnfManager) Install(name, version string) error {
	target := name
	if version != "" {
		target = name + "-" + version
	}
	return runMutate("dnf", "install", "-y", target)
}

func (m *dnfManager) Remove(name string) error {
	return runMutate("dnf", "remove", "-y", name)
}

// ChangeVersion installs the target version; dnf picks upgrade or
// downgrade based on what is currently installed.
func (m *dnfManager) ChangeVersion(name, from, to string) error {
	return runMutate("dnf", "install", "-y", "--allowerasing", name+"-"+to)
}
