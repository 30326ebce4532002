package pkgmgr

import (
	"strings"
)

// aptManager drives Debian-family hosts via apt / apt-get.
type aptManager struct{}

func (m *aptManager) Kind() Kind { return KindApt }

// DatabaseDir is where dpkg keeps its status database.
func (m *aptManager) DatabaseDir() string { return "/var/lib/dpkg" }

// ListInstalled runs `apt list --installed` and parses the listing.
func (m *aptManager) ListInstalled() ([]PackageRecord, error) {
	output, err := runCapture("apt", "list", "--installed")
	if err != nil {
		return nil, err
	}
	return parseAptList(output), nil
}

// parseAptList parses `apt list --installed` output. Lines look like:
//
//	curl/noble,now 8.5.0-2ubuntu10.6 amd64 [installed]
//	vim/noble 2:9.1.0016-1ubuntu7 amd64 [installed,automatic]
//
// The "Listing..." banner and anything not marked installed is skipped.
func parseAptList(output string) []PackageRecord {
	var records []PackageRecord
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Listing") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 || !strings.HasPrefix(fields[3], "[installed") {
			continue
		}
		name, _, ok := strings.Cut(fields[0], "/")
		if !ok || name == "" {
			continue
		}
		records = append(records, PackageRecord{Name: name, Version: fields[1]})
	}
	return records
}

// Install pins the exact version with apt's name=version syntax. Moving to
// an older version needs --allow-downgrades, which is harmless otherwise.
func (m *aptManager) Install(name, version string) error {
	target := name
	if version != "" {
		target = name + "=" + version
	}
	return runMutate("apt-get", "install", "-y", "--allow-downgrades", target)
}

func (m *aptManager) Remove(name string) error {
	return runMutate("apt-get", "remove", "-y", name)
}

// ChangeVersion reinstalls at the target version; apt resolves the
// transition (upgrade or downgrade) itself.
func (m *aptManager) ChangeVersion(name, from, to string) error {
	return m.Install(name, to)
}
