package pkgmgr

import (
	"fmt"
	"os"
	"strings"
)

const osReleasePath = "/etc/os-release"

// Detect inspects /etc/os-release and returns the Kind for this host.
func Detect() (Kind, error) {
	data, err := os.ReadFile(osReleasePath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", osReleasePath, err)
	}
	return detectFromOSRelease(string(data))
}

// detectFromOSRelease maps the ID and ID_LIKE fields to a package manager.
// Debian-family distros get apt, Fedora-family get dnf.
func detectFromOSRelease(content string) (Kind, error) {
	var id, idLike string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if value, ok := strings.CutPrefix(line, "ID="); ok {
			id = normalizeOSField(value)
		}
		if value, ok := strings.CutPrefix(line, "ID_LIKE="); ok {
			idLike = normalizeOSField(value)
		}
	}

	switch {
	case id == "fedora" || strings.Contains(idLike, "fedora") || strings.Contains(idLike, "rhel"):
		return KindDnf, nil
	case id == "debian" || id == "ubuntu" || strings.Contains(idLike, "debian"):
		return KindApt, nil
	default:
		return "", fmt.Errorf("unsupported distribution (ID=%q, ID_LIKE=%q)", id, idLike)
	}
}

func normalizeOSField(value string) string {
	return strings.ToLower(strings.Trim(value, `"'`))
}

// Hostname returns the identifier used to scope snapshots to this host.
func Hostname() (string, error) {
	name, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("failed to resolve hostname: %w", err)
	}
	return name, nil
}
