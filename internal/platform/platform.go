package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// Platform identifies the host environment. WSL matters to us because
// fsnotify is unreliable on 9p mounts, which breaks config hot-reload.
type Platform string

const (
	MacOS   Platform = "macos"
	Linux   Platform = "linux"
	WSL     Platform = "wsl"
	Unknown Platform = "unknown"
)

var (
	detectOnce sync.Once
	detected   Platform
)

// Detect returns the current platform, caching the result.
func Detect() Platform {
	detectOnce.Do(func() {
		detected = detect()
	})
	return detected
}

func detect() Platform {
	switch runtime.GOOS {
	case "darwin":
		return MacOS
	case "linux":
		if os.Getenv("WSL_DISTRO_NAME") != "" {
			return WSL
		}
		if v, err := os.ReadFile("/proc/version"); err == nil &&
			strings.Contains(strings.ToLower(string(v)), "microsoft") {
			return WSL
		}
		return Linux
	default:
		return Unknown
	}
}

func (p Platform) String() string {
	switch p {
	case MacOS:
		return "macOS"
	case Linux:
		return "Linux"
	case WSL:
		return "WSL"
	default:
		return "Unknown"
	}
}

// CheckFsnotifySupport reports whether the filesystem holding path is
// known to deliver unreliable fsnotify events. Returns a user-facing
// warning, or "" when watching should work.
func CheckFsnotifySupport(path string) string {
	if runtime.GOOS != "linux" {
		return ""
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return ""
	}

	mounts, err := os.ReadFile("/proc/mounts")
	if err != nil {
		return ""
	}

	// longest mountpoint prefix wins
	var matched, fsType string
	for _, line := range strings.Split(string(mounts), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		if strings.HasPrefix(absPath, fields[1]) && len(fields[1]) > len(matched) {
			matched = fields[1]
			fsType = fields[2]
		}
	}

	switch {
	case fsType == "9p":
		return "config on a 9p mount (WSL Windows filesystem): hot-reload disabled"
	case fsType == "nfs", fsType == "nfs4":
		return "config on an NFS mount: hot-reload may be unreliable"
	case fsType == "cifs", fsType == "smbfs":
		return "config on a CIFS/SMB mount: hot-reload may be unreliable"
	case strings.HasPrefix(fsType, "fuse.sshfs"):
		return "config on an SSHFS mount: hot-reload disabled"
	}
	return ""
}
