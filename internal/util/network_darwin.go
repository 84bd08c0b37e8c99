//go:build darwin

package util

import (
	"strings"
	"syscall"
)

var darwinNetworkTypes = []string{"nfs", "smbfs", "afpfs", "cifs", "webdav", "osxfuse"}

func detectPlatformNetwork(path string, stat *syscall.Statfs_t) (*NetworkInfo, error) {
	info := &NetworkInfo{}

	fsTypeName := strings.ToLower(int8ArrayToString(stat.Fstypename[:]))
	for _, netType := range darwinNetworkTypes {
		if strings.Contains(fsTypeName, netType) {
			info.IsNetwork = true
			info.Protocol = fsTypeName
			info.MountPath = int8ArrayToString(stat.Mntonname[:])
			break
		}
	}

	return info, nil
}

// int8ArrayToString converts a NUL-terminated int8 array to a Go string
func int8ArrayToString(arr []int8) string {
	b := make([]byte, 0, len(arr))
	for _, c := range arr {
		if c == 0 {
			break
		}
		b = append(b, byte(c))
	}
	return string(b)
}
