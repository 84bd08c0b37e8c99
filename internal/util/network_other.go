//go:build !linux && !darwin

package util

import "syscall"

// detectPlatformNetwork treats every path as local on unsupported platforms
func detectPlatformNetwork(path string, stat *syscall.Statfs_t) (*NetworkInfo, error) {
	return &NetworkInfo{}, nil
}
