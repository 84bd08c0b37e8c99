//go:build linux

package util

import (
	"bufio"
	"os"
	"strings"
	"syscall"
)

// Kernel VFS magic numbers of network filesystems
var linuxNetworkMagic = map[uint32]string{
	0x6969:     "nfs",
	0xff534d42: "cifs",
	0x517b:     "smb",
	0xfe534d42: "smb2",
}

// Mount types from /proc/mounts treated as network storage
var linuxNetworkMountTypes = []string{"nfs", "cifs", "smb", "fuse.sshfs", "fuse.rclone"}

func detectPlatformNetwork(path string, stat *syscall.Statfs_t) (*NetworkInfo, error) {
	info := &NetworkInfo{}

	if proto, found := linuxNetworkMagic[uint32(stat.Type)]; found {
		info.IsNetwork = true
		info.Protocol = proto
	}

	mounts, err := parseProcMounts()
	if err != nil {
		// magic number check alone
		return info, nil
	}

	mountPoint := longestMountPrefix(path, mounts)
	if mountPoint == "" {
		return info, nil
	}

	fsType := strings.ToLower(mounts[mountPoint])
	for _, netType := range linuxNetworkMountTypes {
		if strings.Contains(fsType, netType) {
			info.IsNetwork = true
			info.Protocol = fsType
			info.MountPath = mountPoint
			break
		}
	}

	return info, nil
}

// longestMountPrefix returns the mount point that contains path, respecting
// path component boundaries (/mnt/nas does not contain /mnt/nas2).
func longestMountPrefix(path string, mounts map[string]string) string {
	best := ""
	for mountPoint := range mounts {
		if mountPoint != "/" && path != mountPoint && !strings.HasPrefix(path, mountPoint+"/") {
			continue
		}
		if len(mountPoint) > len(best) {
			best = mountPoint
		}
	}
	return best
}

// parseProcMounts maps mount point -> filesystem type
func parseProcMounts() (map[string]string, error) {
	file, err := os.Open("/proc/mounts")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	mounts := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		// device mountpoint fstype options dump pass
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mounts[fields[1]] = fields[2]
	}

	return mounts, scanner.Err()
}
