package util

import (
	"runtime"
)

const (
	// MaxWorkers caps the scan pool: past this point store lock and
	// filesystem contention dominate, not CPU.
	MaxWorkers = 8

	// NetworkMaxWorkers caps the pool when projects live on a network share
	NetworkMaxWorkers = 4
)

// WorkerTuning describes the worker count chosen for a scan
type WorkerTuning struct {
	Workers   int
	Requested int
	Network   *NetworkInfo
}

// DefaultWorkers returns half the available CPUs, at least 1 and at most MaxWorkers
func DefaultWorkers() int {
	return boundedWorkers(runtime.NumCPU())
}

func boundedWorkers(cpus int) int {
	n := cpus / 2
	if n < 1 {
		n = 1
	}
	if n > MaxWorkers {
		n = MaxWorkers
	}
	return n
}

// TuneWorkers picks the worker count for scanning sourcePath. An explicit
// request (> 0) is honoured except on network filesystems, where it is capped.
func TuneWorkers(sourcePath string, requested int) *WorkerTuning {
	tuning := &WorkerTuning{Requested: requested}

	workers := requested
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	info, err := DetectNetworkFilesystem(sourcePath)
	if err != nil {
		WarnLog("Failed to detect filesystem for %s: %v", sourcePath, err)
	} else if info.IsNetwork {
		tuning.Network = info
		if workers > NetworkMaxWorkers {
			InfoLog("Network filesystem detected (%s at %s): capping workers %d -> %d",
				info.Protocol, info.MountPath, workers, NetworkMaxWorkers)
			workers = NetworkMaxWorkers
		}
	}

	tuning.Workers = workers
	return tuning
}
