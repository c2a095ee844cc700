//go:build !linux && !darwin && !windows

package daemonctl

func diskFree(string) (uint64, bool) { return 0, false }
