//go:build windows

package daemonctl

import "golang.org/x/sys/windows"

func diskFree(path string) (uint64, bool) {
	dir, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, false
	}
	var free uint64
	if err := windows.GetDiskFreeSpaceEx(dir, &free, nil, nil); err != nil {
		return 0, false
	}
	return free, true
}
