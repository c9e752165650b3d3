//go:build windows

package handler

import "golang.org/x/sys/windows"

// diskUsage returns the total and available bytes of the volume holding path.
func diskUsage(path string) (total, free uint64, err error) {
	ptr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, 0, err
	}

	var totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(ptr, &free, &total, &totalFree); err != nil {
		return 0, 0, err
	}
	return total, free, nil
}
