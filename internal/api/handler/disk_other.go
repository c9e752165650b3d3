//go:build !linux && !darwin && !windows

package handler

import "errors"

func diskUsage(path string) (total, free uint64, err error) {
	return 0, 0, errors.ErrUnsupported
}
