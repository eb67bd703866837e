//go:build linux

package platform

import (
	"errors"

	"golang.org/x/sys/unix"
)

// CopyRange tries the most efficient copy method available on Linux,
// falling through on unsupported/cross-device errors.
func CopyRange(params CopyRangeParams) (CopyResult, error) {
	Preallocate(params.Dst, params.DstOffset+params.Length)

	result, err := copyFileRange(params)
	if err == nil {
		return result, nil
	}
	if !isFallbackErr(err) || result.BytesWritten > 0 {
		return result, err
	}

	result, err = copySendfile(params)
	if err == nil {
		return result, nil
	}
	if !isFallbackErr(err) || result.BytesWritten > 0 {
		return result, err
	}

	return copyReadWrite(params)
}

//nolint:gosec // G115: fd values are small non-negative integers
func copyFileRange(params CopyRangeParams) (CopyResult, error) {
	roff := params.SrcOffset
	woff := params.DstOffset
	remaining := params.Length

	var total int64
	for remaining > 0 {
		n, err := unix.CopyFileRange(
			int(params.Src.Fd()), &roff,
			int(params.Dst.Fd()), &woff,
			int(min(remaining, 1<<30)), 0,
		)
		if err != nil {
			return CopyResult{BytesWritten: total, Method: CopyFileRange}, err
		}
		if n == 0 {
			break
		}
		remaining -= int64(n)
		total += int64(n)
	}

	return CopyResult{BytesWritten: total, Method: CopyFileRange}, nil
}

//nolint:gosec // G115: fd values are small non-negative integers
func copySendfile(params CopyRangeParams) (CopyResult, error) {
	// sendfile writes at the destination's current offset.
	if _, err := params.Dst.Seek(params.DstOffset, 0); err != nil {
		return CopyResult{}, err
	}

	offset := params.SrcOffset
	remaining := params.Length

	var total int64
	for remaining > 0 {
		n, err := unix.Sendfile(int(params.Dst.Fd()), int(params.Src.Fd()), &offset, int(min(remaining, 1<<30)))
		if err != nil {
			return CopyResult{BytesWritten: total, Method: Sendfile}, err
		}
		if n == 0 {
			break
		}
		remaining -= int64(n)
		total += int64(n)
	}

	return CopyResult{BytesWritten: total, Method: Sendfile}, nil
}

// isFallbackErr returns true if err should trigger a fallback to the next copy strategy.
func isFallbackErr(err error) bool {
	return errors.Is(err, unix.ENOSYS) ||
		errors.Is(err, unix.EXDEV) ||
		errors.Is(err, unix.EINVAL) ||
		errors.Is(err, unix.ENOTSUP) ||
		errors.Is(err, unix.EOPNOTSUPP)
}
