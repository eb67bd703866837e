package platform

import (
	"errors"
	"io"
	"sync"
)

const bufferSize = 1 << 20 // 1 MiB

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, bufferSize)
		return &b
	},
}

// copyReadWrite copies data using ReadAt/WriteAt with a pooled buffer.
func copyReadWrite(params CopyRangeParams) (CopyResult, error) {
	bufp := bufPool.Get().(*[]byte) //nolint:errcheck,forcetypeassert // pool only holds *[]byte
	defer bufPool.Put(bufp)
	buf := *bufp

	roff := params.SrcOffset
	woff := params.DstOffset
	remaining := params.Length

	var total int64
	for remaining > 0 {
		toRead := min(remaining, int64(len(buf)))

		n, err := params.Src.ReadAt(buf[:toRead], roff)
		if n > 0 {
			if _, werr := params.Dst.WriteAt(buf[:n], woff); werr != nil {
				return CopyResult{BytesWritten: total, Method: ReadWrite}, werr
			}
			roff += int64(n)
			woff += int64(n)
			remaining -= int64(n)
			total += int64(n)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return CopyResult{BytesWritten: total, Method: ReadWrite}, err
		}
	}

	return CopyResult{BytesWritten: total, Method: ReadWrite}, nil
}

// CopyReadWrite is the exported version for use by other packages during testing.
func CopyReadWrite(params CopyRangeParams) (CopyResult, error) {
	return copyReadWrite(params)
}
