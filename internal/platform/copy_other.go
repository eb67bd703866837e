//go:build !linux

package platform

// CopyRange falls back to read/write on platforms without copy offload.
func CopyRange(params CopyRangeParams) (CopyResult, error) {
	Preallocate(params.Dst, params.DstOffset+params.Length)
	return copyReadWrite(params)
}
