// Package platform copies byte ranges between open files using the fastest
// method the operating system offers.
package platform

import "os"

// CopyMethod identifies which syscall/strategy was used for a copy.
type CopyMethod int

const (
	ReadWrite     CopyMethod = iota
	CopyFileRange            // Linux copy_file_range(2)
	Sendfile                 // Linux sendfile(2)
)

func (m CopyMethod) String() string {
	switch m {
	case ReadWrite:
		return "read_write"
	case CopyFileRange:
		return "copy_file_range"
	case Sendfile:
		return "sendfile"
	default:
		return "unknown"
	}
}

// CopyResult reports the outcome of a copy operation.
type CopyResult struct {
	BytesWritten int64
	Method       CopyMethod
}

// CopyRangeParams describes a byte range to move from Src to Dst.
// Neither file's seek offset is relied upon; offsets are explicit.
type CopyRangeParams struct {
	Src       *os.File
	Dst       *os.File
	SrcOffset int64
	DstOffset int64
	Length    int64
}

// Preallocate reserves size bytes for f without changing its apparent
// length. Advisory: errors are ignored because not every filesystem supports
// it.
func Preallocate(f *os.File, size int64) {
	if size <= 0 {
		return
	}
	preallocate(f, size)
}
