// Package size parses human-readable byte sizes such as "90M" or "1.5G".
package size

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Common multiples.
const (
	KiB int64 = 1 << 10
	MiB int64 = 1 << 20
	GiB int64 = 1 << 30
	TiB int64 = 1 << 40
)

// Parse parses a human-readable size string into bytes.
// Supports: 100, 100B, 100K, 100M, 100G, 100T (case-insensitive), with an
// optional trailing "iB" or "B" after the unit letter ("90MiB", "90MB").
// Uses powers of 1024.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	numStr := s
	upper := strings.ToUpper(s)
	switch {
	case strings.HasSuffix(upper, "IB") && len(s) > 2:
		numStr = s[:len(s)-2]
	case strings.HasSuffix(upper, "B") && len(s) > 1:
		if trimmed := s[:len(s)-1]; trimmed != "" && !isDigit(trimmed[len(trimmed)-1]) {
			numStr = trimmed
		}
	}

	multiplier := int64(1)
	last := strings.ToUpper(numStr[len(numStr)-1:])
	switch last {
	case "B":
		numStr = numStr[:len(numStr)-1]
	case "K":
		multiplier = KiB
		numStr = numStr[:len(numStr)-1]
	case "M":
		multiplier = MiB
		numStr = numStr[:len(numStr)-1]
	case "G":
		multiplier = GiB
		numStr = numStr[:len(numStr)-1]
	case "T":
		multiplier = TiB
		numStr = numStr[:len(numStr)-1]
	default:
		// No suffix, try parsing as plain number.
	}

	numStr = strings.TrimSpace(numStr)
	if numStr == "" {
		return 0, fmt.Errorf("invalid size: %q", s)
	}

	// Try integer first, then float.
	if n, err := strconv.ParseInt(numStr, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative size: %q", s)
		}
		if n > math.MaxInt64/multiplier {
			return 0, fmt.Errorf("size too large: %q", s)
		}
		return n * multiplier, nil
	}

	f, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size: %q", s)
	}
	if f < 0 {
		return 0, fmt.Errorf("negative size: %q", s)
	}

	v := f * float64(multiplier)
	if !(v < math.MaxInt64) { // also catches NaN and Inf
		return 0, fmt.Errorf("size too large: %q", s)
	}
	return int64(v), nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
