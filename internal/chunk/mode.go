package chunk

import "fmt"

// Mode selects which transformation a batch of paths undergoes.
type Mode int

const (
	ModeSplit Mode = iota + 1
	ModeMerge
)

// ParseMode parses "split" or "merge".
func ParseMode(s string) (Mode, error) {
	var m Mode
	if err := m.Set(s); err != nil {
		return 0, err
	}
	return m, nil
}

func (m Mode) String() string {
	switch m {
	case ModeSplit:
		return "split"
	case ModeMerge:
		return "merge"
	default:
		return ""
	}
}

// Set implements pflag.Value.
func (m *Mode) Set(s string) error {
	switch s {
	case "split":
		*m = ModeSplit
	case "merge":
		*m = ModeMerge
	default:
		return fmt.Errorf("invalid mode %q (use split or merge)", s)
	}
	return nil
}

// Type implements pflag.Value.
func (*Mode) Type() string { return "mode" }
