package join

import (
	"fmt"
	"strings"
)

// How selects which unmatched items a join keeps.
type How int

const (
	Left How = iota
	Right
	Inner
	Full
)

func (h How) String() string {
	switch h {
	case Left:
		return "left"
	case Right:
		return "right"
	case Inner:
		return "inner"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("How(%d)", int(h))
	}
}

func ParseHow(s string) (How, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "left":
		return Left, nil
	case "right":
		return Right, nil
	case "inner":
		return Inner, nil
	case "full", "outer", "full_outer":
		return Full, nil
	default:
		return 0, fmt.Errorf("unknown join type %q", s)
	}
}

func (h How) keepsLeft() bool  { return h == Left || h == Full }
func (h How) keepsRight() bool { return h == Right || h == Full }
