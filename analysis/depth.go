package analysis

import (
	"fmt"
	"time"
)

type Depth string

const (
	Quick         Depth = "quick"
	Comprehensive Depth = "comprehensive"
	Advanced      Depth = "advanced"
)

// DepthInfo is what the upload page shows for each depth.
type DepthInfo struct {
	ID          Depth  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Time        string `json:"time"`
}

var depths = []DepthInfo{
	{Quick, "Quick Analysis", "Basic trend and support/resistance", "~30 seconds"},
	{Comprehensive, "Comprehensive Analysis", "Complete technical analysis with entry/exit points", "~2 minutes"},
	{Advanced, "Advanced AI Analysis", "Deep learning pattern recognition with risk assessment", "~5 minutes"},
}

func Depths() []DepthInfo {
	out := make([]DepthInfo, len(depths))
	copy(out, depths)
	return out
}

func ParseDepth(s string) (Depth, error) {
	switch d := Depth(s); d {
	case Quick, Comprehensive, Advanced:
		return d, nil
	case "":
		return Comprehensive, nil
	}
	return "", fmt.Errorf("unknown analysis depth %q (want quick|comprehensive|advanced)", s)
}

// DefaultDelays are the simulated processing times per depth.
func DefaultDelays() map[Depth]time.Duration {
	return map[Depth]time.Duration{
		Quick:         3 * time.Second,
		Comprehensive: 8 * time.Second,
		Advanced:      15 * time.Second,
	}
}

// multiples returns the ATR stop and target multiples used at d.
func (d Depth) multiples() (stop, target float64) {
	switch d {
	case Quick:
		return 1.5, 2.5
	case Advanced:
		return 1.2, 3
	default:
		return 1.5, 3
	}
}
