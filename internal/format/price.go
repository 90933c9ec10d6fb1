// Package format renders prices the way the dashboard displays them.
package format

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// Price formats p with precision that scales with magnitude; large values get
// thousands separators. Zero and non-finite values render as "0.00".
func Price(p float64) string {
	switch {
	case p == 0 || math.IsNaN(p) || math.IsInf(p, 0):
		return "0.00"
	case p < 0.01:
		return fmt.Sprintf("%.6f", p)
	case p < 1:
		return fmt.Sprintf("%.4f", p)
	case p < 100:
		return fmt.Sprintf("%.2f", p)
	default:
		return humanize.FormatFloat("#,###.##", p)
	}
}

// Percent formats a signed percentage change with two decimals.
func Percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}
