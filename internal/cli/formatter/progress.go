package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

func bar(pct float64, width int) string {
	width = max(width, 2)
	filled := min(int(min(max(pct, 0), 1)*float64(width)), width)
	return strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)
}

// RenderBudget renders charged hours against an allocation, like
// [████░░░░] 3.5h / 8h. The bar turns yellow past 80% and red once the
// allocation is spent.
func RenderBudget(charged, allocated float64, width int) string {
	if allocated <= 0 {
		return fmt.Sprintf("[%s] %s / %s", Dim(bar(0, width)), FormatHours(charged), Dim("unallocated"))
	}
	pct := charged / allocated
	style := StyleGreen
	switch {
	case pct >= 1:
		style = StyleRed
	case pct >= 0.8:
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %s / %s", style.Render(bar(pct, width)), FormatHours(charged), FormatHours(allocated))
}
