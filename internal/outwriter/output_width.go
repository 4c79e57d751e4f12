package outwriter

import (
	"os"

	"golang.org/x/term"

	"github.com/careai/careai/internal/contract"
)

// GetMaxTableInsightWidth calculates the maximum width for the insight column
// in table output based on terminal width and table configuration.
func GetMaxTableInsightWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + Patient + Score + Progress + Tier with borders/padding
	baseWidth := 50

	// Records + Last Date + Fitted
	if cfg.Detail {
		baseWidth += 35
	}

	// Table borders, separators and padding
	baseWidth += 10

	available := termWidth - baseWidth
	if available < 20 {
		return 20
	}
	if available > 120 {
		return 120
	}
	return available
}
