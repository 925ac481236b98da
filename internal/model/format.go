package model

import "fmt"

// FormatSeconds renders a duration in seconds as zero-padded MM:SS.
// There is no hour component: 3600 seconds renders as "60:00".
func FormatSeconds(seconds int) string {
	if seconds <= 0 {
		return "00:00"
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
