package main

import "fmt"

// formatMillis renders a latency: sub-millisecond values with microsecond
// precision, then milliseconds, then seconds.
func formatMillis(ms float64) string {
	switch {
	case ms < 1:
		return fmt.Sprintf("%.3fms", ms)
	case ms < 1000:
		return fmt.Sprintf("%.1fms", ms)
	default:
		return fmt.Sprintf("%.1fs", ms/1000)
	}
}
