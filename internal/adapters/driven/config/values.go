// Package config holds the value coercion shared by the ConfigStore adapters.
package config

// String returns v if it is a string.
func String(v any) string {
	s, _ := v.(string)
	return s
}

// Int accepts the integer types produced by TOML decoding and by callers.
// Whole floats are truncated so a hand-edited "top_k = 5.0" still reads.
func Int(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// Float widens integers so "batches_per_second = 2" reads as 2.0.
func Float(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
