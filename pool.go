package stattic

import "runtime"

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps concurrent workers. Each holds its own HTTP client
	// and may run one converter subprocess.
	MaxPoolSize = 32
)

// ResolvePoolSize determines the worker count.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by CLIs.
func ResolvePoolSize(workers int) int {
	n := workers
	if n <= 0 {
		// GOMAXPROCS is adjusted by automaxprocs in containers.
		n = runtime.GOMAXPROCS(0)
	}

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
