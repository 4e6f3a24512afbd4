package analyzers

import "math"

// WindowType represents different window functions
type WindowType int

const (
	WindowHann WindowType = iota
	WindowRectangular
)

// WindowGenerator builds and caches analysis window coefficient slices
type WindowGenerator struct {
	cache map[windowKey][]float64
}

type windowKey struct {
	windowType WindowType
	size       int
}

// NewWindowGenerator creates a window generator with an empty cache
func NewWindowGenerator() *WindowGenerator {
	return &WindowGenerator{
		cache: make(map[windowKey][]float64),
	}
}

// Generate returns the coefficients for the requested window type and size
func (wg *WindowGenerator) Generate(windowType WindowType, size int) []float64 {
	if size <= 0 {
		return nil
	}

	key := windowKey{windowType: windowType, size: size}
	if cached, ok := wg.cache[key]; ok {
		return cached
	}

	window := make([]float64, size)
	switch windowType {
	case WindowHann:
		for i := 0; i < size; i++ {
			window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
		}
	default:
		for i := 0; i < size; i++ {
			window[i] = 1.0
		}
	}

	wg.cache[key] = window
	return window
}
