package kadena

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// Work accumulation errors.
var (
	ErrEmptyHeaders = errors.New("kadena: no layer headers")
	ErrWorkOverflow = errors.New("kadena: cumulative work overflows 256 bits")
)

// Work returns the summed work of every chain header in the layer.
func (l *LayerHeader) Work() (*uint256.Int, error) {
	total := new(uint256.Int)
	for _, h := range l.ChainHeaders {
		w, err := h.Work()
		if err != nil {
			return nil, err
		}
		if _, overflow := total.AddOverflow(total, w); overflow {
			return nil, fmt.Errorf("%w: layer %d", ErrWorkOverflow, l.Height)
		}
	}
	return total, nil
}

// CumulativeWork sums the work of all layers.
func CumulativeWork(layers []*LayerHeader) (*uint256.Int, error) {
	if len(layers) == 0 {
		return nil, ErrEmptyHeaders
	}
	total := new(uint256.Int)
	for _, l := range layers {
		w, err := l.Work()
		if err != nil {
			return nil, err
		}
		if _, overflow := total.AddOverflow(total, w); overflow {
			return nil, fmt.Errorf("%w: at layer %d", ErrWorkOverflow, l.Height)
		}
	}
	return total, nil
}
