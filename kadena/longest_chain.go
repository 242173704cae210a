package kadena

import (
	"errors"
	"fmt"
	"slices"

	"github.com/holiman/uint256"
)

// ErrWindowTooShort is returned when a window has fewer than MinWindow layers.
var ErrWindowTooShort = errors.New("kadena: window too short")

// MinWindow is the smallest number of layers a longest-chain window spans.
const MinWindow = 3

// ContinuityError reports a broken link between two consecutive layers, or
// an inconsistency inside one.
type ContinuityError struct {
	Index  int    // layer index in the window
	Chain  uint32 // offending chain
	Reason string
}

func (e *ContinuityError) Error() string {
	return fmt.Sprintf("kadena: layer %d chain %d: %s", e.Index, e.Chain, e.Reason)
}

// VerifyLongestChain checks every header's hash and proof of work, that all
// layers share the chain set and graph, that heights are consecutive, and
// that every parent and adjacent parent points into the previous layer.
func VerifyLongestChain(layers []*LayerHeader) error {
	if len(layers) == 0 {
		return ErrEmptyHeaders
	}
	chains := layers[0].ChainIDs()
	version := layers[0].Version()
	for i, l := range layers {
		if len(l.ChainHeaders) == 0 {
			return fmt.Errorf("%w: layer %d", ErrEmptyLayer, i)
		}
		if ids := l.ChainIDs(); !slices.Equal(ids, chains) {
			return &ContinuityError{Index: i, Chain: l.ChainHeaders[0].ChainID, Reason: fmt.Sprintf("chain set %v, want %v", ids, chains)}
		}
		for _, h := range l.ChainHeaders {
			if err := h.Verify(); err != nil {
				return fmt.Errorf("layer %d: %w", i, err)
			}
			if h.Height != l.Height {
				return &ContinuityError{Index: i, Chain: h.ChainID, Reason: fmt.Sprintf("height %d in layer %d", h.Height, l.Height)}
			}
			if h.Version != version {
				return &ContinuityError{Index: i, Chain: h.ChainID, Reason: fmt.Sprintf("chainweb version %d, want %d", h.Version, version)}
			}
		}
		if i == 0 {
			continue
		}
		prev := layers[i-1]
		if l.Height != prev.Height+1 {
			return &ContinuityError{Index: i, Chain: chains[0], Reason: fmt.Sprintf("height %d follows %d", l.Height, prev.Height)}
		}
		for _, h := range l.ChainHeaders {
			if parent := prev.Chain(h.ChainID); parent.Hash != h.Parent {
				return &ContinuityError{Index: i, Chain: h.ChainID, Reason: "parent hash mismatch"}
			}
			for _, a := range h.Adjacents {
				adj := prev.Chain(a.ChainID)
				if adj == nil {
					return &ContinuityError{Index: i, Chain: h.ChainID, Reason: fmt.Sprintf("unknown adjacent chain %d", a.ChainID)}
				}
				if adj.Hash != a.Hash {
					return &ContinuityError{Index: i, Chain: h.ChainID, Reason: fmt.Sprintf("adjacent parent mismatch on chain %d", a.ChainID)}
				}
			}
		}
	}
	return nil
}

// Window is the public result of a verified longest-chain window.
type Window struct {
	ConfirmationWork *uint256.Int
	FirstHeaderRoot  Hash
	TargetHeaderRoot Hash
}

// VerifyWindow validates the layers and derives the window values: the
// target layer is layers[N/2], confirmation work covers layers[N/2:N-1].
func VerifyWindow(layers []*LayerHeader) (*Window, error) {
	if len(layers) < MinWindow {
		return nil, fmt.Errorf("%w: %d layers, need %d", ErrWindowTooShort, len(layers), MinWindow)
	}
	if err := VerifyLongestChain(layers); err != nil {
		return nil, err
	}
	n := len(layers)
	work, err := CumulativeWork(layers[n/2 : n-1])
	if err != nil {
		return nil, err
	}
	return &Window{
		ConfirmationWork: work,
		FirstHeaderRoot:  layers[0].HeaderRoot(),
		TargetHeaderRoot: layers[n/2].HeaderRoot(),
	}, nil
}
