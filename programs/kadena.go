package programs

import (
	"github.com/holiman/uint256"

	"github.com/larskuhtz/zk-light-clients/kadena"
	"github.com/larskuhtz/zk-light-clients/zkvm"
)

// LongestChain verifies a window of Chainweb layer headers.
//
// Stdin: layer headers (length-prefixed list).
// Public values: confirmation work (32 bytes, little endian), first layer
// header root, target layer header root.
var LongestChain = zkvm.NewProgram(LongestChainName, func(in *zkvm.Stdin, out *zkvm.PublicValues) error {
	r := &input{in: in}
	enc := r.frame("layer headers")
	if err := r.finish(); err != nil {
		return err
	}
	layers, err := kadena.DecodeLayerHeaders(enc)
	if err != nil {
		return err
	}
	w, err := kadena.VerifyWindow(layers)
	if err != nil {
		return err
	}
	work := w.ConfirmationWork.Bytes32()
	for i, j := 0, len(work)-1; i < j; i, j = i+1, j-1 {
		work[i], work[j] = work[j], work[i]
	}
	out.Commit(work[:])
	out.Commit(w.FirstHeaderRoot[:])
	out.Commit(w.TargetHeaderRoot[:])
	return nil
})

// DecodeLongestChainOutput reads LongestChain public values.
func DecodeLongestChainOutput(pv *zkvm.PublicValues) (*kadena.Window, error) {
	r := newOutput(pv)
	work := r.hash("confirmation work")
	first, target := r.hash("first header root"), r.hash("target header root")
	if err := r.finish(); err != nil {
		return nil, err
	}
	for i, j := 0, len(work)-1; i < j; i, j = i+1, j-1 {
		work[i], work[j] = work[j], work[i]
	}
	return &kadena.Window{
		ConfirmationWork: new(uint256.Int).SetBytes32(work[:]),
		FirstHeaderRoot:  first,
		TargetHeaderRoot: target,
	}, nil
}
