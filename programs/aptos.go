package programs

import (
	"github.com/larskuhtz/zk-light-clients/aptos"
	"github.com/larskuhtz/zk-light-clients/zkvm"
)

// AccountInclusion proves a leaf of the Aptos state sparse Merkle tree.
//
// Stdin: proof (BCS), key, value hash, expected root.
// Public values: root, key, value hash.
var AccountInclusion = zkvm.NewProgram(AccountInclusionName, func(in *zkvm.Stdin, out *zkvm.PublicValues) error {
	r := &input{in: in}
	proofBytes := r.frame("proof")
	key, valueHash, root := r.hash("key"), r.hash("value hash"), r.hash("root")
	if err := r.finish(); err != nil {
		return err
	}
	proof := new(aptos.SparseMerkleProof)
	if err := proof.UnmarshalBCS(proofBytes); err != nil {
		return err
	}
	if err := proof.Verify(root, key, &valueHash); err != nil {
		return err
	}
	out.Commit(root[:])
	out.Commit(key[:])
	out.Commit(valueHash[:])
	return nil
})

// AccountInclusionOutput is the public output of AccountInclusion.
type AccountInclusionOutput struct {
	Root      [aptos.HashLen]byte
	Key       [aptos.HashLen]byte
	ValueHash [aptos.HashLen]byte
}

// DecodeAccountInclusionOutput reads AccountInclusion public values.
func DecodeAccountInclusionOutput(pv *zkvm.PublicValues) (*AccountInclusionOutput, error) {
	r := newOutput(pv)
	o := &AccountInclusionOutput{
		Root:      r.hash("root"),
		Key:       r.hash("key"),
		ValueHash: r.hash("value hash"),
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return o, nil
}
