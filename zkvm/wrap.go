package zkvm

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark/frontend"
	stdmimc "github.com/consensys/gnark/std/hash/mimc"
)

// wrapCircuit binds a program identifier and a public values digest to a
// commitment over the STARK attestation. Only the attestation is private.
type wrapCircuit struct {
	Program     frontend.Variable `gnark:",public"`
	Values      frontend.Variable `gnark:",public"`
	Commitment  frontend.Variable `gnark:",public"`
	Attestation frontend.Variable
}

func (c *wrapCircuit) Define(api frontend.API) error {
	h, err := stdmimc.NewMiMC(api)
	if err != nil {
		return err
	}
	h.Write(c.Program, c.Values, c.Attestation)
	api.AssertIsEqual(h.Sum(), c.Commitment)
	return nil
}

// toField reduces a 32-byte digest into the BN254 scalar field.
func toField(b [32]byte) fr.Element {
	var e fr.Element
	e.SetBytes(b[:])
	return e
}

func fieldBig(e fr.Element) *big.Int {
	return e.BigInt(new(big.Int))
}

// commitment is the native MiMC counterpart of wrapCircuit.Define.
func commitment(elems ...fr.Element) (fr.Element, error) {
	h := mimc.NewMiMC()
	for _, e := range elems {
		b := e.Bytes()
		if _, err := h.Write(b[:]); err != nil {
			return fr.Element{}, err
		}
	}
	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out, nil
}
