package crypto

import (
	"crypto/sha256"
	"crypto/sha512"

	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

// SHA256 returns the SHA-256 digest of the concatenated inputs.
func SHA256(data ...[]byte) [32]byte {
	h := sha256.New()
	for _, b := range data {
		h.Write(b)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// SHA3_256 returns the FIPS-202 SHA3-256 digest of the concatenated inputs.
// This is the hash Aptos uses for its authenticated data structures; it is
// not Keccak256.
func SHA3_256(data ...[]byte) [32]byte {
	h := sha3.New256()
	for _, b := range data {
		h.Write(b)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// SHA512_256 returns the SHA-512/256 digest of the concatenated inputs, the
// hash chainweb uses for block hashes and Merkle logs.
func SHA512_256(data ...[]byte) [32]byte {
	h := sha512.New512_256()
	for _, b := range data {
		h.Write(b)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// Blake2s256 returns the unkeyed BLAKE2s-256 digest of the concatenated
// inputs, the chainweb proof-of-work hash.
func Blake2s256(data ...[]byte) [32]byte {
	h, err := blake2s.New256(nil)
	if err != nil {
		// Unkeyed construction cannot fail.
		panic(err)
	}
	for _, b := range data {
		h.Write(b)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}
