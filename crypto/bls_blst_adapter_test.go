package crypto

import (
	"bytes"
	"testing"
)

func testIKM(seed byte) []byte {
	return bytes.Repeat([]byte{seed}, 32)
}

func TestBlstKeyGen(t *testing.T) {
	if _, _, err := BlstKeyGen(make([]byte, 31)); err != ErrBlstInvalidIKM {
		t.Fatalf("short IKM: err = %v, want %v", err, ErrBlstInvalidIKM)
	}
	pk1, sk1, err := BlstKeyGen(testIKM(1))
	if err != nil {
		t.Fatalf("BlstKeyGen: %v", err)
	}
	if len(pk1) != BLSPubkeySize || len(sk1) != BLSSecretSize {
		t.Fatalf("sizes: pk=%d sk=%d", len(pk1), len(sk1))
	}
	pk2, _, _ := BlstKeyGen(testIKM(1))
	if !bytes.Equal(pk1, pk2) {
		t.Fatal("key generation is not deterministic")
	}
}

func TestBlstSignVerify(t *testing.T) {
	pk, sk, err := BlstKeyGen(testIKM(7))
	if err != nil {
		t.Fatalf("BlstKeyGen: %v", err)
	}
	msg := []byte("signing root")
	sig, err := BlstSign(sk, msg, EthereumDST)
	if err != nil {
		t.Fatalf("BlstSign: %v", err)
	}
	if !Verify(pk, msg, sig, EthereumDST) {
		t.Fatal("valid signature rejected")
	}
	if Verify(pk, []byte("other"), sig, EthereumDST) {
		t.Fatal("signature verified for the wrong message")
	}
	if Verify(pk, msg, sig, []byte("ANOTHER_DST")) {
		t.Fatal("signature verified under the wrong DST")
	}
	if _, err := BlstSign(sk[:31], msg, EthereumDST); err != ErrBlstInvalidSecretKey {
		t.Fatalf("short secret key: err = %v", err)
	}
}

func TestFastAggregateVerify(t *testing.T) {
	msg := []byte("attested block root")
	var (
		pubkeys [][]byte
		sigs    [][]byte
	)
	for i := byte(0); i < 4; i++ {
		pk, sk, err := BlstKeyGen(testIKM(i + 10))
		if err != nil {
			t.Fatalf("BlstKeyGen: %v", err)
		}
		sig, err := BlstSign(sk, msg, EthereumDST)
		if err != nil {
			t.Fatalf("BlstSign: %v", err)
		}
		pubkeys = append(pubkeys, pk)
		sigs = append(sigs, sig)
	}
	agg, err := BlstAggregateSigs(sigs)
	if err != nil {
		t.Fatalf("BlstAggregateSigs: %v", err)
	}
	if !FastAggregateVerify(pubkeys, msg, agg) {
		t.Fatal("aggregate signature rejected")
	}
	if FastAggregateVerify(pubkeys[:3], msg, agg) {
		t.Fatal("aggregate verified with a missing signer")
	}
	if FastAggregateVerify(nil, msg, agg) {
		t.Fatal("aggregate verified with no signers")
	}
	if _, err := BlstAggregateSigs(nil); err != ErrBlstNoSignatures {
		t.Fatalf("empty aggregate: err = %v", err)
	}
}
