package ssz

import (
	"bytes"
	"errors"
	"testing"
)

func encodeSample(t *testing.T, a, b []byte) []byte {
	t.Helper()
	e := NewEncoder(8 + 2*BytesPerLengthOffset + 4)
	e.Uint64(7)
	e.Variable(a)
	e.Uint32(9)
	e.Variable(b)
	out, err := e.Bytes()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return out
}

func decodeSample(buf []byte) (x uint64, y uint32, a, b []byte, err error) {
	d := NewDecoder("Sample", buf)
	if err = d.Require(20); err != nil {
		return
	}
	if x, err = d.Uint64("x"); err != nil {
		return
	}
	offA, err := d.Offset("a")
	if err != nil {
		return
	}
	if y, err = d.Uint32("y"); err != nil {
		return
	}
	offB, err := d.Offset("b")
	if err != nil {
		return
	}
	if a, err = d.Variable("a", offA, int(offB)); err != nil {
		return
	}
	if b, err = d.Tail("b", offB); err != nil {
		return
	}
	err = d.Finish()
	return
}

func TestEncoderDecoderRoundTrip(t *testing.T) {
	buf := encodeSample(t, []byte{1, 2, 3}, []byte{4, 5})
	if len(buf) != 20+5 {
		t.Fatalf("len = %d, want 25", len(buf))
	}
	x, y, a, b, err := decodeSample(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if x != 7 || y != 9 {
		t.Fatalf("fixed fields = %d, %d", x, y)
	}
	if !bytes.Equal(a, []byte{1, 2, 3}) || !bytes.Equal(b, []byte{4, 5}) {
		t.Fatalf("variable fields = %x, %x", a, b)
	}
}

func TestEncoderFixedSizeMismatch(t *testing.T) {
	e := NewEncoder(16)
	e.Uint64(1)
	if _, err := e.Bytes(); !errors.Is(err, ErrSize) {
		t.Fatalf("err = %v, want ErrSize", err)
	}
}

func TestDecoderUnderLength(t *testing.T) {
	_, _, _, _, err := decodeSample(make([]byte, 10))
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want *DecodeError", err)
	}
	if !errors.Is(err, ErrUnderLength) || de.Structure != "Sample" {
		t.Fatalf("unexpected error %+v", de)
	}
	if de.Expected != 20 || de.Actual != 10 {
		t.Fatalf("expected/actual = %d/%d", de.Expected, de.Actual)
	}
}

func TestDecoderOffsetMismatch(t *testing.T) {
	buf := encodeSample(t, []byte{1, 2, 3}, []byte{4, 5})
	for _, off := range []byte{19, 21, 0xff} {
		tampered := append([]byte(nil), buf...)
		tampered[8] = off
		_, _, _, _, err := decodeSample(tampered)
		var de *DecodeError
		if !errors.As(err, &de) || !errors.Is(err, ErrOffset) {
			t.Fatalf("offset %d: err = %v, want offset error", off, err)
		}
		if de.Field != "a" {
			t.Fatalf("offset %d: field = %q, want a", off, de.Field)
		}
	}
}

func TestDecoderSecondOffsetOutOfRange(t *testing.T) {
	buf := encodeSample(t, []byte{1, 2, 3}, []byte{4, 5})
	buf[16] = 0xf0
	_, _, _, _, err := decodeSample(buf)
	if !errors.Is(err, ErrOffset) {
		t.Fatalf("err = %v, want ErrOffset", err)
	}
}

func TestDecoderTrailingBytes(t *testing.T) {
	d := NewDecoder("Pair", []byte{1, 0, 0, 0, 0, 0, 0, 0, 0xaa})
	if _, err := d.Uint64("v"); err != nil {
		t.Fatal(err)
	}
	if d.Remaining() != 1 {
		t.Fatalf("remaining = %d", d.Remaining())
	}
	if err := d.Finish(); !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("err = %v, want ErrTrailingBytes", err)
	}
}

func TestDecodeErrorMessage(t *testing.T) {
	err := &DecodeError{Structure: "Update", Field: "finalized_header", Kind: ErrOffset, Expected: 10, Actual: 12}
	want := "ssz: invalid offset: Update.finalized_header: expected 10, got 12"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
