package zkvm

import (
	"errors"
	"testing"

	"pgregory.net/rapid"
)

func TestFramesRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.SliceOf(rapid.SliceOf(rapid.Byte())).Draw(t, "frames")
		s := NewStdin()
		for _, f := range in {
			s.Write(f)
		}
		parsed, err := ParseStdin(s.Bytes())
		if err != nil {
			t.Fatal(err)
		}
		if parsed.Len() != len(in) {
			t.Fatalf("len = %d, want %d", parsed.Len(), len(in))
		}
		for i, want := range in {
			got, err := parsed.Read()
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != string(want) {
				t.Fatalf("frame %d = %x, want %x", i, got, want)
			}
		}
		if _, err := parsed.Read(); !errors.Is(err, ErrStreamEnd) {
			t.Fatalf("read past end: %v", err)
		}
	})
}

func TestParseFramesErrors(t *testing.T) {
	if _, err := ParseStdin([]byte{1, 0}); !errors.Is(err, ErrFrameLength) {
		t.Errorf("short prefix: %v", err)
	}
	if _, err := ParsePublicValues([]byte{5, 0, 0, 0, 1, 2}); !errors.Is(err, ErrFrameLength) {
		t.Errorf("overrun: %v", err)
	}
	pv, err := ParsePublicValues(nil)
	if err != nil || pv.Len() != 0 {
		t.Errorf("empty: %v, %d frames", err, pv.Len())
	}
}

func TestPublicValuesFinish(t *testing.T) {
	pv := NewPublicValues()
	pv.Commit([]byte{1})
	pv.Commit([]byte{2})
	if _, err := pv.Read(); err != nil {
		t.Fatal(err)
	}
	if err := pv.Finish(); !errors.Is(err, ErrTrailingData) {
		t.Fatalf("Finish = %v", err)
	}
	if _, err := pv.Read(); err != nil {
		t.Fatal(err)
	}
	if err := pv.Finish(); err != nil {
		t.Fatal(err)
	}
}

func TestStdinFinish(t *testing.T) {
	in := NewStdin()
	in.Write([]byte{1})
	in.Write([]byte{2})
	if _, err := in.Read(); err != nil {
		t.Fatal(err)
	}
	if err := in.Finish(); !errors.Is(err, ErrTrailingData) {
		t.Fatalf("Finish = %v", err)
	}
	if _, err := in.Read(); err != nil {
		t.Fatal(err)
	}
	if err := in.Finish(); err != nil {
		t.Fatal(err)
	}
	in.Rewind()
	if err := in.Finish(); !errors.Is(err, ErrTrailingData) {
		t.Fatalf("Finish after Rewind = %v", err)
	}
}

func TestWriteCopies(t *testing.T) {
	b := []byte{1, 2, 3}
	s := NewStdin()
	s.Write(b)
	b[0] = 9
	got, _ := s.Read()
	if got[0] != 1 {
		t.Fatal("frame aliases caller buffer")
	}
}

func TestParseProvingMode(t *testing.T) {
	for s, want := range map[string]ProvingMode{"stark": STARK, "SNARK": SNARK} {
		got, err := ParseProvingMode(s)
		if err != nil || got != want {
			t.Errorf("ParseProvingMode(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := ParseProvingMode("plonk"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("unknown mode: %v", err)
	}
	var m ProvingMode
	if err := m.UnmarshalText([]byte("snark")); err != nil || m != SNARK {
		t.Errorf("UnmarshalText: %v, %v", m, err)
	}
	if _, err := ProvingMode(7).MarshalText(); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("MarshalText: %v", err)
	}
}
