package pipeline

import (
	"strings"
	"testing"
	"time"
)

func TestNewJobID_Format(t *testing.T) {
	id := newJobID()
	if len(id) != 26 {
		t.Fatalf("expected 26 characters, got %d (%q)", len(id), id)
	}
	for _, c := range id {
		if !strings.ContainsRune(crockford, c) {
			t.Fatalf("unexpected character %q in %q", c, id)
		}
	}
	if id[0] > '7' {
		t.Errorf("first character must encode at most 3 bits, got %q", id[0])
	}
}

func TestNewJobID_SortsByTime(t *testing.T) {
	a := newJobID()
	time.Sleep(2 * time.Millisecond)
	b := newJobID()
	if a[:10] >= b[:10] {
		t.Errorf("expected timestamp prefix of %q to sort before %q", a, b)
	}
}

func TestEncodeCrockford(t *testing.T) {
	var zero [16]byte
	if got := encodeCrockford(zero); got != strings.Repeat("0", 26) {
		t.Errorf("zero value encoded as %q", got)
	}

	var all [16]byte
	for i := range all {
		all[i] = 0xff
	}
	if got := encodeCrockford(all); got != "7"+strings.Repeat("Z", 25) {
		t.Errorf("max value encoded as %q", got)
	}
}
