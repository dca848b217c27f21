package kv

import "testing"

func TestKeyMarshalRoundTrip(t *testing.T) {
	k := New(3, "chunk:0x2a")
	buf := k.Marshal()

	got, n := UnmarshalKey(buf)
	if n != len(buf) {
		t.Fatalf("consumed %d bytes, want %d", n, len(buf))
	}
	if !got.Equal(k) {
		t.Fatalf("got %+v, want %+v", got, k)
	}
}

func TestKeyMarshalThenExtra(t *testing.T) {
	k := New(0, "df")
	buf := k.Marshal()
	buf = append(buf, 0xAA, 0xBB)

	got, n := UnmarshalKey(buf)
	if !got.Equal(k) {
		t.Fatalf("got %+v, want %+v", got, k)
	}
	if rest := buf[n:]; len(rest) != 2 || rest[0] != 0xAA || rest[1] != 0xBB {
		t.Fatalf("unexpected trailing bytes %v", rest)
	}
}

func TestKeyEqual(t *testing.T) {
	a := New(1, "x")
	b := New(1, "x")
	c := New(2, "x")
	if !a.Equal(b) {
		t.Fatalf("expected %+v == %+v", a, b)
	}
	if a.Equal(c) {
		t.Fatalf("expected %+v != %+v", a, c)
	}
}
