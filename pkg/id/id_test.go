package id

import (
	"testing"
	"time"
)

func TestOrderingMonotonic(t *testing.T) {
	g := NewGenerator()
	NowMs = func() int64 { return 1000 }
	defer func() { NowMs = func() int64 { return time.Now().UnixMilli() } }()

	a := g.Next()
	b := g.Next()
	if a.Compare(b) >= 0 {
		t.Fatalf("expected a<b")
	}
	if b.Ms != 1000 || b.Seq != 1 {
		t.Fatalf("unexpected id %s", b)
	}
}

func TestClockRegressionGuard(t *testing.T) {
	g := NewGenerator()
	now := int64(1000)
	NowMs = func() int64 { return now }
	defer func() { NowMs = func() int64 { return time.Now().UnixMilli() } }()

	a := g.Next()
	now = 900
	b := g.Next()
	if a.Compare(b) >= 0 {
		t.Fatalf("expected b>a despite clock regression")
	}
}

func TestGeneratorAfterContinuesPastLast(t *testing.T) {
	NowMs = func() int64 { return 500 }
	defer func() { NowMs = func() int64 { return time.Now().UnixMilli() } }()

	last := ID{Ms: 1000, Seq: 7}
	g := NewGeneratorAfter(last)
	next := g.Next()
	if next.Compare(last) <= 0 {
		t.Fatalf("expected %s > %s", next, last)
	}
	if next != (ID{Ms: 1000, Seq: 8}) {
		t.Fatalf("got %s", next)
	}
}

func TestSequenceOverflowWaitsNextMs(t *testing.T) {
	g := NewGenerator()
	NowMs = func() int64 { return 2000 }
	defer func() { NowMs = func() int64 { return time.Now().UnixMilli() } }()

	g.lastMs = 2000
	g.sequence = ^uint64(0) - 1

	_ = g.Next()

	done := make(chan struct{})
	go func() {
		_ = g.Next()
		close(done)
	}()

	time.AfterFunc(10*time.Millisecond, func() { NowMs = func() int64 { return 2001 } })

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for overflow handling")
	}
}

func TestParseAndString(t *testing.T) {
	cases := []struct {
		in   string
		want ID
	}{
		{"1526919030474-55", ID{Ms: 1526919030474, Seq: 55}},
		{"0-0", Zero},
		{"0", Zero},
		{"42", ID{Ms: 42}},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Fatalf("parse %q: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("parse %q: got %v want %v", c.in, got, c.want)
		}
	}
	if s := (ID{Ms: 7, Seq: 3}).String(); s != "7-3" {
		t.Fatalf("string: %s", s)
	}
	for _, bad := range []string{"", "$", ">", "a-1", "1-b", "-1"} {
		if _, err := Parse(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestBytesPreserveOrder(t *testing.T) {
	a := ID{Ms: 1, Seq: 300}
	b := ID{Ms: 2, Seq: 0}
	if string(a.Bytes()) >= string(b.Bytes()) {
		t.Fatalf("byte order mismatch")
	}
	back, err := FromBytes(a.Bytes())
	if err != nil || back != a {
		t.Fatalf("roundtrip: %v %v", back, err)
	}
	if _, err := FromBytes([]byte{1, 2}); err == nil {
		t.Fatalf("expected error on short input")
	}
}

func TestSuccessor(t *testing.T) {
	if got := (ID{Ms: 5, Seq: 1}).Successor(); got != (ID{Ms: 5, Seq: 2}) {
		t.Fatalf("got %s", got)
	}
	if got := (ID{Ms: 5, Seq: ^uint64(0)}).Successor(); got != (ID{Ms: 6}) {
		t.Fatalf("overflow successor: %s", got)
	}
}
