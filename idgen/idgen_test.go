package idgen

import (
	"strings"
	"testing"
)

func TestUUIDv7_UniqueAndSortable(t *testing.T) {
	gen := UUIDv7()
	a, b := gen(), gen()
	if a == b {
		t.Fatal("two generated IDs collided")
	}
	if len(a) != 36 {
		t.Errorf("unexpected UUID length: %d", len(a))
	}
	if a >= b {
		t.Errorf("v7 IDs should sort by generation time: %s >= %s", a, b)
	}
}

func TestPrefixed(t *testing.T) {
	gen := Prefixed("snap_", UUIDv7())
	id := gen()
	if !strings.HasPrefix(id, "snap_") {
		t.Errorf("missing prefix: %s", id)
	}
}
