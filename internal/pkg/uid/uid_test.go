package uid

import (
	"testing"

	"github.com/google/uuid"
)

func TestSnowflake_Generate(t *testing.T) {
	// Arrange
	gen, err := NewSnowflake(1)
	if err != nil {
		t.Fatalf("NewSnowflake() error = %v", err)
	}

	// Act
	seen := make(map[int64]struct{}, 1000)
	var last int64
	for range 1000 {
		id := gen.Generate()
		if id <= last {
			t.Fatalf("ids are not increasing: %d after %d", id, last)
		}
		seen[id] = struct{}{}
		last = id
	}

	// Assert
	if len(seen) != 1000 {
		t.Fatalf("expected 1000 unique ids, got %d", len(seen))
	}
}

func TestNewSnowflake_InvalidNode(t *testing.T) {
	if _, err := NewSnowflake(4096); err == nil {
		t.Fatal("expected error for node out of range")
	}
}

func TestUUID_Generate(t *testing.T) {
	// Act
	a, b := NewUUID().Generate(), NewUUID().Generate()

	// Assert
	if a == b {
		t.Fatal("expected distinct uuids")
	}
	id, err := uuid.Parse(a)
	if err != nil || id.Version() != 7 {
		t.Fatalf("expected a v7 uuid, got %q", a)
	}
}
