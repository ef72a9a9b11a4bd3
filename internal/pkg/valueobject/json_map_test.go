package valueobject

import (
	"testing"
)

func TestJSONMap_ValueScan(t *testing.T) {
	// Arrange
	in := JSONMap{"soundEnabled": true, "theme": "dark"}

	// Act
	v, err := in.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	var out JSONMap
	err = out.Scan(v)

	// Assert
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if !out.GetBool("soundEnabled", false) || out.GetString("theme") != "dark" {
		t.Fatalf("unexpected map: %v", out)
	}
}

func TestJSONMap_ScanNil(t *testing.T) {
	var m JSONMap
	if err := m.Scan(nil); err != nil || m == nil || len(m) != 0 {
		t.Fatalf("expected empty map, got %v (%v)", m, err)
	}
}

func TestJSONMap_ScanUnsupported(t *testing.T) {
	var m JSONMap
	if err := m.Scan(42); err != ErrScanValueNotBytes {
		t.Fatalf("expected ErrScanValueNotBytes, got %v", err)
	}
}

func TestJSONMap_Merge(t *testing.T) {
	// Arrange
	base := JSONMap{"soundEnabled": true, "notificationsEnabled": true}

	// Act
	got := base.Merge(map[string]any{"soundEnabled": false})

	// Assert
	if got.GetBool("soundEnabled", true) || !got.GetBool("notificationsEnabled", false) {
		t.Fatalf("unexpected merge: %v", got)
	}
	if !base.GetBool("soundEnabled", false) {
		t.Fatal("merge must not mutate the receiver")
	}
}
