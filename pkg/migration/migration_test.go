package migration

import "testing"

func TestUpgradeFromEmptyDocument(t *testing.T) {
	r := NewRunner(DefaultSteps()...)
	raw := map[string]any{}
	v, err := r.Upgrade(raw)
	if err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if v != CurrentSchemaVersion {
		t.Fatalf("version = %d, want %d", v, CurrentSchemaVersion)
	}
	if _, ok := raw["file_export_names"]; !ok {
		t.Fatalf("expected file_export_names to be initialized")
	}
}

func TestUpgradeAddsKindDiscriminator(t *testing.T) {
	r := NewRunner(DefaultSteps()...)
	raw := map[string]any{
		"schema_version": float64(1),
		"stage":          float64(2),
		"file_export_names": map[string]any{
			"1_1_100": "sunset.jpg",
			"2_1_100": map[string]any{"image": "live.jpg", "video": "live.mov"},
		},
		"collection_export_names": map[string]any{},
	}
	v, err := r.Upgrade(raw)
	if err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if v != CurrentSchemaVersion {
		t.Fatalf("version = %d, want %d", v, CurrentSchemaVersion)
	}
	names := raw["file_export_names"].(map[string]any)
	single := names["1_1_100"].(map[string]any)
	if single["kind"].(float64) != 0 {
		t.Fatalf("expected single file kind 0, got %v", single["kind"])
	}
	live := names["2_1_100"].(map[string]any)
	if live["kind"].(float64) != 1 {
		t.Fatalf("expected live photo kind 1, got %v", live["kind"])
	}
}

func TestUpgradeRejectsFutureVersion(t *testing.T) {
	r := NewRunner(DefaultSteps()...)
	raw := map[string]any{"schema_version": float64(99)}
	if _, err := r.Upgrade(raw); err == nil {
		t.Fatalf("expected error for schema version newer than supported")
	}
}
