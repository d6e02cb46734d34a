package namealloc

import "testing"

func TestAllocateDisambiguatesWithinNamespace(t *testing.T) {
	a := New()
	first := a.Allocate("coll-1", "sunset.jpg")
	second := a.Allocate("coll-1", "sunset.jpg")
	third := a.Allocate("coll-1", "sunset.jpg")

	if first != "sunset.jpg" {
		t.Fatalf("first = %q, want sunset.jpg", first)
	}
	if second != "sunset(1).jpg" {
		t.Fatalf("second = %q, want 'sunset(1).jpg'", second)
	}
	if third != "sunset(2).jpg" {
		t.Fatalf("third = %q, want 'sunset(2).jpg'", third)
	}
}

func TestAllocateIsolatedByNamespace(t *testing.T) {
	a := New()
	a.Allocate("coll-1", "sunset.jpg")
	got := a.Allocate("coll-2", "sunset.jpg")
	if got != "sunset.jpg" {
		t.Fatalf("expected no collision across namespaces, got %q", got)
	}
}

func TestSeedPreventsReissue(t *testing.T) {
	a := New()
	a.Seed("coll-1", []string{"sunset.jpg"})
	got := a.Allocate("coll-1", "sunset.jpg")
	if got != "sunset(1).jpg" {
		t.Fatalf("got %q, want 'sunset(1).jpg'", got)
	}
}

func TestReleaseFreesName(t *testing.T) {
	a := New()
	a.Allocate("coll-1", "sunset.jpg")
	a.Release("coll-1", "sunset.jpg")
	got := a.Allocate("coll-1", "sunset.jpg")
	if got != "sunset.jpg" {
		t.Fatalf("expected released name to be reusable, got %q", got)
	}
}

func TestStripSuffix(t *testing.T) {
	cases := []struct {
		name      string
		wantTitle string
		wantHad   bool
	}{
		{"sunset.jpg", "sunset.jpg", false},
		{"sunset(1).jpg", "sunset.jpg", true},
		{"sunset(12).jpg", "sunset.jpg", true},
		{"trip (not a number).jpg", "trip (not a number).jpg", false},
	}
	for _, c := range cases {
		title, had := StripSuffix(c.name)
		if title != c.wantTitle || had != c.wantHad {
			t.Errorf("StripSuffix(%q) = (%q, %v), want (%q, %v)", c.name, title, had, c.wantTitle, c.wantHad)
		}
	}
}

func TestAllocateSanitizesInvalidCharacters(t *testing.T) {
	a := New()
	got := a.Allocate("coll-1", `weird:name?.jpg`)
	if got != "weird_name_.jpg" {
		t.Fatalf("got %q", got)
	}
}
