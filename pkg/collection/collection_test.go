package collection

import (
	"fmt"
	"testing"
)

func ExampleUniqueStrings() {
	var strings = []string{
		"academy",
		"dicks",
		"academy",
		"",
		"dicks",
	}
	uniqueStrings := UniqueStrings(strings)

	for _, s := range uniqueStrings {
		fmt.Println(s)
	}

	// Unordered output:
	// academy
	// dicks
}

func ExampleUniqueSizes() {
	sizes := UniqueSizes([]string{" ys", "YM", "ys", "", "  ", "yl "})

	for _, s := range sizes {
		fmt.Println(s)
	}

	// Output:
	// YL
	// YM
	// YS
}

func TestSanitizeHard(t *testing.T) {
	got := SanitizeHard("  Nike&amp;Co. Phantom-GX!  ")
	want := "nike co phantom gx"
	if got != want {
		t.Fatalf("SanitizeHard = %q, want %q", got, want)
	}
}

func TestHashKeyStable(t *testing.T) {
	a := HashKey("Nike Phantom GX")
	b := HashKey("nike  phantom   gx")
	if a != b {
		t.Fatalf("hash key should be insensitive to case and spacing")
	}
	if a == HashKey("adidas predator") {
		t.Fatalf("distinct inputs should not collide here")
	}
}

func TestListsOverlap(t *testing.T) {
	if !ListsOverlap([]string{"YS", "YM"}, []string{"YM", "YL"}) {
		t.Fatal("expected overlap")
	}
	if ListsOverlap([]string{"YS"}, []string{"XL"}) {
		t.Fatal("expected no overlap")
	}
}
