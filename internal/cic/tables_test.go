package cic

import (
	"errors"
	"testing"
)

func TestRegionTablesIndependent(t *testing.T) {
	ntsc := NTSC.InitialMemory()
	pal := PAL.InitialMemory()
	if ntsc == pal {
		t.Fatalf("region images should differ")
	}
	ntsc[0] = 0x7
	if again := NTSC.InitialMemory(); again[0] != 0xE {
		t.Fatalf("initial memory must be returned by value")
	}
	if pal[0x1f] != 0xC || NTSC.InitialMemory()[0x1f] != 0x8 {
		t.Fatalf("unexpected table tails")
	}
}

func TestRegionHelpers(t *testing.T) {
	if NTSC.HelloNibble() != 0x1 || PAL.HelloNibble() != 0x5 {
		t.Fatalf("unexpected hello nibbles")
	}
	if NTSC.CompareStep() != 1 || PAL.CompareStep() != -1 {
		t.Fatalf("unexpected compare directions")
	}
	r, err := ParseRegion(" PAL ")
	if err != nil || r != PAL {
		t.Fatalf("parse pal: %v %v", r, err)
	}
	if _, err := ParseRegion("secam"); !errors.Is(err, ErrUnknownRegion) {
		t.Fatalf("expected ErrUnknownRegion, got %v", err)
	}
}

func TestLookupVariantAliases(t *testing.T) {
	v, err := LookupVariant("cic7101")
	if err != nil {
		t.Fatalf("lookup alias: %v", err)
	}
	if v.Name != "6102" || v.Seed != 0x3F {
		t.Fatalf("unexpected variant: %+v", v)
	}
	if v.SeedHigh() != 0x3 || v.SeedLow() != 0xF {
		t.Fatalf("unexpected seed nibbles: %X %X", v.SeedHigh(), v.SeedLow())
	}
	v.Aliases[0] = "mutated"
	again, _ := LookupVariant("6102")
	if again.Aliases[0] != "7101" {
		t.Fatalf("variant table must not be mutable through lookups")
	}
	if _, err := LookupVariant("6104"); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("expected ErrUnknownVariant, got %v", err)
	}
	if names := VariantNames(); len(names) != 6 || names[0] != "6101" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestActiveVariantResolves(t *testing.T) {
	v := ActiveVariant()
	if v.Name == "" {
		t.Fatalf("active variant should resolve")
	}
}

func TestIndexHelpers(t *testing.T) {
	if Wrap16(0x1a) != 0x0a || Wrap32(33) != 1 || Wrap30(31) != 1 || Wrap30(-1) != 29 {
		t.Fatalf("unexpected wrap results")
	}
	if BlockEnd(0x0a) != 0x10 || BlockEnd(0x10) != 0x20 || BlockEnd(0) != 0x10 {
		t.Fatalf("unexpected block ends")
	}
	var m SessionMemory
	m.Set(0x21, 0x1F)
	if m.At(1) != 0xF {
		t.Fatalf("Set should wrap and mask: %X", m.At(1))
	}
	m.High()[0] = 0x3
	if m[0x10] != 0x3 {
		t.Fatalf("high block must alias memory")
	}
}

func TestCompareStartAndSteps(t *testing.T) {
	var mem SessionMemory
	if got := CompareStart(&mem); got != 0x11 {
		t.Fatalf("zero selector must start at 0x11, got %#x", got)
	}
	mem.Set(CompareIndex, 0x3)
	if got := CompareStart(&mem); got != 0x13 {
		t.Fatalf("unexpected start %#x", got)
	}
	mem[CompareIndex] = 0xFC
	if got := CompareStart(&mem); got != 0x1C {
		t.Fatalf("selector must be masked, got %#x", got)
	}

	cases := []struct {
		region Region
		start  int
		want   int
	}{
		{NTSC, 0x13, 13},
		{NTSC, 0x1F, 1},
		{NTSC, 0x11, 15},
		{PAL, 0x1C, 12},
		{PAL, 0x11, 1},
		{PAL, 0x1F, 15},
	}
	for _, tc := range cases {
		if got := CompareSteps(tc.region, tc.start); got != tc.want {
			t.Fatalf("%s start %#x: got %d want %d", tc.region, tc.start, got, tc.want)
		}
	}
}
