package quality

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-lightcurve/internal/testutil"
	"github.com/cwbudde/algo-lightcurve/lightcurve"
)

func TestBitmaskComposition(t *testing.T) {
	// The strictest level covers every defined flag: all 21 bits except the
	// reserved bit 10.
	if got := uint32(BitmaskHardest); got != 2096639 {
		t.Fatalf("hardest = %d, want 2096639", got)
	}
	if BitmaskDefault&^BitmaskHard != 0 {
		t.Fatal("default excludes flags that hard does not")
	}
	if BitmaskHard&^BitmaskHardest != 0 {
		t.Fatal("hard excludes flags that hardest does not")
	}
	if BitmaskDefault&Bitmask(ZeroCrossing) != 0 {
		t.Fatal("default should keep zero-crossing cadences")
	}
	if BitmaskHard&Bitmask(PossibleThrusterFiring) == 0 {
		t.Fatal("hard should exclude possible thruster firings")
	}
	if BitmaskDefault&Bitmask(NoData) == 0 || BitmaskDefault&Bitmask(ThrusterFiring) == 0 {
		t.Fatal("default should exclude no-data and thruster-firing cadences")
	}
}

func TestMaskMonotonicity(t *testing.T) {
	// Stricter levels must keep a subset of what looser levels keep. The
	// tweak and desaturation cadences go at the default level, the dropout
	// and possible firing at hard, the zero crossing and rolling band only
	// at hardest.
	flags := []uint32{
		0,
		uint32(AttitudeTweak),
		uint32(SensitivityDropout),
		uint32(ZeroCrossing),
		uint32(Desat | ZeroCrossing),
		0,
		uint32(RollingBandInAperture),
		uint32(PossibleThrusterFiring),
		0,
	}

	counts := make(map[Bitmask]int)
	masks := make(map[Bitmask][]bool)
	for _, bm := range []Bitmask{BitmaskNone, BitmaskDefault, BitmaskHard, BitmaskHardest} {
		keep := Mask(flags, bm)
		masks[bm] = keep
		for _, b := range keep {
			if b {
				counts[bm]++
			}
		}
	}

	if counts[BitmaskNone] != 9 || counts[BitmaskDefault] != 7 || counts[BitmaskHard] != 5 || counts[BitmaskHardest] != 3 {
		t.Fatalf("kept counts = %d/%d/%d/%d, want 9/7/5/3",
			counts[BitmaskNone], counts[BitmaskDefault], counts[BitmaskHard], counts[BitmaskHardest])
	}
	for i := range flags {
		if masks[BitmaskHardest][i] && !masks[BitmaskHard][i] {
			t.Fatalf("cadence %d kept by hardest but not by hard", i)
		}
		if masks[BitmaskHard][i] && !masks[BitmaskDefault][i] {
			t.Fatalf("cadence %d kept by hard but not by default", i)
		}
	}
}

func TestMaskRawBitmask(t *testing.T) {
	flags := []uint32{0, 1, 2, 3, 4}
	keep := Mask(flags, Bitmask(1))
	want := []bool{true, false, true, false, true}
	for i := range want {
		if keep[i] != want[i] {
			t.Fatalf("keep[%d] = %v, want %v", i, keep[i], want[i])
		}
	}
}

func TestParseBitmask(t *testing.T) {
	cases := []struct {
		in   string
		want Bitmask
	}{
		{"none", BitmaskNone},
		{"Default", BitmaskDefault},
		{" hard ", BitmaskHard},
		{"HARDEST", BitmaskHardest},
		{"1", Bitmask(1)},
		{"2096639", BitmaskHardest},
		{"0x10", Bitmask(ZeroCrossing)},
	}
	for _, c := range cases {
		got, err := ParseBitmask(c.in)
		if err != nil {
			t.Fatalf("ParseBitmask(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseBitmask(%q) = %d, want %d", c.in, got, c.want)
		}
	}

	for _, in := range []string{"", "harsh", "-5", "1e3"} {
		if _, err := ParseBitmask(in); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("ParseBitmask(%q) error = %v, want ErrInvalidParameter", in, err)
		}
	}
}

func TestApply(t *testing.T) {
	n := 8
	k, err := lightcurve.NewKepler(
		testutil.Cadences(n, 0, 1),
		testutil.FlatFlux(n, 1.0),
		nil,
		testutil.FlatFlux(n, 50),
		testutil.FlatFlux(n, 30),
	)
	if err != nil {
		t.Fatalf("NewKepler: %v", err)
	}
	k.Quality = []uint32{0, uint32(ThrusterFiring), 0, uint32(ZeroCrossing), 0, 0, uint32(NoData), 0}

	out, err := Apply(k, BitmaskDefault)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// Default drops the thruster firing and the data gap, not the zero
	// crossing.
	if out.Len() != 6 {
		t.Fatalf("kept %d cadences, want 6", out.Len())
	}
	if out.Time[1] != 2 || len(out.CentroidCol) != 6 {
		t.Fatalf("filtered series misaligned: times %v, %d centroids", out.Time, len(out.CentroidCol))
	}

	out, err = Apply(k, BitmaskHardest)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Len() != 5 {
		t.Fatalf("kept %d cadences under hardest, want 5", out.Len())
	}

	bare, err := lightcurve.NewKepler(testutil.Cadences(4, 0, 1), testutil.FlatFlux(4, 1.0), nil, nil, nil)
	if err != nil {
		t.Fatalf("NewKepler: %v", err)
	}
	out, err = Apply(bare, BitmaskHardest)
	if err != nil {
		t.Fatalf("Apply without flags: %v", err)
	}
	if out.Len() != 4 {
		t.Fatalf("kept %d cadences without flags, want all 4", out.Len())
	}
}

func TestBitmaskString(t *testing.T) {
	for _, c := range []struct {
		bm   Bitmask
		want string
	}{
		{BitmaskNone, "none"},
		{BitmaskDefault, "default"},
		{BitmaskHard, "hard"},
		{BitmaskHardest, "hardest"},
		{Bitmask(17), "17"},
	} {
		if got := c.bm.String(); got != c.want {
			t.Fatalf("String(%d) = %q, want %q", uint32(c.bm), got, c.want)
		}
	}

	if got := ThrusterFiring.String(); got != "thruster firing" {
		t.Fatalf("flag name = %q", got)
	}
	if got := Flag(1 << 9).String(); got != "0x200" {
		t.Fatalf("reserved flag name = %q", got)
	}
}
