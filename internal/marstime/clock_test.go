package marstime

import (
	"math"
	"testing"
	"time"
)

// galeInstant and galeLongitude are the Gale Crater reference scenario:
// 2025-10-25T00:10:25Z at 137.4°E.
var galeInstant = time.Date(2025, 10, 25, 0, 10, 25, 0, time.UTC)

const galeLongitude = 137.4

func TestConvert_GaleCraterReference(t *testing.T) {
	r, err := Convert(galeInstant, galeLongitude)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		got  float64
		want float64
		tol  float64
	}{
		{"MSD", r.MarsSolDate, 53972.24070265746, 1e-7},
		{"MTC", r.MTCHours, 20.666479801293463, 1e-8},
		{"LMST", r.LMSTHours, 5.826479801293463, 1e-8},
		{"EOT", r.EOTHours, 0.5981388175289186, 1e-9},
		{"LTST", r.LTSTHours, 6.4246186188223815, 1e-8},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.want) > tt.tol {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if r.SolNumber != 53972 {
		t.Errorf("sol number = %d, want 53972", r.SolNumber)
	}
	if got := FormatHMS(r.LTSTHours); got != "06:25:29" {
		t.Errorf("LTST = %q, want \"06:25:29\"", got)
	}
}

func TestConvert_Deterministic(t *testing.T) {
	first, err := Convert(galeInstant, galeLongitude)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 100; i++ {
		r, err := Convert(galeInstant, galeLongitude)
		if err != nil {
			t.Fatal(err)
		}
		if r != first {
			t.Fatalf("conversion %d = %+v, differs from first %+v", i, r, first)
		}
	}
}

func TestConvert_PreEpoch(t *testing.T) {
	// Mars Pathfinder landing site (326.75°E), 1997-07-04T16:56:55Z.
	r, err := Convert(time.Date(1997, 7, 4, 16, 56, 55, 0, time.UTC), 326.75)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r.MarsSolDate-43909.57493829218) > 1e-7 {
		t.Errorf("MSD = %v, want 43909.57493829218", r.MarsSolDate)
	}
	if math.Abs(r.LTSTHours-2.9815384463893144) > 1e-8 {
		t.Errorf("LTST = %v, want 2.9815384463893144", r.LTSTHours)
	}
}

func TestClock_OneSolLater(t *testing.T) {
	// Advancing by exactly one mean sol keeps MTC fixed (within float
	// tolerance) and increments the sol count by one.
	later := galeInstant.Add(time.Duration(SolSeconds * float64(time.Second)))

	r1, err := Convert(galeInstant, 0)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := Convert(later, 0)
	if err != nil {
		t.Fatal(err)
	}

	if diff := math.Abs(r2.MTCHours - r1.MTCHours); diff > 1e-6 {
		t.Errorf("MTC drift after one sol = %v h, want < 1e-6", diff)
	}
	if r2.SolNumber != r1.SolNumber+1 {
		t.Errorf("sol number = %d, want %d", r2.SolNumber, r1.SolNumber+1)
	}
	if diff := r2.MarsSolDate - r1.MarsSolDate; math.Abs(diff-1.0) > 1e-8 {
		t.Errorf("MSD delta = %v, want 1.0", diff)
	}
}

func TestClock_LongitudeShift(t *testing.T) {
	// 15 degrees of east longitude is exactly one hour of LMST (mod 24).
	for _, lon := range []float64{0, 40, 137.4, 222.5, 350} {
		a, _ := Convert(galeInstant, lon)
		b, _ := Convert(galeInstant, lon+15)

		diff := Wrap24(b.LMSTHours - a.LMSTHours)
		if math.Abs(diff-1.0) > 1e-9 {
			t.Errorf("LMST(%v+15) - LMST(%v) = %v h, want 1.0", lon, lon, diff)
		}
	}
}

func TestClock_LongitudeWraparound(t *testing.T) {
	tests := []struct {
		name   string
		lonA   float64
		lonB   float64
	}{
		{"0 vs 360", 0, 360},
		{"gale vs gale+360", galeLongitude, galeLongitude + 360},
		{"negative alias", -222.6, 137.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := Convert(galeInstant, tt.lonA)
			b, _ := Convert(galeInstant, tt.lonB)
			if math.Abs(a.LTSTHours-b.LTSTHours) > 1e-9 {
				t.Errorf("LTST(%v) = %v, LTST(%v) = %v, want identical", tt.lonA, a.LTSTHours, tt.lonB, b.LTSTHours)
			}
		})
	}
}

func TestConvert_ZeroTime(t *testing.T) {
	if _, err := Convert(time.Time{}, 0); err != ErrInvalidTimestamp {
		t.Errorf("err = %v, want ErrInvalidTimestamp", err)
	}
}

func TestWrap24(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{23.5, 23.5},
		{24, 0},
		{25.25, 1.25},
		{-1, 23},
		{-25, 23},
		{48.5, 0.5},
	}
	for _, tt := range tests {
		if got := Wrap24(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Wrap24(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWrap24_Periodicity(t *testing.T) {
	for _, x := range []float64{0, 1.5, 13.37, 23.999, -6.25} {
		base := Wrap24(x)
		for k := -3; k <= 3; k++ {
			if got := Wrap24(x + 24.0*float64(k)); math.Abs(got-base) > 1e-9 {
				t.Errorf("Wrap24(%v + 24*%d) = %v, want %v", x, k, got, base)
			}
		}
	}
}

func TestNormalizeLongitude(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{137.4, 137.4},
		{360, 0},
		{361.5, 1.5},
		{-90, 270},
		{-720, 0},
	}
	for _, tt := range tests {
		if got := NormalizeLongitude(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizeLongitude(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
