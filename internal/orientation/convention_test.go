package orientation

import (
	"math"
	"testing"
)

func TestConventionByNameUnknown(t *testing.T) {
	if _, err := ConventionByName("sideways"); err == nil {
		t.Fatal("expected error for unknown convention")
	}
}

func TestConventionNames(t *testing.T) {
	names := ConventionNames()
	if len(names) != len(conventions) {
		t.Fatalf("got %d names, want %d", len(names), len(conventions))
	}
	found := false
	for _, n := range names {
		if n == "identity" {
			found = true
		}
	}
	if !found {
		t.Error("identity missing from convention names")
	}
}

func TestTransformIdentityIsNoOp(t *testing.T) {
	q := aboutAxis(0.6, 0, 0.8, 1.3)
	o, err := Transform(q, IdentityConvention())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !quatClose(o.Quat, q, tol) {
		t.Errorf("identity transform changed quaternion: %+v -> %+v", q, o.Quat)
	}
}

func TestTransformPreservesNorm(t *testing.T) {
	q := aboutAxis(0, 0.6, 0.8, 0.7)
	for name := range conventions {
		c, err := ConventionByName(name)
		if err != nil {
			t.Fatalf("ConventionByName(%q): %v", name, err)
		}
		o, err := Transform(q, c)
		if err != nil {
			t.Fatalf("Transform under %q: %v", name, err)
		}
		if math.Abs(o.Quat.Norm()-1) > 1e-9 {
			t.Errorf("convention %q produced norm %v", name, o.Quat.Norm())
		}
	}
}

func TestTransformSwapXZRemapsAxes(t *testing.T) {
	c, err := ConventionByName("swap_xz")
	if err != nil {
		t.Fatal(err)
	}

	// swap_xz is a reflection, so conjugating by it reverses the rotation
	// sense as well as swapping the axes: a sensor Z rotation of +30°
	// reads back as a world roll of -30°.
	o, err := Transform(aboutAxis(0, 0, 1, 30*math.Pi/180), c)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(o.Roll-(-30)) > 1e-6 || math.Abs(o.Pitch) > 1e-6 || math.Abs(o.Yaw) > 1e-6 {
		t.Errorf("sensor Z rotation: got (%v, %v, %v), want (-30, 0, 0)", o.Roll, o.Pitch, o.Yaw)
	}

	// And the sensor X axis lands on world Z.
	o, err = Transform(aboutAxis(1, 0, 0, 30*math.Pi/180), c)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(o.Roll) > 1e-6 || math.Abs(o.Pitch) > 1e-6 || math.Abs(o.Yaw-(-30)) > 1e-6 {
		t.Errorf("sensor X rotation: got (%v, %v, %v), want (0, 0, -30)", o.Roll, o.Pitch, o.Yaw)
	}
}

func TestTransformMalformedInput(t *testing.T) {
	o, err := Transform(Quaternion{W: math.NaN()}, IdentityConvention())
	if err == nil {
		t.Fatal("expected error for NaN quaternion")
	}
	if o != (Orientation{}) {
		t.Errorf("error path returned non-zero orientation: %+v", o)
	}
}
