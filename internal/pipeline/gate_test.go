package pipeline

import "testing"

func TestSampleRateGateEveryNth(t *testing.T) {
	g, err := NewSampleRateGate(4)
	if err != nil {
		t.Fatal(err)
	}
	var fired []int
	for i := 1; i <= 12; i++ {
		if g.ShouldForward() {
			fired = append(fired, i)
		}
	}
	want := []int{4, 8, 12}
	if len(fired) != len(want) {
		t.Fatalf("fired at %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("fired at %v, want %v", fired, want)
		}
	}
}

func TestSampleRateGateDivisorOne(t *testing.T) {
	g, err := NewSampleRateGate(1)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if !g.ShouldForward() {
			t.Fatalf("sample %d dropped with divisor 1", i+1)
		}
	}
}

func TestSampleRateGateRejectsBadDivisor(t *testing.T) {
	for _, d := range []int{0, -1} {
		if _, err := NewSampleRateGate(d); err == nil {
			t.Errorf("divisor %d accepted", d)
		}
	}
}
