package display

import (
	"math"
	"sync"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"nerva/backend/internal/ai"
	"nerva/backend/internal/analysis"
	"nerva/backend/internal/geometry"
)

func sampleResult(t *testing.T, integrity float64) analysis.Result {
	t.Helper()
	v, err := geometry.MapToSphere(75, 25)
	if err != nil {
		t.Fatal(err)
	}
	return analysis.Result{
		ID:             "r1",
		Assessment:     ai.Assessment{ThesisStrength: 75, AntithesisRisk: 25, IntegrityScore: integrity, Synthesis: "Stage it."},
		Vector:         v,
		Classification: geometry.Classify(integrity),
	}
}

func TestRenderDefault(t *testing.T) {
	scene := Render(nil)
	if scene.Needle[1] != (Point{Z: 1}) {
		t.Fatalf("default needle should point up, got %+v", scene.Needle[1])
	}
	if scene.Banner != "" || scene.IntegrityScore != nil {
		t.Fatalf("default scene should not carry a result: %+v", scene.Banner)
	}
	if len(scene.Sphere.X) != MeshResolution || len(scene.Sphere.X[0]) != MeshResolution {
		t.Fatalf("unexpected mesh size %d", len(scene.Sphere.X))
	}
	for i := range scene.Sphere.X {
		for j := range scene.Sphere.X[i] {
			x, y, z := scene.Sphere.X[i][j], scene.Sphere.Y[i][j], scene.Sphere.Z[i][j]
			if !scalar.EqualWithinAbs(math.Sqrt(x*x+y*y+z*z), 1, 1e-9) {
				t.Fatalf("mesh point (%d,%d) off the unit sphere", i, j)
			}
		}
	}
	for _, p := range scene.Horizon {
		if p.Z != 0 {
			t.Fatalf("horizon point above equator: %+v", p)
		}
	}
}

func TestRenderResult(t *testing.T) {
	tests := []struct {
		name      string
		integrity float64
		banner    string
	}{
		{"aligned", 50, AlignedBanner},
		{"sub-optimal", 49.999, SubOptimalBanner},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := sampleResult(t, tc.integrity)
			scene := Render(&r)
			if scene.Banner != tc.banner {
				t.Fatalf("banner %q, want %q", scene.Banner, tc.banner)
			}
			if scene.Needle[1].Z != r.Vector.Z || scene.Needle[1].Y != r.Vector.Y {
				t.Fatalf("needle %+v does not match vector %+v", scene.Needle[1], r.Vector)
			}
			if scene.IntegrityScore == nil || *scene.IntegrityScore != tc.integrity {
				t.Fatalf("unexpected integrity %v", scene.IntegrityScore)
			}
		})
	}
}

func TestSlot(t *testing.T) {
	var slot Slot
	if slot.Load() != nil {
		t.Fatal("new slot should be empty")
	}

	first := sampleResult(t, 80)
	slot.Publish(analysis.Event{Type: analysis.EventStarted})
	if slot.Load() != nil {
		t.Fatal("started event should not fill the slot")
	}
	slot.Publish(analysis.Event{Type: analysis.EventEvaluation, Result: &first})
	got := slot.Load()
	if got == nil || got.ID != "r1" {
		t.Fatalf("unexpected slot contents %+v", got)
	}
	got.ID = "mutated"
	if slot.Load().ID != "r1" {
		t.Fatal("Load must return a copy")
	}

	second := sampleResult(t, 10)
	second.ID = "r2"
	slot.Store(second)
	if slot.Load().ID != "r2" {
		t.Fatal("Store should overwrite")
	}
	slot.Clear()
	if slot.Load() != nil {
		t.Fatal("Clear should empty the slot")
	}
}

func TestSlotConcurrentAccess(t *testing.T) {
	var slot Slot
	r := sampleResult(t, 60)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slot.Store(r)
			_ = slot.Load()
			slot.Clear()
		}()
	}
	wg.Wait()
}
