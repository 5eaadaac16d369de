package main

import (
	"testing"

	"github.com/gogpu/sculpt"
)

func TestSessionReusesExtractor(t *testing.T) {
	var s session
	defer s.close()

	first := s.extractor(0)
	if first == nil {
		t.Fatal("extractor(0) returned nil")
	}
	if got := s.extractor(0); got != first {
		t.Error("same isovalue rebuilt the extractor")
	}
	if got := s.extractor(0.5); got == first {
		t.Error("changed isovalue did not rebuild the extractor")
	}
}

func TestSphereFieldSign(t *testing.T) {
	size := sculpt.GridSize{X: 16, Y: 16, Z: 16}
	f := sphereField(size, 0.4, 0)

	center := f[size.Index(8, 8, 8)]
	corner := f[size.Index(0, 0, 0)]
	if center >= 0 {
		t.Errorf("center sample = %v, want negative (inside)", center)
	}
	if corner <= 0 {
		t.Errorf("corner sample = %v, want positive (outside)", corner)
	}
}
