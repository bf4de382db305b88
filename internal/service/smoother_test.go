package service

import "testing"

func TestAddKSmoother(t *testing.T) {
	tests := []struct {
		name         string
		k            float64
		count        int64
		contextCount int64
		vocab        int
		want         float64
	}{
		{"laplace observed", 1, 1, 2, 5, 2.0 / 7.0},
		{"laplace unseen", 1, 0, 2, 5, 1.0 / 7.0},
		{"half k", 0.5, 2, 4, 4, 2.5 / 6.0},
		{"non-positive k defaults to one", 0, 0, 1, 1, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewAddKSmoother(tt.k)
			if got := s.Smooth(tt.count, tt.contextCount, tt.vocab); !almostEqual(got, tt.want) {
				t.Fatalf("Smooth = %v, want %v", got, tt.want)
			}
		})
	}

	if name := NewAddKSmoother(1).Name(); name != "AddK" {
		t.Fatalf("Expected AddK, got %s", name)
	}
}
