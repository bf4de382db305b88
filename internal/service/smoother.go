package service

// Smoother defines the interface for emission probability smoothing algorithms
type Smoother interface {
	// Smooth computes the smoothed probability of a word under a tag
	// count: occurrences of the (tag, word) pair, zero for unseen pairs
	// contextCount: occurrences of the tag
	// vocabularySize: number of distinct words in training
	Smooth(count, contextCount int64, vocabularySize int) float64

	// Name returns the name of the smoothing algorithm
	Name() string
}

// AddKSmoother implements add-k (Laplace) smoothing
type AddKSmoother struct {
	k float64
}

// NewAddKSmoother creates a new add-k smoother
func NewAddKSmoother(k float64) *AddKSmoother {
	if k <= 0 {
		k = 1.0 // Default to Laplace smoothing
	}
	return &AddKSmoother{k: k}
}

// K returns the additive constant
func (s *AddKSmoother) K() float64 {
	return s.k
}

// Smooth returns (count + k) / (contextCount + k*V). The caller guarantees a positive denominator.
func (s *AddKSmoother) Smooth(count, contextCount int64, vocabularySize int) float64 {
	numerator := float64(count) + s.k
	denominator := float64(contextCount) + (s.k * float64(vocabularySize))
	return numerator / denominator
}

func (s *AddKSmoother) Name() string {
	return "AddK"
}
