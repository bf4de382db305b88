package service

import (
	"fmt"
	"math"
	"time"

	"hmm-tagger/internal/model/hmm"

	"github.com/google/uuid"
	"gorgonia.org/tensor"
)

const (
	// DefaultTransitionFloor is assigned to every tag bigram never observed in training
	DefaultTransitionFloor = 0.0001

	// DefaultSmoothingK is the additive constant of the emission smoother
	DefaultSmoothingK = 1.0
)

// ModelOptions configures table construction
type ModelOptions struct {
	TransitionFloor float64 `json:"transition_floor"`
	SmoothingK      float64 `json:"smoothing_k"`
}

// DefaultModelOptions returns the floor and smoothing constants used by the reference tagger
func DefaultModelOptions() ModelOptions {
	return ModelOptions{
		TransitionFloor: DefaultTransitionFloor,
		SmoothingK:      DefaultSmoothingK,
	}
}

// Counts holds the raw statistics gathered from a flattened training corpus
type Counts struct {
	TagCounts      map[string]int64            // tag -> occurrences
	BigramCounts   map[string]int64            // "PREV NEXT" -> occurrences
	EmissionCounts map[string]map[string]int64 // tag -> word -> occurrences
	Words          []string                    // distinct words, sorted
	TotalTokens    int64
}

// CountStreams gathers unigram, bigram and (tag, word) counts over index-aligned streams.
// Bigrams are counted across the whole concatenated tag stream, sentence boundaries included.
func CountStreams(words, tags []string) (*Counts, error) {
	if len(words) != len(tags) {
		return nil, fmt.Errorf("%w: %d words, %d tags", ErrMisalignedStreams, len(words), len(tags))
	}
	if len(tags) == 0 {
		return nil, ErrModelNotTrained
	}

	counts := &Counts{
		TagCounts:      UnigramCounts(tags),
		BigramCounts:   Frequencies(NGrams(2, tags)),
		EmissionCounts: make(map[string]map[string]int64),
		Words:          NewSortedVocabulary(words).Tokens(),
		TotalTokens:    int64(len(tags)),
	}

	for i, tag := range tags {
		byWord, ok := counts.EmissionCounts[tag]
		if !ok {
			byWord = make(map[string]int64)
			counts.EmissionCounts[tag] = byWord
		}
		byWord[words[i]]++
	}

	return counts, nil
}

type emissionKey struct {
	tag  int
	word int
}

// HMMModel holds the tag transition and word emission tables. It is immutable once built
// and safe for concurrent decoding.
type HMMModel struct {
	id        string
	createdAt time.Time
	options   ModelOptions
	counts    *Counts
	smoother  Smoother

	tags      *Vocabulary // sorted tagset
	words     *Vocabulary // sorted training vocabulary
	tagCounts []int64     // tag ID -> occurrences

	transition *tensor.Dense // N x N, row = previous tag, column = next tag

	emission map[emissionKey]float64 // observed (tag, word) pairs only
	fallback []float64               // tag ID -> probability of a word unseen under that tag
}

// BuildModel counts the aligned streams and constructs both probability tables
func BuildModel(words, tags []string, opts ModelOptions) (*HMMModel, error) {
	counts, err := CountStreams(words, tags)
	if err != nil {
		return nil, err
	}
	return NewHMMModel(counts, opts)
}

// NewHMMModel constructs the probability tables from previously gathered counts
func NewHMMModel(counts *Counts, opts ModelOptions) (*HMMModel, error) {
	if counts == nil || len(counts.TagCounts) == 0 {
		return nil, ErrModelNotTrained
	}
	if opts.TransitionFloor <= 0 {
		opts.TransitionFloor = DefaultTransitionFloor
	}
	smoother := NewAddKSmoother(opts.SmoothingK)
	opts.SmoothingK = smoother.K()

	tagList := make([]string, 0, len(counts.TagCounts))
	for tag := range counts.TagCounts {
		tagList = append(tagList, tag)
	}

	m := &HMMModel{
		id:        uuid.NewString(),
		createdAt: time.Now(),
		options:   opts,
		counts:    counts,
		smoother:  smoother,
		tags:      NewSortedVocabulary(tagList),
		words:     NewSortedVocabulary(counts.Words),
	}
	if m.words.Size() == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary", ErrDegenerateModel)
	}

	m.tagCounts = make([]int64, m.tags.Size())
	for i := range m.tagCounts {
		m.tagCounts[i] = counts.TagCounts[m.tags.Token(i)]
	}

	if err := m.buildTransitionTable(counts.BigramCounts); err != nil {
		return nil, err
	}
	if err := m.buildEmissionTable(counts.EmissionCounts); err != nil {
		return nil, err
	}

	return m, nil
}

// buildTransitionTable fills every (prev, next) cell of the tagset cross product.
// Rows are not normalized: unseen cells get the floor, not a share of the remainder.
func (m *HMMModel) buildTransitionTable(bigrams map[string]int64) error {
	n := m.tags.Size()
	m.transition = tensor.New(tensor.WithShape(n, n), tensor.Of(tensor.Float64))

	for i := 0; i < n; i++ {
		row, err := denseRow[float64](m.transition, i)
		if err != nil {
			return err
		}
		prev := m.tags.Token(i)
		for j := range row {
			key := hmm.NGram{prev, m.tags.Token(j)}.String()
			if c := bigrams[key]; c > 0 && m.tagCounts[i] > 0 {
				row[j] = float64(c) / float64(m.tagCounts[i])
			} else {
				row[j] = m.options.TransitionFloor
			}
		}
	}
	return nil
}

// denseRow returns row r of a 2-D tensor as a slice sharing the tensor's storage
func denseRow[T float64 | int](d *tensor.Dense, r int) ([]T, error) {
	shape := d.Shape()
	if len(shape) != 2 || r < 0 || r >= shape[0] {
		return nil, fmt.Errorf("row %d out of range for shape %v", r, shape)
	}

	// a single-column row slices down to a scalar, so index the flat data instead
	if shape[1] == 1 {
		data, ok := d.Data().([]T)
		if !ok {
			return nil, fmt.Errorf("unexpected tensor dtype %v", d.Dtype())
		}
		return data[r : r+1], nil
	}

	view, err := d.Slice(tensor.S(r))
	if err != nil {
		return nil, fmt.Errorf("failed to slice row %d: %w", r, err)
	}
	data, ok := view.Data().([]T)
	if !ok {
		return nil, fmt.Errorf("unexpected tensor dtype %v", d.Dtype())
	}
	return data, nil
}

func (m *HMMModel) buildEmissionTable(emissionCounts map[string]map[string]int64) error {
	vocabSize := m.words.Size()

	m.fallback = make([]float64, m.tags.Size())
	for i, count := range m.tagCounts {
		p := m.smoother.Smooth(0, count, vocabSize)
		if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: unseen-word probability for tag %q is %v", ErrDegenerateModel, m.tags.Token(i), p)
		}
		m.fallback[i] = p
	}

	m.emission = make(map[emissionKey]float64)
	for tag, byWord := range emissionCounts {
		tagID, ok := m.tags.ID(tag)
		if !ok {
			return fmt.Errorf("%w: emission counts reference tag %q", ErrUnknownTag, tag)
		}
		for word, c := range byWord {
			wordID, ok := m.words.ID(word)
			if !ok {
				return fmt.Errorf("%w: word %q missing from vocabulary", ErrDegenerateModel, word)
			}
			m.emission[emissionKey{tag: tagID, word: wordID}] = m.smoother.Smooth(c, m.tagCounts[tagID], vocabSize)
		}
	}
	return nil
}

func (m *HMMModel) transitionAt(prev, next int) float64 {
	v, err := m.transition.At(prev, next)
	if err != nil {
		return 0
	}
	return v.(float64)
}

// emissionRow writes the emission probability of word under every tag into row
func (m *HMMModel) emissionRow(word string, row []float64) {
	wordID, known := m.words.ID(word)
	for i := range row {
		if known {
			if p, ok := m.emission[emissionKey{tag: i, word: wordID}]; ok {
				row[i] = p
				continue
			}
		}
		row[i] = m.fallback[i]
	}
}

// ID returns the identifier assigned when the model was built
func (m *HMMModel) ID() string {
	return m.id
}

// CreatedAt returns when the model was built
func (m *HMMModel) CreatedAt() time.Time {
	return m.createdAt
}

// Options returns the effective floor and smoothing constants
func (m *HMMModel) Options() ModelOptions {
	return m.options
}

// Counts returns the raw training statistics the tables were built from
func (m *HMMModel) Counts() *Counts {
	return m.counts
}

// Tags returns the tagset in sorted order
func (m *HMMModel) Tags() []string {
	return m.tags.Tokens()
}

// TransitionProb returns P(next | prev)
func (m *HMMModel) TransitionProb(prev, next string) (float64, error) {
	i, ok := m.tags.ID(prev)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTag, prev)
	}
	j, ok := m.tags.ID(next)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTag, next)
	}
	return m.transitionAt(i, j), nil
}

// EmissionProb returns the smoothed P(word | tag), falling back to k / (count(tag) + k*V)
// when the pair was not observed
func (m *HMMModel) EmissionProb(tag, word string) (float64, error) {
	tagID, ok := m.tags.ID(tag)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTag, tag)
	}
	if wordID, ok := m.words.ID(word); ok {
		if p, ok := m.emission[emissionKey{tag: tagID, word: wordID}]; ok {
			return p, nil
		}
	}
	return m.fallback[tagID], nil
}

// TransitionRow returns P(next | prev) for every next tag
func (m *HMMModel) TransitionRow(prev string) (map[string]float64, error) {
	i, ok := m.tags.ID(prev)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTag, prev)
	}
	probs, err := denseRow[float64](m.transition, i)
	if err != nil {
		return nil, err
	}
	row := make(map[string]float64, len(probs))
	for j, p := range probs {
		row[m.tags.Token(j)] = p
	}
	return row, nil
}

// TransitionTable returns the full table as prev -> next -> probability
func (m *HMMModel) TransitionTable() map[string]map[string]float64 {
	table := make(map[string]map[string]float64, m.tags.Size())
	for i := 0; i < m.tags.Size(); i++ {
		row, _ := m.TransitionRow(m.tags.Token(i))
		table[m.tags.Token(i)] = row
	}
	return table
}

// EmissionTable returns the observed entries as tag -> word -> probability.
// Unseen pairs are absent and must be resolved with EmissionProb.
func (m *HMMModel) EmissionTable() map[string]map[string]float64 {
	table := make(map[string]map[string]float64)
	for key, p := range m.emission {
		tag := m.tags.Token(key.tag)
		byWord, ok := table[tag]
		if !ok {
			byWord = make(map[string]float64)
			table[tag] = byWord
		}
		byWord[m.words.Token(key.word)] = p
	}
	return table
}

// Stats returns statistics about the model
func (m *HMMModel) Stats() ModelStats {
	observed := 0
	for _, c := range m.counts.BigramCounts {
		if c > 0 {
			observed++
		}
	}
	return ModelStats{
		ModelID:         m.id,
		CreatedAt:       m.createdAt,
		Tags:            m.Tags(),
		TagsetSize:      m.tags.Size(),
		VocabularySize:  m.words.Size(),
		TotalTokens:     m.counts.TotalTokens,
		ObservedBigrams: observed,
		EmissionEntries: len(m.emission),
		SmootherName:    m.smoother.Name(),
		SmoothingK:      m.options.SmoothingK,
		TransitionFloor: m.options.TransitionFloor,
	}
}

// ModelStats contains statistics about an HMM model
type ModelStats struct {
	ModelID         string    `json:"model_id"`
	CreatedAt       time.Time `json:"created_at"`
	Tags            []string  `json:"tags"`
	TagsetSize      int       `json:"tagset_size"`
	VocabularySize  int       `json:"vocabulary_size"`
	TotalTokens     int64     `json:"total_tokens"`
	ObservedBigrams int       `json:"observed_bigrams"`
	EmissionEntries int       `json:"emission_entries"`
	SmootherName    string    `json:"smoother_name"`
	SmoothingK      float64   `json:"smoothing_k"`
	TransitionFloor float64   `json:"transition_floor"`
	ScoreMode       string    `json:"score_mode,omitempty"`
}
