package service

import (
	"fmt"
	"math"

	"hmm-tagger/internal/model/hmm"

	"gorgonia.org/tensor"
)

// ScoreMode selects how path scores are accumulated
type ScoreMode string

const (
	// ScorePlain multiplies raw probabilities. Long sentences can underflow to zero.
	ScorePlain ScoreMode = "plain"
	// ScoreLog sums log probabilities. Same argmax as ScorePlain wherever plain scores do not underflow.
	ScoreLog ScoreMode = "log"
)

// ParseScoreMode maps a configuration string to a ScoreMode; empty means plain
func ParseScoreMode(s string) (ScoreMode, error) {
	switch ScoreMode(s) {
	case "", ScorePlain:
		return ScorePlain, nil
	case ScoreLog:
		return ScoreLog, nil
	default:
		return "", fmt.Errorf("unknown score mode: %s", s)
	}
}

// lattice is the per-call T x N score and backpointer storage
type lattice struct {
	steps  int
	states int

	score       *tensor.Dense
	backpointer *tensor.Dense
}

func newLattice(steps, states int) *lattice {
	return &lattice{
		steps:       steps,
		states:      states,
		score:       tensor.New(tensor.WithShape(steps, states), tensor.Of(tensor.Float64)),
		backpointer: tensor.New(tensor.WithShape(steps, states), tensor.Of(tensor.Int)),
	}
}

// best returns the first state holding the maximum score at step t
func (l *lattice) best(t int) (int, error) {
	if l.states == 1 {
		return 0, nil
	}
	view, err := l.score.Slice(tensor.S(t))
	if err != nil {
		return 0, err
	}
	argmax, err := view.(*tensor.Dense).Argmax(tensor.AllAxes)
	if err != nil {
		return 0, err
	}
	return argmax.ScalarValue().(int), nil
}

// backtrace follows backpointers from the final state to the first step
func (l *lattice) backtrace(final int) ([]int, error) {
	path := make([]int, l.steps)
	path[l.steps-1] = final
	for t := l.steps - 2; t >= 0; t-- {
		prev, err := l.backpointer.At(t+1, path[t+1])
		if err != nil {
			return nil, err
		}
		path[t] = prev.(int)
	}
	return path, nil
}

// Decoder runs exact Viterbi decoding against a trained model
type Decoder struct {
	model *HMMModel
	mode  ScoreMode
}

// NewDecoder creates a decoder over an immutable model
func NewDecoder(model *HMMModel, mode ScoreMode) *Decoder {
	if mode == "" {
		mode = ScorePlain
	}
	return &Decoder{model: model, mode: mode}
}

// Mode returns the scoring mode of the decoder
func (d *Decoder) Mode() ScoreMode {
	return d.mode
}

// Decode returns the most probable tag for every token. Tokens must not include the
// leading START or trailing END markers.
func (d *Decoder) Decode(tokens []string) (hmm.TaggedSentence, error) {
	tagged, _, err := d.DecodeWithScore(tokens)
	return tagged, err
}

// DecodeWithScore is Decode plus the score of the best path (a log score in ScoreLog mode)
func (d *Decoder) DecodeWithScore(tokens []string) (hmm.TaggedSentence, float64, error) {
	m := d.model
	if m == nil || m.tags == nil || m.tags.Size() == 0 {
		return nil, 0, ErrModelNotTrained
	}
	if len(tokens) == 0 {
		return hmm.TaggedSentence{}, d.identity(), nil
	}
	start, ok := m.tags.ID(hmm.StartTag)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s has no transition row", ErrUnknownTag, hmm.StartTag)
	}

	steps, states := len(tokens), m.tags.Size()
	lat := newLattice(steps, states)
	emit := make([]float64, states)

	// transition rows are read in place from the model tensor
	trans := make([][]float64, states)
	for j := range trans {
		row, err := denseRow[float64](m.transition, j)
		if err != nil {
			return nil, 0, err
		}
		trans[j] = row
	}

	m.emissionRow(tokens[0], emit)
	first, err := denseRow[float64](lat.score, 0)
	if err != nil {
		return nil, 0, err
	}
	for i := 0; i < states; i++ {
		first[i] = d.extend(d.identity(), trans[start][i], emit[i])
	}

	prev := first
	for t := 1; t < steps; t++ {
		m.emissionRow(tokens[t], emit)
		cur, err := denseRow[float64](lat.score, t)
		if err != nil {
			return nil, 0, err
		}
		back, err := denseRow[int](lat.backpointer, t)
		if err != nil {
			return nil, 0, err
		}
		for i := 0; i < states; i++ {
			best := d.extend(prev[0], trans[0][i], emit[i])
			bestPrev := 0
			for j := 1; j < states; j++ {
				// strict > keeps the lowest index on ties
				if score := d.extend(prev[j], trans[j][i], emit[i]); score > best {
					best = score
					bestPrev = j
				}
			}
			cur[i] = best
			back[i] = bestPrev
		}
		prev = cur
	}

	bestFinal, err := lat.best(steps - 1)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to pick final state: %w", err)
	}
	path, err := lat.backtrace(bestFinal)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to trace best path: %w", err)
	}

	tagged := make(hmm.TaggedSentence, steps)
	for t, tagID := range path {
		tagged[t] = hmm.TaggedToken{Word: tokens[t], Tag: m.tags.Token(tagID)}
	}
	return tagged, prev[bestFinal], nil
}

func (d *Decoder) identity() float64 {
	if d.mode == ScoreLog {
		return 0
	}
	return 1
}

func (d *Decoder) extend(score, trans, emit float64) float64 {
	if d.mode == ScoreLog {
		return score + math.Log(trans) + math.Log(emit)
	}
	return score * trans * emit
}
