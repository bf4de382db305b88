package hmm

import "strings"

// Sentinel tags and the raw markers that carry them in a corpus line
const (
	StartTag = "START"
	EndTag   = "END"

	StartMarker = "<s>"
	EndMarker   = `<\s>`
)

// TaggedToken is a single word with its part-of-speech tag
type TaggedToken struct {
	Word string `json:"word"`
	Tag  string `json:"tag"`
}

// String returns the token as word_TAG
func (t TaggedToken) String() string {
	return t.Word + "_" + t.Tag
}

// TaggedSentence is an ordered sequence of tagged tokens
type TaggedSentence []TaggedToken

// String returns the sentence as space-joined word_TAG tokens
func (s TaggedSentence) String() string {
	parts := make([]string, len(s))
	for i, tok := range s {
		parts[i] = tok.String()
	}
	return strings.Join(parts, " ")
}

// Words returns the words of the sentence in order
func (s TaggedSentence) Words() []string {
	words := make([]string, len(s))
	for i, tok := range s {
		words[i] = tok.Word
	}
	return words
}

// Tags returns the tags of the sentence in order
func (s TaggedSentence) Tags() []string {
	tags := make([]string, len(s))
	for i, tok := range s {
		tags[i] = tok.Tag
	}
	return tags
}

// Inner returns the sentence without its START and END sentinel pairs
func (s TaggedSentence) Inner() TaggedSentence {
	inner := s
	if len(inner) > 0 && inner[0].Tag == StartTag {
		inner = inner[1:]
	}
	if len(inner) > 0 && inner[len(inner)-1].Tag == EndTag {
		inner = inner[:len(inner)-1]
	}
	return inner
}

// NGram represents an n-gram (sequence of n symbols)
type NGram []string

// String returns the n-gram as a space-separated string
func (ng NGram) String() string {
	return strings.Join(ng, " ")
}
