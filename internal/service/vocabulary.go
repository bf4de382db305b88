package service

import "sort"

// Vocabulary interns strings to dense integer IDs
type Vocabulary struct {
	tokenToID map[string]int
	idToToken []string
}

// NewVocabulary creates an empty vocabulary
func NewVocabulary() *Vocabulary {
	return &Vocabulary{
		tokenToID: make(map[string]int),
	}
}

// NewSortedVocabulary interns the distinct symbols in ascending order so that
// ID order matches sorted string order
func NewSortedVocabulary(symbols []string) *Vocabulary {
	distinct := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		distinct = append(distinct, s)
	}
	sort.Strings(distinct)

	v := NewVocabulary()
	for _, s := range distinct {
		v.Add(s)
	}
	return v
}

// Add interns a token and returns its ID
func (v *Vocabulary) Add(token string) int {
	if id, ok := v.tokenToID[token]; ok {
		return id
	}
	id := len(v.idToToken)
	v.tokenToID[token] = id
	v.idToToken = append(v.idToToken, token)
	return id
}

// ID returns the ID of a token
func (v *Vocabulary) ID(token string) (int, bool) {
	id, ok := v.tokenToID[token]
	return id, ok
}

// Token returns the token for an ID, or "" when out of range
func (v *Vocabulary) Token(id int) string {
	if id < 0 || id >= len(v.idToToken) {
		return ""
	}
	return v.idToToken[id]
}

// Size returns the number of interned tokens
func (v *Vocabulary) Size() int {
	return len(v.idToToken)
}

// Tokens returns a copy of the tokens in ID order
func (v *Vocabulary) Tokens() []string {
	out := make([]string, len(v.idToToken))
	copy(out, v.idToToken)
	return out
}
