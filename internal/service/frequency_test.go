package service

import (
	"reflect"
	"testing"
)

func TestNGrams(t *testing.T) {
	seq := []string{"START", "N_NN", "V_VM", "END"}

	tests := []struct {
		name string
		n    int
		want []string
	}{
		{"bigrams", 2, []string{"START N_NN", "N_NN V_VM", "V_VM END"}},
		{"unigrams", 1, []string{"START", "N_NN", "V_VM", "END"}},
		{"whole sequence", 4, []string{"START N_NN V_VM END"}},
		{"wider than sequence", 5, nil},
		{"zero width", 0, nil},
		{"negative width", -2, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ngrams := NGrams(tt.n, seq)
			var got []string
			for _, ng := range ngrams {
				got = append(got, ng.String())
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("NGrams(%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}
}

func TestNGrams_EmptySequence(t *testing.T) {
	if got := NGrams(2, nil); len(got) != 0 {
		t.Fatalf("Expected no windows for empty sequence, got %v", got)
	}
}

func TestNGrams_DoesNotAliasInput(t *testing.T) {
	seq := []string{"a", "b", "c"}
	ngrams := NGrams(2, seq)
	seq[0] = "changed"

	if ngrams[0][0] != "a" {
		t.Fatalf("Window aliases the input slice: %v", ngrams[0])
	}
}

func TestFrequencies(t *testing.T) {
	tags := []string{"START", "NOUN", "VERB", "END", "START", "NOUN", "END"}
	freq := Frequencies(NGrams(2, tags))

	want := map[string]int64{
		"START NOUN": 2,
		"NOUN VERB":  1,
		"VERB END":   1,
		"END START":  1,
		"NOUN END":   1,
	}
	if !reflect.DeepEqual(freq, want) {
		t.Fatalf("Frequencies = %v, want %v", freq, want)
	}
}

func TestUnigramCounts(t *testing.T) {
	counts := UnigramCounts([]string{"a", "b", "a", "a"})
	if counts["a"] != 3 || counts["b"] != 1 || len(counts) != 2 {
		t.Fatalf("Unexpected counts %v", counts)
	}
}

func TestVocabulary(t *testing.T) {
	v := NewSortedVocabulary([]string{"VERB", "NOUN", "START", "NOUN", "END"})

	if v.Size() != 4 {
		t.Fatalf("Expected 4 distinct tokens, got %d", v.Size())
	}
	want := []string{"END", "NOUN", "START", "VERB"}
	if !reflect.DeepEqual(v.Tokens(), want) {
		t.Fatalf("Tokens = %v, want %v", v.Tokens(), want)
	}
	if id, ok := v.ID("START"); !ok || id != 2 {
		t.Fatalf("ID(START) = %d, %v; want 2, true", id, ok)
	}
	if _, ok := v.ID("missing"); ok {
		t.Fatalf("ID of missing token should not be found")
	}
	if v.Token(99) != "" || v.Token(-1) != "" {
		t.Fatalf("Out of range Token should be empty")
	}
	if id := v.Add("NOUN"); id != 1 {
		t.Fatalf("Re-adding a token should return its ID, got %d", id)
	}
}
