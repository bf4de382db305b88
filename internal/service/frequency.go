package service

import "hmm-tagger/internal/model/hmm"

// NGrams returns every contiguous window of width n over seq, sliding by one.
// No windows are produced when n is smaller than one or larger than the sequence.
func NGrams(n int, seq []string) []hmm.NGram {
	if n < 1 || n > len(seq) {
		return nil
	}

	result := make([]hmm.NGram, 0, len(seq)-n+1)
	for i := 0; i <= len(seq)-n; i++ {
		ng := make(hmm.NGram, n)
		copy(ng, seq[i:i+n])
		result = append(result, ng)
	}
	return result
}

// Frequencies counts each distinct n-gram keyed by its space-joined form
func Frequencies(ngrams []hmm.NGram) map[string]int64 {
	freq := make(map[string]int64, len(ngrams))
	for _, ng := range ngrams {
		freq[ng.String()]++
	}
	return freq
}

// UnigramCounts counts occurrences of each symbol
func UnigramCounts(seq []string) map[string]int64 {
	counts := make(map[string]int64)
	for _, s := range seq {
		counts[s]++
	}
	return counts
}
