package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hmm-tagger/internal/model/hmm"

	"go.uber.org/zap"
)

func TestWrapSentence(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"bare", "hello world", []string{"<s>", "hello", "world", `<\s>`}},
		{"already wrapped", `<s> hello <\s>`, []string{"<s>", "hello", `<\s>`}},
		{"glued markers", `<s>hello<\s>`, []string{"<s>", "hello", `<\s>`}},
		{"leading space", ` <s>hello`, []string{"<s>", "hello", `<\s>`}},
		{"glued end with trailing char", `hello<\s>x`, []string{"<s>", "hello", `<\s>`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Fields(WrapSentence(tt.line))
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Fatalf("WrapSentence(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestPreprocessLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"footnote reference", "राम_N_NNP[१२] घर_N_NN", []string{"<s>", "राम_N_NNP", "घर_N_NN", `<\s>`}},
		{"ellipsis", "राम_N_NNP...घर_N_NN", []string{"<s>", "राम_N_NNP", "घर_N_NN", `<\s>`}},
		{"comma removed", "राम_N_NNP, घर_N_NN", []string{"<s>", "राम_N_NNP", "घर_N_NN", `<\s>`}},
		{"semicolon split", "राम_N_NNP;घर_N_NN", []string{"<s>", "राम_N_NNP", ";_RD_PUNC", "घर_N_NN", `<\s>`}},
		{"parenthesis split", "(राम_N_NNP)", []string{"<s>", "(_RD_SYM", "राम_N_NNP", ")_RD_SYM", `<\s>`}},
		{"closing marker variant", "राम_N_NNP</s>", []string{"<s>", "राम_N_NNP", `<\s>`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Fields(PreprocessLine(tt.line))
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Fatalf("PreprocessLine(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestSplitSentenceEnds(t *testing.T) {
	input := []string{"राम", "खाता।", "!", "क्या?!"}
	want := []string{"राम", "खाता", "।_SENT", "!_SENT", "क्या", "?_SENT", "!_SENT"}

	got := SplitSentenceEnds(input)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("SplitSentenceEnds = %q, want %q", got, want)
	}
	if input[1] != "खाता।" {
		t.Fatalf("SplitSentenceEnds modified its input: %q", input)
	}
}

func TestParseTokens(t *testing.T) {
	got := ParseTokens([]string{"<s>", "dog_nn", "run_V_VM", "abcP", "xyz", `<\s>`})
	want := hmm.TaggedSentence{
		{Word: "<s>", Tag: "START"},
		{Word: "dog", Tag: "NN"},
		{Word: "run", Tag: "V_VM"},
		{Word: "Pcba", Tag: "P"},
		{Word: "xyz", Tag: "UN"},
		{Word: `<\s>`, Tag: "END"},
	}

	if len(got) != len(want) {
		t.Fatalf("Expected %d tokens, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Token %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseLine(t *testing.T) {
	got := ParseLine("राम_N_NNP खाता_V_VM")
	if want := `<s>_START राम_N_NNP खाता_V_VM <\s>_END`; got.String() != want {
		t.Fatalf("ParseLine = %s, want %s", got, want)
	}
}

func TestFlatten(t *testing.T) {
	words, tags := Flatten([]hmm.TaggedSentence{
		ParseLine("a_X"),
		ParseLine("b_Y c_Z"),
	})

	if got := strings.Join(words, " "); got != `<s> a <\s> <s> b c <\s>` {
		t.Fatalf("Unexpected words %q", got)
	}
	if got := strings.Join(tags, " "); got != "START X END START Y Z END" {
		t.Fatalf("Unexpected tags %q", got)
	}
}

func TestPrepareAndDecodeTokens(t *testing.T) {
	prepared := PrepareTestSentence("  राम खाता है ।  ")
	if got := strings.Join(prepared, " "); got != `<s> राम खाता है । <\s>` {
		t.Fatalf("PrepareTestSentence = %q", got)
	}

	decoded := DecodeTokens(prepared)
	if got := strings.Join(decoded, " "); got != "राम खाता है ।" {
		t.Fatalf("DecodeTokens = %q", got)
	}

	if got := DecodeTokens(PrepareTestSentence("")); len(got) != 0 {
		t.Fatalf("Expected no tokens for an empty sentence, got %q", got)
	}
}

func TestCorpusLoader_Normalize(t *testing.T) {
	decomposed := "e\u0301"

	if got := NewCorpusLoader(true, zap.NewNop()).Normalize(decomposed); got != "\u00e9" {
		t.Fatalf("Expected NFC form, got %q", got)
	}
	if got := NewCorpusLoader(false, zap.NewNop()).Normalize(decomposed); got != decomposed {
		t.Fatalf("Expected text unchanged, got %q", got)
	}
}

func writeCorpusFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func TestCorpusLoader_LoadDir(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "b.txt", "c_Z\n")
	writeCorpusFile(t, dir, "a.txt", "a_X\nb_Y\n")
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatalf("Failed to create nested dir: %v", err)
	}
	writeCorpusFile(t, filepath.Join(dir, "nested"), "ignored.txt", "d_W\n")

	loader := NewCorpusLoader(true, zap.NewNop())
	sentences, err := loader.LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	if len(sentences) != 3 {
		t.Fatalf("Expected 3 sentences, got %d", len(sentences))
	}
	order := []string{"a", "b", "c"}
	for i, s := range sentences {
		inner := s.Inner()
		if len(inner) != 1 || inner[0].Word != order[i] {
			t.Errorf("Sentence %d = %s, want word %s", i, s, order[i])
		}
	}
}

func TestCorpusLoader_LoadDirErrors(t *testing.T) {
	loader := NewCorpusLoader(false, zap.NewNop())

	if _, err := loader.LoadDir(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("Expected error for a missing directory")
	}

	dir := t.TempDir()
	writeCorpusFile(t, dir, "a.txt", "a_X\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := loader.LoadDir(ctx, dir); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestCorpusLoader_ReadLines(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "input.txt", "first line\n\n   \nsecond line  \n")

	lines, err := NewCorpusLoader(false, zap.NewNop()).ReadLines(filepath.Join(dir, "input.txt"))
	if err != nil {
		t.Fatalf("ReadLines failed: %v", err)
	}
	if len(lines) != 2 || lines[0] != "first line" || lines[1] != "second line" {
		t.Fatalf("Unexpected lines %q", lines)
	}
}
