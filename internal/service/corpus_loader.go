package service

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"hmm-tagger/internal/model/hmm"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

var (
	// bracketed footnote references such as [१२] or .[3]
	referencePattern = regexp.MustCompile(`[?.,]*\[?[0१२३४५६७८९०][१२३४५६७८९०0]*\]`)
	ellipsisPattern  = regexp.MustCompile(`\.+|\*+`)

	sentenceEnds = []string{"?", "!", ".", "।", "|"}
)

type rewrite struct {
	old, new string
}

// markupRewrites repairs annotation artifacts of the labeled corpus. Order matters.
var markupRewrites = []rewrite{
	{"WQ", "_WQ"},
	{"XC", "_XC"},
	{"__WQ", "_WQ"},
	{"__XC", "_XC"},
	{"__N_NST", "_N_NST"},
	{"__N_NNP", "_N_NNP"},
	{"__RB", "_RB"},
	{"__N_NN", "_N_NN"},
	{"__QT_QTF", "_QT_QTF"},
	{"'_RD_PUNC", " '_RD_PUNC "},
	{",_RD_PUNC", " ,_RD_PUNC "},
	{"'", " '_RD_PUNC "},
	{",_RD_PUNC", ","},
	{",", ""},
	{";", " ;_RD_PUNC "},
	{"|_RD_PUNC", "|"},
	{"‘‘", " ‘‘_RD_SYM "},
	{"’", " ’_RD_SYM "},
	{"‘", " ‘_RD_SYM "},
	{"“", " “_RD_SYM "},
	{"”", " ”_RD_SYM "},
	{"–", " –_RD_SYM "},
	{")", " )_RD_SYM "},
	{"(", " (_RD_SYM "},
	{"-SYM", " -_RD_SYM "},
	{")_RD_SYM", " )_RD_SYM "},
	{"+SYM", " +_RD_SYM "},
	{"QC", "QC "},
	{"V_VB", "V_VB "},
	{"<s>P", "<s>"},
	{`P>s\<`, "</s>"},
	{"<s>", " <s> "},
	{"<s/>", `<\s>`},
	{"</s>", ` <\s>`},
}

// PreprocessLine normalizes one raw corpus line and makes sure it is bracketed by
// sentence markers
func PreprocessLine(line string) string {
	line = referencePattern.ReplaceAllString(line, "")
	line = ellipsisPattern.ReplaceAllString(line, " ")
	for _, rw := range markupRewrites {
		line = strings.ReplaceAll(line, rw.old, rw.new)
	}
	return WrapSentence(line)
}

// WrapSentence puts a START marker at the head and an END marker at the tail of a line,
// reusing markers that are already there
func WrapSentence(line string) string {
	r := []rune(line)
	switch {
	case runesAt(r, 0, hmm.StartMarker):
		line = hmm.StartMarker + " " + string(r[3:])
	case runesAt(r, 1, hmm.StartMarker):
		line = hmm.StartMarker + " " + string(r[4:])
	default:
		line = hmm.StartMarker + " " + line
	}

	r = []rune(line)
	n := len(r)
	switch {
	case n >= 6 && runesAt(r, n-5, hmm.EndMarker):
		// marker followed by one trailing character, which is dropped
		if r[n-6] != ' ' {
			line = string(r[:n-5]) + " " + hmm.EndMarker
		}
	case n >= 5 && runesAt(r, n-4, hmm.EndMarker):
		if r[n-5] != ' ' {
			line = string(r[:n-4]) + " " + hmm.EndMarker
		}
	default:
		line = line + " " + hmm.EndMarker
	}
	return line
}

func runesAt(r []rune, at int, s string) bool {
	want := []rune(s)
	if at < 0 || at+len(want) > len(r) {
		return false
	}
	for i, c := range want {
		if r[at+i] != c {
			return false
		}
	}
	return true
}

// SplitSentenceEnds returns a new token list in which every sentence-ending mark glued
// to a token is split off into its own <mark>_SENT token
func SplitSentenceEnds(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		rest := token
		var marks []string
		for _, end := range sentenceEnds {
			if !strings.Contains(token, end) {
				continue
			}
			if utf8.RuneCountInString(token) == 1 {
				rest = end + "_SENT"
				break
			}
			rest = strings.ReplaceAll(rest, end, "")
			marks = append(marks, end+"_SENT")
		}
		out = append(out, rest)
		out = append(out, marks...)
	}
	return out
}

// ParseTokens turns word_TAG tokens into tagged pairs. Sentence markers become START and
// END; untagged tokens ending in P are reversed and tagged P, anything else is tagged UN.
func ParseTokens(tokens []string) hmm.TaggedSentence {
	sentence := make(hmm.TaggedSentence, 0, len(tokens))
	for _, token := range tokens {
		switch {
		case strings.Contains(token, "_"):
			pos := strings.Index(token, "_")
			sentence = append(sentence, hmm.TaggedToken{Word: token[:pos], Tag: strings.ToUpper(token[pos+1:])})
		case token == hmm.StartMarker:
			sentence = append(sentence, hmm.TaggedToken{Word: token, Tag: hmm.StartTag})
		case token == hmm.EndMarker:
			sentence = append(sentence, hmm.TaggedToken{Word: token, Tag: hmm.EndTag})
		case strings.HasSuffix(token, "P"):
			sentence = append(sentence, hmm.TaggedToken{Word: reverseRunes(token), Tag: "P"})
		default:
			sentence = append(sentence, hmm.TaggedToken{Word: token, Tag: "UN"})
		}
	}
	return sentence
}

func reverseRunes(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// ParseLine runs a raw corpus line through preprocessing, sentence-end splitting and parsing
func ParseLine(line string) hmm.TaggedSentence {
	return ParseTokens(SplitSentenceEnds(strings.Fields(PreprocessLine(line))))
}

// Flatten concatenates sentences into index-aligned word and tag streams
func Flatten(sentences []hmm.TaggedSentence) (words, tags []string) {
	for _, s := range sentences {
		for _, tok := range s {
			words = append(words, tok.Word)
			tags = append(tags, tok.Tag)
		}
	}
	return words, tags
}

// PrepareTestSentence wraps an untagged sentence in markers and splits it into tokens
func PrepareTestSentence(line string) []string {
	return strings.Fields(WrapSentence(strings.TrimSpace(line)))
}

// DecodeTokens strips the leading START marker and trailing END marker from a prepared
// token list. The result is what the decoder tags.
func DecodeTokens(tokens []string) []string {
	if len(tokens) > 0 && tokens[0] == hmm.StartMarker {
		tokens = tokens[1:]
	}
	if len(tokens) > 0 && tokens[len(tokens)-1] == hmm.EndMarker {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// CorpusLoader reads a directory of labeled corpus files
type CorpusLoader struct {
	normalizeUnicode bool
	logger           *zap.Logger
}

// NewCorpusLoader creates a new corpus loader
func NewCorpusLoader(normalizeUnicode bool, logger *zap.Logger) *CorpusLoader {
	return &CorpusLoader{
		normalizeUnicode: normalizeUnicode,
		logger:           logger,
	}
}

// Normalize applies NFC normalization when enabled
func (cl *CorpusLoader) Normalize(text string) string {
	if !cl.normalizeUnicode {
		return text
	}
	return norm.NFC.String(text)
}

// LoadDir parses every regular file in dir, in name order, one sentence per line
func (cl *CorpusLoader) LoadDir(ctx context.Context, dir string) ([]hmm.TaggedSentence, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var sentences []hmm.TaggedSentence
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileSentences, err := cl.LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		sentences = append(sentences, fileSentences...)
	}

	cl.logger.Info("Loaded corpus",
		zap.String("dir", dir),
		zap.Int("files", len(names)),
		zap.Int("sentences", len(sentences)))

	return sentences, nil
}

// LoadFile parses one corpus file
func (cl *CorpusLoader) LoadFile(path string) ([]hmm.TaggedSentence, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus file: %w", err)
	}
	defer file.Close()

	var sentences []hmm.TaggedSentence
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(cl.Normalize(scanner.Text()))
		sentences = append(sentences, ParseLine(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus file %s: %w", path, err)
	}

	cl.logger.Debug("Parsed corpus file",
		zap.String("path", path),
		zap.Int("sentences", len(sentences)))

	return sentences, nil
}

// ReadLines returns the non-empty lines of a text file
func (cl *CorpusLoader) ReadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(cl.Normalize(scanner.Text())); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input file %s: %w", path, err)
	}
	return lines, nil
}
