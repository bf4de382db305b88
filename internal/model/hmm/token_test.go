package hmm

import "testing"

func TestTaggedSentence_String(t *testing.T) {
	s := TaggedSentence{
		{Word: "राजा", Tag: "N_NN"},
		{Word: "थे", Tag: "V_VAUX"},
		{Word: "|", Tag: "RD_PUNC"},
	}

	want := "राजा_N_NN थे_V_VAUX |_RD_PUNC"
	if got := s.String(); got != want {
		t.Fatalf("Expected %q, got %q", want, got)
	}

	if got := (TaggedSentence{}).String(); got != "" {
		t.Fatalf("Expected empty string for empty sentence, got %q", got)
	}
}

func TestTaggedSentence_Inner(t *testing.T) {
	s := TaggedSentence{
		{Word: StartMarker, Tag: StartTag},
		{Word: "a", Tag: "X"},
		{Word: EndMarker, Tag: EndTag},
	}

	inner := s.Inner()
	if len(inner) != 1 || inner[0].Word != "a" {
		t.Fatalf("Expected only the inner token, got %v", inner)
	}

	bare := TaggedSentence{{Word: "a", Tag: "X"}}
	if len(bare.Inner()) != 1 {
		t.Fatalf("Inner should leave a sentence without sentinels untouched")
	}
}

func TestNGram_String(t *testing.T) {
	ng := NGram{"START", "N_NN", "V_VM"}

	if ng.String() != "START N_NN V_VM" {
		t.Fatalf("Unexpected n-gram string %q", ng.String())
	}
}
