package segment

import (
	"strings"
	"testing"
)

func TestSplitOffsets(t *testing.T) {
	text := "Patient stable overnight. MAP 70 on norepi.  No focal deficit."
	spans := Split(text)
	if len(spans) != 3 {
		t.Fatalf("expected 3 sentences, got %d: %+v", len(spans), spans)
	}
	for i, s := range spans {
		if s.Idx != i {
			t.Errorf("span %d: idx = %d, want %d", i, s.Idx, i)
		}
		if s.StartChar >= s.EndChar {
			t.Errorf("span %d: start %d >= end %d", i, s.StartChar, s.EndChar)
		}
		if got := strings.TrimSpace(text[s.StartChar:s.EndChar]); got != s.Text {
			t.Errorf("span %d: offsets recover %q, want %q", i, got, s.Text)
		}
	}
	if spans[1].Text != "MAP 70 on norepi." {
		t.Errorf("second sentence = %q", spans[1].Text)
	}
}

func TestSplitOrderAndDensity(t *testing.T) {
	text := "One.\n\nTwo! Three? Four"
	spans := Split(text)
	want := []string{"One.", "Two!", "Three?", "Four"}
	if len(spans) != len(want) {
		t.Fatalf("got %d spans, want %d", len(spans), len(want))
	}
	prevEnd := 0
	for i, s := range spans {
		if s.Text != want[i] {
			t.Errorf("span %d text = %q, want %q", i, s.Text, want[i])
		}
		if s.Idx != i {
			t.Errorf("span %d idx = %d", i, s.Idx)
		}
		if s.StartChar < prevEnd {
			t.Errorf("span %d overlaps previous: start %d < %d", i, s.StartChar, prevEnd)
		}
		prevEnd = s.EndChar
	}
}

func TestSplitBullets(t *testing.T) {
	text := "Meds:\n- vanc\n- zosyn\nContinue monitoring."
	spans := Split(text)
	var texts []string
	for _, s := range spans {
		texts = append(texts, s.Text)
	}
	joined := strings.Join(texts, "|")
	for _, want := range []string{"vanc", "zosyn", "Continue monitoring."} {
		if !strings.Contains(joined, want) {
			t.Errorf("segmented %q, missing %q", joined, want)
		}
	}
	for i, s := range spans {
		if s.Idx != i {
			t.Errorf("idx not dense at %d: %+v", i, s)
		}
	}
}

func TestSplitIdempotentOnSpans(t *testing.T) {
	text := "CT head negative. Plan to extubate today.\nLabs: Na=140 K=4.1."
	for _, s := range Split(text) {
		again := Split(text[s.StartChar:s.EndChar])
		if len(again) == 0 {
			t.Fatalf("re-segmenting %q produced nothing", s.Text)
		}
		if again[0].Text != s.Text && len(again) == 1 {
			t.Errorf("re-segmenting %q gave %q", s.Text, again[0].Text)
		}
	}
}

func TestSplitDecimalsDoNotSplit(t *testing.T) {
	spans := Split("K is 4.1 today. Mg 2.0 stable.")
	if len(spans) != 2 {
		t.Fatalf("decimals split: %+v", spans)
	}
}

func TestSplitEmptyAndWhitespace(t *testing.T) {
	if got := Split(""); len(got) != 0 {
		t.Errorf("empty input: %+v", got)
	}
	if got := Split("  \n \n\t"); len(got) != 0 {
		t.Errorf("whitespace input: %+v", got)
	}
}

func TestSplitNoTerminator(t *testing.T) {
	spans := Split("single fragment without punctuation")
	if len(spans) != 1 {
		t.Fatalf("got %d spans", len(spans))
	}
	if spans[0].StartChar != 0 || spans[0].EndChar != len("single fragment without punctuation") {
		t.Errorf("span covers %d..%d", spans[0].StartChar, spans[0].EndChar)
	}
}
