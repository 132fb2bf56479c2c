package provider

import "testing"

func TestDemultiplexerAccumulatesByKey(t *testing.T) {
	d := newDemultiplexer()
	d.append("output_text", "item1", 0, "Hel")
	buf := d.append("output_text", "item1", 0, "lo")
	if buf.text != "Hello" {
		t.Fatalf("got %q, want %q", buf.text, "Hello")
	}

	other := d.append("output_text", "item2", 0, "World")
	if other.text != "World" {
		t.Fatalf("got %q, want %q", other.text, "World")
	}

	done := d.finish("output_text", "item1", 0, "")
	if done.text != "Hello" {
		t.Fatalf("finish without final text should keep buffered text, got %q", done.text)
	}
	if _, ok := d.active[streamKey("output_text", "item1", 0)]; ok {
		t.Fatal("finished stream should be removed from active map")
	}
}

func TestDemultiplexerFinishOverridesWithFinalText(t *testing.T) {
	d := newDemultiplexer()
	d.append("reasoning_content", "r1", 2, "partial")
	done := d.finish("reasoning_content", "r1", 2, "complete text")
	if done.text != "complete text" {
		t.Fatalf("got %q, want %q", done.text, "complete text")
	}
}
