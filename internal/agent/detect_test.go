package agent

import "testing"

func TestInstructionImpliesWrite(t *testing.T) {
	if !InstructionImpliesWrite("please write foo.py") {
		t.Fatal("expected true for an explicit write instruction")
	}
	if InstructionImpliesWrite("what does foo.py do?") {
		t.Fatal("expected false for a read-only question")
	}
}

func TestDetectGeneratedFiles(t *testing.T) {
	text := "Save the following as utils.py:\n```python\nX=1\n```\n"
	files := DetectGeneratedFiles(text)
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	if files[0].Path != "utils.py" {
		t.Fatalf("got path %q", files[0].Path)
	}
	if files[0].Content != "X=1" {
		t.Fatalf("got content %q", files[0].Content)
	}
}

func TestDetectGeneratedFilesNoMatch(t *testing.T) {
	if files := DetectGeneratedFiles("just a normal message"); len(files) != 0 {
		t.Fatalf("expected no files, got %v", files)
	}
}
