package agent

import (
	"regexp"

	"github.com/ryangerardwilson/aish/internal/toolruntime"
)

// generatedFileHeader matches an assistant sentence announcing a file to be
// written, e.g. "Save the following as utils.py:" (spec §4.7 generated-file
// detection).
var generatedFileHeader = regexp.MustCompile("(?i)(?:save|write|create|add|generate|produce)[^\n]{0,160}?\\b(?:as|to|in)\\s+`?([A-Za-z0-9._\\-/]+)`?")

var fencedBlock = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\n(.*?)\n?```")

// GeneratedFile is one {path, content} pair recovered from an assistant
// message's natural-language write announcement.
type GeneratedFile struct {
	Path    string
	Content string
}

// DetectGeneratedFiles scans an assistant message for every generated-file
// announcement and pairs each with the next fenced code block that follows
// it in the text (spec §4.7).
func DetectGeneratedFiles(text string) []GeneratedFile {
	var files []GeneratedFile
	headers := generatedFileHeader.FindAllStringSubmatchIndex(text, -1)
	for _, h := range headers {
		path := text[h[2]:h[3]]
		rest := text[h[1]:]
		block := fencedBlock.FindStringSubmatch(rest)
		if block == nil {
			continue
		}
		files = append(files, GeneratedFile{Path: path, Content: block[1]})
	}
	return files
}

// InstructionImpliesWrite reports whether the user's own phrasing clearly
// requested a write, so the renderer can bypass per-file confirmation via
// auto_apply (spec §4.7 property 9). The classification lives in
// internal/toolruntime so dispatchWrite can compute the same server-side
// auto_apply decision from Runtime.LatestInstruction.
func InstructionImpliesWrite(text string) bool {
	return toolruntime.InstructionImpliesWrite(text)
}
