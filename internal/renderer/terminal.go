package renderer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Terminal is the reference Renderer implementation (spec §4.5): it
// colourises diffs with per-line old/new numbering, streams assistant text
// with a distinct prefix, renders reasoning dimmer, and supports an
// editor-based multiline follow-up prompt entered via `v` or `v <seed>`.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer

	assistantColor *color.Color
	reasoningColor *color.Color
	infoColor      *color.Color
	errorColor     *color.Color
	addColor       *color.Color
	delColor       *color.Color

	hotkeyMu     sync.Mutex
	hotkeyQueue  []Hotkey
	hotkeyDone   chan struct{}
	hotkeyActive bool
	oldState     *term.State

	loaderDone chan struct{}
	loaderWG   sync.WaitGroup

	pendingCompletion []string
	debugWriter       io.WriteCloser
}

// NewTerminal constructs a Terminal renderer writing to os.Stdout/Stderr and
// reading follow-up input from os.Stdin. AI_COLOR=never disables colour,
// matching the teacher's convention of an env override alongside NO_COLOR.
func NewTerminal() *Terminal {
	if os.Getenv("AI_COLOR") == "never" || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
	return &Terminal{
		in:             bufio.NewReader(os.Stdin),
		out:            os.Stdout,
		assistantColor: color.New(color.FgCyan),
		reasoningColor: color.New(color.FgHiBlack),
		infoColor:      color.New(color.FgBlue),
		errorColor:     color.New(color.FgRed, color.Bold),
		addColor:       color.New(color.FgGreen),
		delColor:       color.New(color.FgRed),
	}
}

func (t *Terminal) DisplayInfo(message string) {
	t.infoColor.Fprintln(t.out, message)
}

func (t *Terminal) DisplayError(message string) {
	t.errorColor.Fprintln(os.Stderr, message)
}

func (t *Terminal) DisplayUserPrompt(prompt string) {
	fmt.Fprintf(t.out, "> %s\n", prompt)
}

func (t *Terminal) DisplayAssistantMessage(text string) {
	t.assistantColor.Fprintln(t.out, text)
}

func (t *Terminal) DisplayShellOutput(output string) {
	fmt.Fprintln(t.out, output)
}

func (t *Terminal) DisplayPlanUpdate(summary string) {
	t.infoColor.Fprintf(t.out, "plan: %s\n", summary)
}

func (t *Terminal) DisplayReasoning(text string) {
	t.reasoningColor.Fprintln(t.out, text)
}

func (t *Terminal) StartReasoning(id string) {
	t.reasoningColor.Fprint(t.out, "thinking: ")
}

func (t *Terminal) UpdateReasoning(id, delta string) {
	t.reasoningColor.Fprint(t.out, delta)
}

func (t *Terminal) FinishReasoning(id, final string) {
	fmt.Fprintln(t.out)
}

func (t *Terminal) StartAssistantStream(id string) {
	t.assistantColor.Fprint(t.out, "assistant: ")
}

func (t *Terminal) UpdateAssistantStream(id, delta string) {
	t.assistantColor.Fprint(t.out, delta)
}

func (t *Terminal) FinishAssistantStream(id, final string) {
	fmt.Fprintln(t.out)
}

// ReviewFileUpdate renders a colourised unified diff and prompts for
// confirmation unless autoApply is set (spec §4.3 write semantics).
func (t *Terminal) ReviewFileUpdate(targetPath, displayPath, oldText, newText string, autoApply bool) FileUpdateStatus {
	if oldText == newText {
		return StatusNoChange
	}
	if strings.TrimSpace(newText) == "" {
		return StatusDeleteRequested
	}

	fmt.Fprintf(t.out, "--- %s\n", displayPath)
	printDiff(t.out, oldText, newText, t.addColor, t.delColor)

	if !autoApply {
		if !t.PromptConfirm(fmt.Sprintf("Apply changes to %s?", displayPath), true) {
			return StatusUserRejected
		}
	}

	if err := os.WriteFile(targetPath, []byte(newText), 0o644); err != nil {
		return ErrorStatus(fmt.Sprintf("failed to write %s: %v", displayPath, err))
	}
	return StatusApplied
}

// printDiff renders a minimal line-oriented diff: every old line removed,
// every new line added, each with its own line number column. It is not a
// minimal-edit-script diff; it favours legibility for small AI-authored
// hunks over a true LCS diff.
func printDiff(w io.Writer, oldText, newText string, add, del *color.Color) {
	oldLines := strings.Split(oldText, "\n")
	newLines := strings.Split(newText, "\n")
	if oldText != "" {
		for i, line := range oldLines {
			del.Fprintf(w, "-%4d  %s\n", i+1, line)
		}
	}
	for i, line := range newLines {
		add.Fprintf(w, "+%4d  %s\n", i+1, line)
	}
}

func (t *Terminal) PromptText(prompt string) (string, bool) {
	fmt.Fprintf(t.out, "%s ", prompt)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimRight(line, "\n"), true
}

// PromptFollowUp reads the next follow-up line, supporting the `v`/`v <seed>`
// editor-invocation convention (spec §4.5).
func (t *Terminal) PromptFollowUp() (string, bool) {
	fmt.Fprint(t.out, "» ")
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	line = strings.TrimRight(line, "\n")

	if line == "v" || strings.HasPrefix(line, "v ") {
		seed := strings.TrimPrefix(strings.TrimPrefix(line, "v"), " ")
		edited, err := t.editMultiline(seed)
		if err != nil {
			t.DisplayError(err.Error())
			return "", true
		}
		return edited, true
	}
	return line, true
}

func (t *Terminal) editMultiline(seed string) (string, error) {
	editor := os.Getenv("AI_PROMPT_EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	f, err := os.CreateTemp("", "ai-prompt-*.md")
	if err != nil {
		return "", err
	}
	defer os.Remove(f.Name())
	if seed != "" {
		if _, err := f.WriteString(seed); err != nil {
			f.Close()
			return "", err
		}
	}
	f.Close()

	cmd := exec.Command(editor, f.Name())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("editor exited with error: %w", err)
	}

	data, err := os.ReadFile(f.Name())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// affirmativeTokens are the inputs PromptConfirm accepts as "yes", carried
// through verbatim from the original's prompt_confirm token set (spec
// supplemented feature 10).
var affirmativeTokens = map[string]bool{
	"y": true, "yes": true, "ok": true, "okay": true, "sure": true,
	"apply": true, "add": true, "addit": true, "create": true, "commit": true,
	"confirm": true, "do": true, "doit": true, "write": true, "writeit": true,
	"save": true,
}

func (t *Terminal) PromptConfirm(prompt string, defaultNo bool) bool {
	suffix := "[y/N]"
	if !defaultNo {
		suffix = "[Y/n]"
	}
	fmt.Fprintf(t.out, "%s %s ", prompt, suffix)
	line, _ := t.in.ReadString('\n')
	line = strings.ToLower(strings.TrimSpace(line))
	if line == "" {
		return !defaultNo
	}
	return affirmativeTokens[line]
}

func (t *Terminal) StartLoader() {
	t.loaderDone = make(chan struct{})
	t.loaderWG.Add(1)
	go func() {
		defer t.loaderWG.Done()
		frames := []string{"|", "/", "-", "\\"}
		i := 0
		for {
			select {
			case <-t.loaderDone:
				fmt.Fprint(t.out, "\r \r")
				return
			default:
			}
			fmt.Fprintf(t.out, "\r%s", frames[i%len(frames)])
			i++
		}
	}()
}

func (t *Terminal) StopLoader() {
	if t.loaderDone == nil {
		return
	}
	close(t.loaderDone)
	t.loaderWG.Wait()
	t.loaderDone = nil
}

// StartHotkeyListener puts the terminal in cbreak mode and starts a
// background reader that pushes `q`/`r` keystrokes onto a bounded queue
// (spec §5 "hotkey watcher").
func (t *Terminal) StartHotkeyListener() {
	t.hotkeyMu.Lock()
	if t.hotkeyActive {
		t.hotkeyMu.Unlock()
		return
	}
	t.hotkeyActive = true
	t.hotkeyDone = make(chan struct{})
	t.hotkeyMu.Unlock()

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return
	}
	t.oldState = oldState

	go func() {
		buf := make([]byte, 1)
		for {
			select {
			case <-t.hotkeyDone:
				return
			default:
			}
			n, err := os.Stdin.Read(buf)
			if err != nil || n == 0 {
				return
			}
			var hk Hotkey
			switch buf[0] {
			case 'q', 'Q':
				hk = HotkeyQuit
			case 'r', 'R':
				hk = HotkeyRetry
			default:
				continue
			}
			t.hotkeyMu.Lock()
			if len(t.hotkeyQueue) < 16 {
				t.hotkeyQueue = append(t.hotkeyQueue, hk)
			}
			t.hotkeyMu.Unlock()
		}
	}()
}

func (t *Terminal) StopHotkeyListener() {
	t.hotkeyMu.Lock()
	if !t.hotkeyActive {
		t.hotkeyMu.Unlock()
		return
	}
	t.hotkeyActive = false
	close(t.hotkeyDone)
	state := t.oldState
	t.oldState = nil
	t.hotkeyQueue = nil
	t.hotkeyMu.Unlock()

	if state != nil {
		term.Restore(int(os.Stdin.Fd()), state)
	}
}

// PollHotkeyEvent is a non-blocking read of the next queued hotkey (spec §9
// "cancellation without async-keyword support").
func (t *Terminal) PollHotkeyEvent() (Hotkey, bool) {
	t.hotkeyMu.Lock()
	defer t.hotkeyMu.Unlock()
	if len(t.hotkeyQueue) == 0 {
		return "", false
	}
	hk := t.hotkeyQueue[0]
	t.hotkeyQueue = t.hotkeyQueue[1:]
	return hk, true
}

func (t *Terminal) ConsumeCompletionMessages() []string {
	msgs := t.pendingCompletion
	t.pendingCompletion = nil
	return msgs
}

func (t *Terminal) EnableDebugLogging(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	t.debugWriter = f
	return nil
}

var _ Renderer = (*Terminal)(nil)
