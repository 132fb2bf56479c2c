// Package main is the CLI entry point for ai, a terminal-resident coding
// assistant (spec §6 External Interfaces). It resolves configuration,
// dispatches one of the primary modes (help/version/upgrade, file read
// preview, shell passthrough, inline prompt, file edit, or interactive
// session), and drives the Agent Loop for everything but the one-shot
// modes.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ryangerardwilson/aish/internal/agent"
	"github.com/ryangerardwilson/aish/internal/cli"
	"github.com/ryangerardwilson/aish/internal/config"
	"github.com/ryangerardwilson/aish/internal/convstore"
	"github.com/ryangerardwilson/aish/internal/planstate"
	"github.com/ryangerardwilson/aish/internal/provider"
	"github.com/ryangerardwilson/aish/internal/renderer"
	"github.com/ryangerardwilson/aish/internal/sandbox"
	"github.com/ryangerardwilson/aish/internal/toolruntime"
	"github.com/ryangerardwilson/aish/internal/transcript"
	"github.com/ryangerardwilson/aish/internal/workspace"
)

// version is populated by ldflags at build time.
var version = "dev"

// installSHURL is the pinned self-upgrade installer invoked by -u/--upgrade
// (SPEC_FULL.md §4 supplemented feature 2), carried through verbatim from
// the original's INSTALL_SH_URL.
const installSHURL = "https://raw.githubusercontent.com/ryangerardwilson/ai/main/install.sh"

// exitCodeErr lets a deep call site (shell passthrough, upgrade) propagate
// its own process exit code through cobra's single error return.
type exitCodeErr struct{ code int }

func (e *exitCodeErr) Error() string { return "" }

func main() {
	os.Exit(realMain(os.Args[1:]))
}

func realMain(argv []string) int {
	var (
		readPath      string
		readOffset    int
		readLimit     int
		readMaxBytes  int
		doUpgrade     bool
		showVersion   bool
		debugFlag     string
		debugExplicit bool
	)

	root := &cobra.Command{
		Use:           "ai [path] [prompt...]",
		Short:         "Terminal-resident coding assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Println(version)
				return nil
			}
			if doUpgrade {
				code := runUpgrade()
				if code != 0 {
					return &exitCodeErr{code: code}
				}
				return nil
			}
			if readPath != "" {
				code := runReadSlice(readPath, readOffset, readLimit, readMaxBytes)
				if code != 0 {
					return &exitCodeErr{code: code}
				}
				return nil
			}

			debugPath := ""
			if debugExplicit {
				if debugFlag == "" {
					debugPath = "debug.log"
				} else {
					debugPath = debugFlag
				}
			}

			code := dispatch(args, debugPath)
			if code != 0 {
				return &exitCodeErr{code: code}
			}
			return nil
		},
	}

	root.Flags().StringVar(&readPath, "read", "", "Preview a file slice")
	root.Flags().IntVar(&readOffset, "offset", 0, "0-based line offset")
	root.Flags().IntVar(&readLimit, "limit", 0, "number of lines to read")
	root.Flags().IntVar(&readMaxBytes, "max-bytes", 0, "maximum bytes to load")
	root.Flags().BoolVarP(&doUpgrade, "upgrade", "u", false, "self-upgrade via the pinned installer")
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "print the version and exit")
	root.Flags().StringVarP(&debugFlag, "debug", "d", "", "enable the debug log sink, optionally at PATH")
	root.Flags().Lookup("debug").NoOptDefVal = "debug.log"
	root.MarkFlagsMutuallyExclusive("upgrade", "version")

	// cobra has no direct "flag present with no value" probe before parse;
	// wrap RunE to capture it after parsing via Changed.
	origRunE := root.RunE
	root.RunE = func(cmd *cobra.Command, args []string) error {
		debugExplicit = cmd.Flags().Changed("debug")
		return origRunE(cmd, args)
	}

	if err := root.Execute(); err != nil {
		if ec, ok := err.(*exitCodeErr); ok {
			return ec.code
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// dispatch implements spec §6's mode selection over the remaining
// (non-flag) argv: shell-invocation detection, then inline-prompt/scope
// parsing, then the bare interactive session.
func dispatch(args []string, debugPath string) int {
	shutdownTracing := agent.SetupTracing()
	defer shutdownTracing()

	term := renderer.NewTerminal()
	var debugWriter io.Writer
	if debugPath != "" {
		if err := term.EnableDebugLogging(debugPath); err != nil {
			term.DisplayError(fmt.Sprintf("failed to enable debug logging: %v", err))
		} else {
			term.DisplayInfo("Debug logging -> " + debugPath)
			if f, err := os.OpenFile(debugPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				debugWriter = f
			}
		}
	}

	if inv := cli.DetectShellInvocation(args); inv != nil {
		command := strings.TrimSpace(inv.Command)
		if command == "" {
			term.DisplayError("Shell command cannot be empty.")
			return 1
		}
		display := "!" + command
		term.DisplayUserPrompt(display)
		return runShellCommand(term, command, inv.Scope)
	}

	cfg, present, err := config.Load()
	if err != nil {
		term.DisplayError(err.Error())
		return 1
	}
	if !present {
		cfg, err = config.Bootstrap(term)
		if err != nil {
			term.DisplayError(err.Error())
			return 1
		}
	}

	baseRoot, err := os.Getwd()
	if err != nil {
		term.DisplayError(err.Error())
		return 1
	}
	resolved := config.Resolve(cfg)
	override := config.LoadProjectOverride(baseRoot)
	if override != nil {
		resolved = override.Apply(resolved)
	}
	extraDisallowed := override.ExtraDisallowed()
	if resolved.OpenAIAPIKey == "" {
		term.DisplayError(fmt.Errorf("%w: no OpenAI API key available", agent.ErrConfiguration).Error())
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if len(args) == 0 {
		return runInteractiveSession(ctx, term, resolved, baseRoot, debugWriter, extraDisallowed)
	}

	if req, errMsg, ok := cli.ParseInlinePrompt(args); ok {
		if errMsg != "" {
			term.DisplayError(errMsg)
			return 1
		}
		return runParsedPrompt(ctx, term, resolved, baseRoot, req, debugWriter, extraDisallowed)
	}

	term.DisplayError("Inline prompt could not be parsed.")
	return 1
}

// runParsedPrompt resolves the spec §6 path-argument modes: a single
// existing-file scope is edit mode; a single existing-directory scope (or
// no scope at all) is a scoped/whole-workspace conversation.
func runParsedPrompt(ctx context.Context, term renderer.Renderer, resolved config.Resolved, baseRoot string, req *cli.InlinePromptRequest, debugWriter io.Writer, extraDisallowed []string) int {
	if len(req.Scopes) == 1 {
		info, err := os.Stat(req.Scopes[0])
		if err == nil && !info.IsDir() {
			return runEditMode(ctx, term, resolved, baseRoot, req.Scopes[0], req.Prompt, debugWriter, extraDisallowed)
		}
	}

	defaultRoot := baseRoot
	if len(req.Scopes) > 0 {
		info, err := os.Stat(req.Scopes[0])
		if err == nil {
			if info.IsDir() {
				defaultRoot = req.Scopes[0]
			} else {
				defaultRoot = filepath.Dir(req.Scopes[0])
			}
		}
	}

	loop := buildLoop(term, resolved, baseRoot, defaultRoot, debugWriter, extraDisallowed)
	loop.LoadCached()
	term.DisplayUserPrompt(req.Prompt)
	if debugWriter != nil {
		defer dumpMetricsOnExit(loop, debugWriter)
	}
	if err := loop.RunConversation(ctx, req.Prompt); err != nil {
		term.DisplayError(err.Error())
		return 1
	}
	return exitCodeForContext(ctx)
}

// dumpMetricsOnExit writes the Loop's Prometheus counters to the debug log
// sink, matching "-d dumps metrics to debug log on exit" (SPEC_FULL.md
// domain stack, prometheus/client_golang row).
func dumpMetricsOnExit(loop *agent.Loop, w io.Writer) {
	_ = loop.DumpMetrics(w)
}

func runEditMode(ctx context.Context, term renderer.Renderer, resolved config.Resolved, baseRoot, path, instruction string, debugWriter io.Writer, extraDisallowed []string) int {
	rt := toolruntime.New(baseRoot, filepath.Dir(path), planstate.PlanState{}, term)
	rt.ExtraDisallowed = extraDisallowed
	client := provider.NewClient(resolved.OpenAIAPIKey)
	if resolved.DebugAPI && debugWriter != nil {
		client.EnableDebug(debugWriter)
	}
	settings := agent.Settings{
		Model:           resolved.Model,
		Instructions:    systemInstructions(baseRoot, filepath.Dir(path)),
		DogWhistle:      resolved.DogWhistle,
		ShowReasoning:   resolved.ShowReasoning,
		ReasoningEffort: resolved.ReasoningEffort,
	}
	editor := agent.NewEditor(client, rt, term, settings)
	if err := editor.RunEdit(ctx, path, instruction); err != nil {
		term.DisplayError(err.Error())
		return 1
	}
	return exitCodeForContext(ctx)
}

// runInteractiveSession mirrors the original's _start_interactive_session:
// it gates the very first follow-up (handling empty input, the
// new-conversation sentinel, and shell passthrough) before handing control
// to the Agent Loop, which owns every subsequent follow-up itself (spec
// §4.7 step 8).
func runInteractiveSession(ctx context.Context, term renderer.Renderer, resolved config.Resolved, baseRoot string, debugWriter io.Writer, extraDisallowed []string) int {
	term.DisplayInfo("Interactive session started. Type your instruction at the prompt (Ctrl+D to exit).")

	loop := buildLoop(term, resolved, baseRoot, baseRoot, debugWriter, extraDisallowed)
	loop.LoadCached()
	loop.StartWatching(ctx)
	defer loop.StopWatching()
	if debugWriter != nil {
		defer dumpMetricsOnExit(loop, debugWriter)
	}

	for {
		instruction, ok := term.PromptFollowUp()
		if !ok {
			return 0
		}
		instruction = strings.TrimSpace(instruction)
		if instruction == "" {
			term.DisplayInfo("Please provide an instruction or press Ctrl+D to exit.")
			continue
		}
		if instruction == agent.NewConversationSentinel {
			term.DisplayInfo("Starting fresh. Provide your instruction.")
			continue
		}
		if strings.HasPrefix(instruction, "!") {
			term.DisplayUserPrompt(instruction)
			command := strings.TrimSpace(strings.TrimPrefix(instruction, "!"))
			if command == "" {
				term.DisplayError("Shell command cannot be empty.")
				continue
			}
			runShellCommand(term, command, "")
			continue
		}

		term.DisplayUserPrompt(instruction)
		if err := loop.RunConversation(ctx, instruction); err != nil {
			term.DisplayError(err.Error())
			return 1
		}
		return exitCodeForContext(ctx)
	}
}

func buildLoop(term renderer.Renderer, resolved config.Resolved, baseRoot, defaultRoot string, debugWriter io.Writer, extraDisallowed []string) *agent.Loop {
	rt := toolruntime.New(baseRoot, defaultRoot, planstate.PlanState{}, term)
	rt.ExtraDisallowed = extraDisallowed
	client := provider.NewClient(resolved.OpenAIAPIKey)
	if resolved.DebugAPI && debugWriter != nil {
		client.EnableDebug(debugWriter)
	}
	adapter := provider.NewAdapter(client)
	tr := transcript.New()

	var store *convstore.Store
	if !resolved.DisablePersistence {
		store = convstore.New()
	}

	collect := workspace.CollectOptions{
		LimitBytes:     resolved.ContextMaxBytes,
		DefaultLimit:   resolved.ContextReadLimit,
		IncludeListing: resolved.ContextIncludeListing,
	}

	settings := agent.Settings{
		Model:           resolved.Model,
		Instructions:    systemInstructions(baseRoot, defaultRoot),
		DogWhistle:      resolved.DogWhistle,
		ShowReasoning:   resolved.ShowReasoning,
		ReasoningEffort: resolved.ReasoningEffort,
	}

	registry := prometheus.NewRegistry()
	return agent.NewLoop(settings, adapter, rt, tr, term, defaultRoot, collect, registry, store)
}

func runShellCommand(term renderer.Renderer, command, scope string) int {
	repoRoot, err := os.Getwd()
	if err != nil {
		term.DisplayError(err.Error())
		return 1
	}
	cwd := repoRoot
	if scope != "" {
		info, err := os.Stat(scope)
		if err != nil {
			term.DisplayError(fmt.Sprintf("Scope path not found: %s", scope))
			return 1
		}
		if info.IsDir() {
			cwd = scope
		} else {
			cwd = filepath.Dir(scope)
		}
	}

	result, err := sandbox.Run(context.Background(), command, sandbox.Options{
		Cwd:            cwd,
		ScopeRoot:      repoRoot,
		TimeoutSeconds: 30,
		MaxOutputBytes: 20000,
	})
	if err != nil {
		term.DisplayError(fmt.Sprintf("command rejected: %s", err.Error()))
		return 1
	}
	formatted := sandbox.FormatCommandResult(result)
	if formatted != "" {
		term.DisplayShellOutput(formatted)
	}
	return result.ExitCode
}

func runReadSlice(path string, offset, limit, maxBytes int) int {
	term := renderer.NewTerminal()

	target := path
	if !filepath.IsAbs(target) {
		cwd, err := os.Getwd()
		if err != nil {
			term.DisplayError(err.Error())
			return 1
		}
		target = filepath.Join(cwd, target)
	}

	info, err := os.Stat(target)
	if err != nil {
		term.DisplayError(fmt.Sprintf("File not found: %s", target))
		return 1
	}
	if info.IsDir() {
		term.DisplayError(fmt.Sprintf("%s is a directory. Use --read with files only.", target))
		return 1
	}

	cfg, _, _ := config.Load()
	resolved := config.Resolve(cfg)

	safeOffset := offset
	if safeOffset < 0 {
		safeOffset = 0
	}
	safeLimit := limit
	if safeLimit <= 0 {
		safeLimit = resolved.ContextReadLimit
	}
	if safeLimit <= 0 {
		safeLimit = workspace.DefaultReadLimit
	}
	safeBytes := maxBytes
	if safeBytes <= 0 {
		safeBytes = resolved.ContextMaxBytes
	}
	if safeBytes <= 0 {
		safeBytes = workspace.MaxReadBytes
	}

	slice := workspace.ReadFileSlice(target, safeOffset, safeLimit, safeBytes)
	cwd, _ := os.Getwd()
	term.DisplayInfo(workspace.FormatFileSliceForPrompt(slice, cwd))

	if slice.Truncated || slice.TruncatedByBytes {
		relTarget := target
		if rel, err := filepath.Rel(cwd, target); err == nil && !strings.HasPrefix(rel, "..") {
			relTarget = rel
		}
		term.DisplayInfo(fmt.Sprintf(
			"\nTo continue reading: ai --read %s --offset %d --limit %d",
			relTarget, slice.LastLineRead(), safeLimit,
		))
	}
	return 0
}

// runUpgrade shells out to the pinned installer via curl|bash, matching
// the original's subprocess pipeline (SPEC_FULL.md §4 supplemented feature
// 2). This is an explicit CLI primary action, not a sandboxed tool call, so
// it runs outside the Sandbox Executor's jail.
func runUpgrade() int {
	term := renderer.NewTerminal()

	curl := exec.Command("curl", "-fsSL", installSHURL)
	curlOut, err := curl.StdoutPipe()
	if err != nil {
		term.DisplayError(err.Error())
		return 1
	}
	var curlErr strings.Builder
	curl.Stderr = &curlErr

	bash := exec.Command("bash", "-s", "--", "-u")
	bash.Stdin = curlOut
	bash.Stdout = os.Stdout
	bash.Stderr = os.Stderr

	if err := curl.Start(); err != nil {
		term.DisplayError("Upgrade requires curl")
		return 1
	}
	if err := bash.Start(); err != nil {
		term.DisplayError("Upgrade requires bash")
		_ = curl.Process.Kill()
		_ = curl.Wait()
		return 1
	}

	bashErr := bash.Wait()
	curlWaitErr := curl.Wait()

	if curlWaitErr != nil {
		if curlErr.Len() > 0 {
			term.DisplayError(curlErr.String())
		}
		if exitErr, ok := curlWaitErr.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		return 1
	}
	if bashErr != nil {
		if exitErr, ok := bashErr.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		return 1
	}
	return 0
}

// systemInstructions builds the model's system prompt, grounded verbatim
// on ai_engine.py's system_prompt template: the tool-usage reminder is
// fixed, and a scope sentence names the conversation's default root
// relative to the project root.
func systemInstructions(baseRoot, defaultRoot string) string {
	scopeSentence := "Focus on the entire repository."
	if defaultRoot != baseRoot {
		label := defaultRoot
		if rel, err := filepath.Rel(baseRoot, defaultRoot); err == nil && !strings.HasPrefix(rel, "..") {
			label = rel
		}
		scopeSentence = fmt.Sprintf("Scope: %s.", label)
	}

	return strings.TrimSpace(fmt.Sprintf(
		"You are operating locally as a terminal coding assistant. You can call tools to read files, write files, "+
			"update plans, or execute sandboxed shell commands. IMPORTANT: when you need to create or modify files you "+
			"MUST call the `write` tool (alias: `write_file`) with the full content (not apply_patch). Do not claim "+
			"success unless the tool call succeeds. Maintain an explicit plan when useful using `update_plan`. Always "+
			"cite relevant files.\n%s", scopeSentence,
	))
}

// exitCodeForContext reports 130 when the run was cancelled by Ctrl-C
// (spec §7: "User cancellation — Ctrl-C exits 130").
func exitCodeForContext(ctx context.Context) int {
	if ctx.Err() != nil {
		return 130
	}
	return 0
}
