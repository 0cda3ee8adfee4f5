package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// subprocessTimeout is the hard cap for one decoder invocation.
	subprocessTimeout = 30 * time.Second

	// maxPasswordAttempts bounds the candidate loop per attachment. The
	// candidate list is ordered most-likely-first, so later guesses add
	// latency for very little hit rate.
	maxPasswordAttempts = 8
)

// SubprocessOutput is what the Python decoder prints on stdout. The decoder
// emits either this JSON object or raw extracted text.
type SubprocessOutput struct {
	Success   bool   `json:"success"`
	Text      string `json:"text"`
	Method    string `json:"method"`
	FileName  string `json:"file_name"`
	CharCount int    `json:"char_count"`
	PageCount int    `json:"page_count"`
}

// Subprocess invokes the external document decoder (extractor.py) with a
// file path and optional password flag.
type Subprocess struct {
	python string
	script string
}

// NewSubprocess builds a decoder bridge. Empty python defaults to "python3".
func NewSubprocess(python, script string) *Subprocess {
	if python == "" {
		python = "python3"
	}
	return &Subprocess{python: python, script: script}
}

// Available reports whether the decoder script is on disk at all.
func (s *Subprocess) Available() bool {
	if s.script == "" {
		return false
	}
	_, err := os.Stat(s.script)
	return err == nil
}

// Decode writes data to a temp file and runs one decoder attempt with the
// given password ("" means no --password flag). The decoder is asked to save
// extracted text to an output file; its stdout carries only the status
// banner. A non-zero exit code or unusable output is reported as a failed
// attempt, never as a crash.
func (s *Subprocess) Decode(ctx context.Context, data []byte, filename, password string) (*SubprocessOutput, error) {
	path, cleanup, err := writeTempFile(data, filename)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	outPath := path + ".txt"
	defer os.Remove(outPath)

	args := []string{s.script, path, "--output", outPath}
	if password != "" {
		args = append(args, "--password", password)
	}

	out, err := s.run(ctx, args)
	if err != nil {
		return nil, err
	}
	return parseDecoderOutput(out, outPath), nil
}

// CheckProtected asks the decoder whether a document requires a password.
// On any failure it conservatively reports protected so the caller still
// walks the candidate list.
func (s *Subprocess) CheckProtected(ctx context.Context, data []byte, filename string) bool {
	path, cleanup, err := writeTempFile(data, filename)
	if err != nil {
		return true
	}
	defer cleanup()

	out, err := s.run(ctx, []string{s.script, path, "--check-protected"})
	if err != nil {
		return true
	}
	return !strings.Contains(strings.ToLower(out), "not protected")
}

func (s *Subprocess) run(ctx context.Context, args []string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, subprocessTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, s.python, args...)
	out, err := cmd.Output()
	if runCtx.Err() == context.DeadlineExceeded {
		log.Printf("[Extractor] decoder subprocess timed out after %s", subprocessTimeout)
		return "", fmt.Errorf("decoder subprocess timed out")
	}
	if err != nil {
		return "", fmt.Errorf("decoder subprocess: %w", err)
	}
	return string(out), nil
}

// parseDecoderOutput reads one decoder run. The stock decoder prints a
// dependency banner plus an "EXTRACTION SUCCESSFUL" or "EXTRACTION FAILED"
// status block on stdout and saves the text itself to outPath; a wrong
// password is a FAILED block, never usable text. A JSON object on stdout is
// honored first for decoder builds that emit one.
func parseDecoderOutput(stdout, outPath string) *SubprocessOutput {
	if start := strings.Index(stdout, "{"); start >= 0 {
		if candidate := balancedJSON(stdout[start:]); candidate != "" {
			var out SubprocessOutput
			if err := json.Unmarshal([]byte(candidate), &out); err == nil {
				return &out
			}
		}
	}

	if strings.Contains(stdout, "EXTRACTION FAILED") || strings.Contains(stdout, "❌") {
		return &SubprocessOutput{
			Success: false,
			Text:    decoderField(stdout, "Error:"),
			Method:  decoderField(stdout, "Method:"),
		}
	}

	if strings.Contains(stdout, "EXTRACTION SUCCESSFUL") {
		saved, err := os.ReadFile(outPath)
		if err != nil {
			return &SubprocessOutput{Success: false, Text: fmt.Sprintf("decoder output file missing: %v", err)}
		}
		text := strings.TrimSpace(string(saved))
		return &SubprocessOutput{
			Success:   text != "",
			Text:      text,
			Method:    decoderField(stdout, "Method:"),
			CharCount: len(text),
			PageCount: decoderPages(stdout),
		}
	}

	// Neither banner nor JSON: a plain decoder that prints text directly.
	text := strings.TrimSpace(stdout)
	return &SubprocessOutput{
		Success:   text != "",
		Text:      text,
		Method:    "raw-stdout",
		CharCount: len(text),
	}
}

// decoderField returns the value after key on the first banner line that
// carries it, e.g. "  Method: pymupdf" -> "pymupdf".
func decoderField(stdout, key string) string {
	for _, line := range strings.Split(stdout, "\n") {
		if idx := strings.Index(line, key); idx >= 0 {
			return strings.TrimSpace(line[idx+len(key):])
		}
	}
	return ""
}

// decoderPages parses the banner's "Pages:" line. "N/A" and absence are 0.
func decoderPages(stdout string) int {
	field := strings.ReplaceAll(decoderField(stdout, "Pages:"), ",", "")
	pages, err := strconv.Atoi(field)
	if err != nil {
		return 0
	}
	return pages
}

// balancedJSON returns the first balanced {...} block of s, or "".
func balancedJSON(s string) string {
	depth := 0
	inString := false
	escaped := false
	for i, r := range s {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = inString
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[:i+1]
				}
			}
		}
	}
	return ""
}

func writeTempFile(data []byte, filename string) (string, func(), error) {
	ext := filepath.Ext(filename)
	f, err := os.CreateTemp("", "attachment-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	f.Close()

	return f.Name(), func() { os.Remove(f.Name()) }, nil
}
