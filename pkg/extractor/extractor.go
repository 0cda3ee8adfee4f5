// Package extractor turns raw attachment bytes into text. It prefers the
// external Python decoder for PDFs and images (it handles passwords and OCR)
// and degrades to in-process heuristics per format when the decoder is
// missing, times out or produces unusable output.
package extractor

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
)

// Extraction methods recorded on results.
const (
	MethodSubprocess     = "subprocess"
	MethodBufferFallback = "buffer-fallback"
	MethodOCRFallback    = "ocr-fallback"
)

const minUsableChars = 50

// Result is the outcome of extracting one attachment. Immutable once built.
type Result struct {
	Success       bool              `json:"success"`
	Text          string            `json:"text"`
	Method        string            `json:"method"`
	QualityScore  int               `json:"quality_score"`
	QualityStatus string            `json:"quality_status"`
	CharCount     int               `json:"char_count"`
	PageCount     int               `json:"page_count"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Service dispatches extraction by format.
type Service struct {
	sub *Subprocess
}

// NewService wires the decoder bridge. sub may be nil when no Python decoder
// is deployed; every format then uses its in-process path.
func NewService(sub *Subprocess) *Service {
	return &Service{sub: sub}
}

// Extract produces text for (data, filename, mimeType). passwords are tried
// in order for protected PDFs/images. It degrades instead of failing: the
// only error is an unreadable (nil) buffer.
func (s *Service) Extract(ctx context.Context, data []byte, filename, mimeType string, passwords []string) (*Result, error) {
	if data == nil {
		return nil, fmt.Errorf("attachment %s: buffer could not be read", filename)
	}

	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case ext == ".pdf" || mimeType == "application/pdf":
		return s.extractProtected(ctx, data, filename, passwords, false), nil
	case isImage(ext, mimeType):
		return s.extractProtected(ctx, data, filename, passwords, true), nil
	case ext == ".csv" || mimeType == "text/csv":
		return finish(extractCSV(data), MethodBufferFallback, true, data), nil
	case ext == ".xlsx" || ext == ".xls" || strings.Contains(mimeType, "spreadsheet"):
		return finish(extractSpreadsheet(data), MethodBufferFallback, true, data), nil
	case ext == ".docx" || ext == ".doc" || strings.Contains(mimeType, "wordprocessing"):
		return finish(extractDOCX(data), MethodBufferFallback, true, data), nil
	case ext == ".txt" || strings.HasPrefix(mimeType, "text/"):
		return finish(string(data), MethodBufferFallback, true, data), nil
	default:
		placeholder := fmt.Sprintf("[Unsupported attachment: %s, %d bytes, type %s]", filename, len(data), mimeType)
		return finish(placeholder, MethodBufferFallback, false, data), nil
	}
}

// extractProtected runs the subprocess candidate loop for PDFs and images,
// then falls back in-process.
func (s *Service) extractProtected(ctx context.Context, data []byte, filename string, passwords []string, image bool) *Result {
	if s.sub != nil && s.sub.Available() {
		if out := s.trySubprocess(ctx, data, filename, passwords); out != nil {
			res := finish(out.Text, MethodSubprocess, true, data)
			res.PageCount = out.PageCount
			if res.PageCount == 0 {
				res.PageCount = estimatePages(out.Text)
			}
			res.Metadata["decoder_method"] = out.Method
			return res
		}
		log.Printf("[Extractor] decoder produced no usable text for %s, using in-process fallback", filename)
	}

	if image {
		placeholder := fmt.Sprintf("[Image attachment %s (%d bytes): OCR pending, no decoder available]", filename, len(data))
		return finish(placeholder, MethodOCRFallback, false, data)
	}

	text := extractPDFBuffer(data)
	if strings.TrimSpace(text) == "" {
		text = fmt.Sprintf("[PDF attachment %s (%d bytes): no extractable text found]", filename, len(data))
		return finish(text, MethodBufferFallback, false, data)
	}
	res := finish(text, MethodBufferFallback, true, data)
	res.PageCount = estimatePages(text)
	return res
}

// trySubprocess walks the password candidates, one decoder run each, and
// returns the first attempt whose text clears the usable-length bar.
func (s *Service) trySubprocess(ctx context.Context, data []byte, filename string, passwords []string) *SubprocessOutput {
	candidates := passwords
	if !s.sub.CheckProtected(ctx, data, filename) {
		// Unprotected file: a single passwordless run is enough.
		candidates = []string{""}
	} else if len(candidates) == 0 {
		candidates = []string{""}
	}
	if len(candidates) > maxPasswordAttempts {
		candidates = candidates[:maxPasswordAttempts]
	}

	for i, pw := range candidates {
		out, err := s.sub.Decode(ctx, data, filename, pw)
		if err != nil {
			log.Printf("[Extractor] decoder attempt %d/%d for %s failed: %v", i+1, len(candidates), filename, err)
			continue
		}
		if out.Success && len(strings.TrimSpace(out.Text)) > minUsableChars {
			return out
		}
	}
	return nil
}

func finish(text, method string, success bool, source []byte) *Result {
	if strings.TrimSpace(text) == "" {
		text = fmt.Sprintf("[No extractable content, %d bytes]", len(source))
		success = false
	}
	score := ScoreQuality(text, len(source))
	return &Result{
		Success:       success,
		Text:          text,
		Method:        method,
		QualityScore:  score,
		QualityStatus: QualityStatus(score),
		CharCount:     len(text),
		Metadata:      map[string]string{},
	}
}

func isImage(ext, mimeType string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".tiff", ".bmp", ".gif":
		return true
	}
	return strings.HasPrefix(mimeType, "image/")
}

// estimatePages mirrors the decoder's heuristic of ~3000 chars per page.
func estimatePages(text string) int {
	pages := len(text) / 3000
	if pages < 1 {
		pages = 1
	}
	return pages
}
