package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	csvMaxRows       = 20
	pdfFallbackMin   = 50         // usable-text threshold for the PDF library path
	maxFallbackBytes = 100 * 1024 // cap on text pulled from one attachment
)

// extractPDFBuffer is the in-process PDF path used when the decoder
// subprocess is unavailable or produced low-quality output. It tries the pdf
// library first and degrades to a raw scan of text-show operators.
func extractPDFBuffer(data []byte) string {
	if text := pdfLibraryText(data); len(strings.TrimSpace(text)) >= pdfFallbackMin {
		return text
	}
	return scanTextOperators(data)
}

// pdfLibraryText extracts plain text via the pdf package. The library can
// panic on malformed files, so the call is wrapped in recover.
func pdfLibraryText(data []byte) (text string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Extractor] recovered pdf library panic: %v", r)
			text = ""
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return ""
	}

	raw, err := io.ReadAll(io.LimitReader(plain, maxFallbackBytes))
	if err != nil {
		return ""
	}
	return string(raw)
}

var (
	// Text-show operators inside BT/ET blocks: (literal) Tj and <hex> Tj,
	// plus array arguments to TJ.
	literalShowRe = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*T[jJ]`)
	hexShowRe     = regexp.MustCompile(`<([0-9A-Fa-f]+)>\s*T[jJ]`)
	arrayShowRe   = regexp.MustCompile(`\[((?:[^\[\]])*)\]\s*TJ`)
	literalRunRe  = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)`)
	hexRunRe      = regexp.MustCompile(`<([0-9A-Fa-f]+)>`)
)

// scanTextOperators walks the raw PDF bytes for BT ... ET text blocks and
// decodes the string runs handed to the show operators, including
// hex-encoded runs. Best effort: uncompressed content streams only.
func scanTextOperators(data []byte) string {
	var b strings.Builder
	content := string(data)

	for {
		start := strings.Index(content, "BT")
		if start < 0 {
			break
		}
		end := strings.Index(content[start:], "ET")
		if end < 0 {
			break
		}
		block := content[start : start+end]
		content = content[start+end+2:]

		for _, m := range literalShowRe.FindAllStringSubmatch(block, -1) {
			b.WriteString(unescapePDFString(m[1]))
			b.WriteByte(' ')
		}
		for _, m := range hexShowRe.FindAllStringSubmatch(block, -1) {
			b.WriteString(decodeHexRun(m[1]))
			b.WriteByte(' ')
		}
		for _, m := range arrayShowRe.FindAllStringSubmatch(block, -1) {
			for _, lit := range literalRunRe.FindAllStringSubmatch(m[1], -1) {
				b.WriteString(unescapePDFString(lit[1]))
			}
			for _, h := range hexRunRe.FindAllStringSubmatch(m[1], -1) {
				b.WriteString(decodeHexRun(h[1]))
			}
			b.WriteByte(' ')
		}

		if b.Len() > maxFallbackBytes {
			break
		}
	}

	return strings.TrimSpace(b.String())
}

func unescapePDFString(s string) string {
	replacer := strings.NewReplacer(
		`\n`, "\n",
		`\r`, "",
		`\t`, "\t",
		`\(`, "(",
		`\)`, ")",
		`\\`, `\`,
	)
	return replacer.Replace(s)
}

// decodeHexRun decodes a hex string run, keeping only printable output so
// two-byte encoded fonts don't turn into control-character noise.
func decodeHexRun(s string) string {
	if len(s)%2 != 0 {
		s += "0"
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, c := range raw {
		if c >= 0x20 && c < 0x7f {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// extractCSV parses the buffer respecting quoted fields and renders a
// markdown table capped at csvMaxRows data rows, with a footer noting the
// total when truncated.
func extractCSV(data []byte) string {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil || len(rows) == 0 {
		// Malformed CSV still yields its raw text rather than nothing.
		return strings.TrimSpace(string(data))
	}

	var b strings.Builder
	header := rows[0]
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(header)) + "\n")

	dataRows := rows[1:]
	shown := len(dataRows)
	if shown > csvMaxRows {
		shown = csvMaxRows
	}
	for _, row := range dataRows[:shown] {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	if len(dataRows) > csvMaxRows {
		b.WriteString(fmt.Sprintf("\n*Showing %d rows of %d total*\n", csvMaxRows, len(dataRows)))
	}

	return b.String()
}

var (
	docxTextNodeRe = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	sheetStringRe  = regexp.MustCompile(`<t[^>]*>([^<]*)</t>`)
	xmlEntities    = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'")
)

// extractDOCX pulls the text nodes out of word/document.xml. Falls back to
// a readable-run scan when the container cannot be opened.
func extractDOCX(data []byte) string {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return readableRuns(data)
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			break
		}
		xmlBytes, err := io.ReadAll(io.LimitReader(rc, maxFallbackBytes*4))
		rc.Close()
		if err != nil {
			break
		}

		var b strings.Builder
		for _, m := range docxTextNodeRe.FindAllSubmatch(xmlBytes, -1) {
			b.WriteString(xmlEntities.Replace(string(m[1])))
			b.WriteByte(' ')
		}
		return strings.TrimSpace(b.String())
	}

	return readableRuns(data)
}

// extractSpreadsheet is a best-effort string scan over the workbook bytes.
// Shared strings inside the container compress poorly, so printable runs
// recover most cell text without a full XLSX parser.
func extractSpreadsheet(data []byte) string {
	if zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data))); err == nil {
		for _, f := range zr.File {
			if f.Name != "xl/sharedStrings.xml" {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				break
			}
			xmlBytes, err := io.ReadAll(io.LimitReader(rc, maxFallbackBytes*4))
			rc.Close()
			if err != nil {
				break
			}
			var b strings.Builder
			for _, m := range sheetStringRe.FindAllSubmatch(xmlBytes, -1) {
				b.WriteString(xmlEntities.Replace(string(m[1])))
				b.WriteByte(' ')
			}
			if b.Len() > 0 {
				return strings.TrimSpace(b.String())
			}
		}
	}
	return readableRuns(data)
}

// readableRuns keeps printable-ASCII runs of four or more characters.
func readableRuns(data []byte) string {
	var b strings.Builder
	var run []byte
	for _, c := range data {
		if c >= 0x20 && c < 0x7f {
			run = append(run, c)
			continue
		}
		if len(run) >= 4 {
			b.Write(run)
			b.WriteByte(' ')
			if b.Len() > maxFallbackBytes {
				break
			}
		}
		run = run[:0]
	}
	if len(run) >= 4 && b.Len() <= maxFallbackBytes {
		b.Write(run)
	}
	return strings.TrimSpace(b.String())
}
