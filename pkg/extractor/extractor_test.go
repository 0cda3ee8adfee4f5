package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// service without a deployed decoder script: every format takes the
// in-process path.
func newFallbackService() *Service {
	return NewService(NewSubprocess("", "/nonexistent/extractor.py"))
}

func TestExtractCSVTruncatesAtTwentyRows(t *testing.T) {
	var b strings.Builder
	b.WriteString("Name,Amount\n")
	for i := 1; i <= 25; i++ {
		fmt.Fprintf(&b, "Merchant %d,%d.00\n", i, i*100)
	}

	res, err := newFallbackService().Extract(context.Background(), []byte(b.String()), "transactions.csv", "text/csv", nil)
	require.NoError(t, err)
	require.True(t, res.Success)

	assert.Contains(t, res.Text, "| Name | Amount |")
	assert.Contains(t, res.Text, "Merchant 20")
	assert.NotContains(t, res.Text, "Merchant 21")
	assert.Contains(t, res.Text, "*Showing 20 rows of 25 total*")
}

func TestExtractCSVQuotedFields(t *testing.T) {
	csvData := "Name,Amount\n\"Sharma, Traders\",\"1,200.50\"\n"

	res, err := newFallbackService().Extract(context.Background(), []byte(csvData), "ledger.csv", "text/csv", nil)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "Sharma, Traders")
	assert.NotContains(t, res.Text, "*Showing")
}

func TestExtractNeverFailsOnMalformedBuffers(t *testing.T) {
	svc := newFallbackService()

	cases := []struct {
		filename string
		mime     string
	}{
		{"broken.pdf", "application/pdf"},
		{"scan.jpg", "image/jpeg"},
		{"data.csv", "text/csv"},
		{"sheet.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"letter.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"note.txt", "text/plain"},
		{"blob.bin", "application/octet-stream"},
	}

	for _, tc := range cases {
		t.Run(tc.filename, func(t *testing.T) {
			for _, data := range [][]byte{{}, []byte("\x00\x01garbage\xff")} {
				res, err := svc.Extract(context.Background(), data, tc.filename, tc.mime, nil)
				require.NoError(t, err)
				require.NotNil(t, res)
				assert.NotEmpty(t, res.Text)
			}
		})
	}
}

func TestExtractNilBufferErrors(t *testing.T) {
	_, err := newFallbackService().Extract(context.Background(), nil, "x.pdf", "application/pdf", nil)
	assert.Error(t, err)
}

func TestExtractImagePlaceholder(t *testing.T) {
	res, err := newFallbackService().Extract(context.Background(), []byte{0xff, 0xd8, 0xff}, "receipt.jpg", "image/jpeg", nil)
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, MethodOCRFallback, res.Method)
	assert.Contains(t, res.Text, "OCR pending")
	assert.Contains(t, res.Text, "receipt.jpg")
}

func TestExtractUnknownTypePlaceholder(t *testing.T) {
	res, err := newFallbackService().Extract(context.Background(), []byte("1234"), "archive.rar", "application/octet-stream", nil)
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Contains(t, res.Text, "archive.rar")
	assert.Contains(t, res.Text, "4 bytes")
}

func TestExtractPlainTextPassthrough(t *testing.T) {
	body := "Your EMI of Rs. 4,500.00 is due on 05/09/2025."

	res, err := newFallbackService().Extract(context.Background(), []byte(body), "reminder.txt", "text/plain", nil)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, body, res.Text)
	assert.Equal(t, len(body), res.CharCount)
	// Dense financial text with currency and date markers.
	assert.GreaterOrEqual(t, res.QualityScore, 85)
}

func TestScanTextOperators(t *testing.T) {
	pdfStream := "junk BT (Account Statement) Tj <48444643> Tj [(Bal)(ance)] TJ ET junk"

	text := scanTextOperators([]byte(pdfStream))

	assert.Contains(t, text, "Account Statement")
	assert.Contains(t, text, "HDFC") // hex 48 44 46 43
	assert.Contains(t, text, "Balance")
}

func TestParseDecoderOutputJSON(t *testing.T) {
	stdout := "⟳ Processing: doc.pdf\n{\"success\": true, \"text\": \"hello from decoder\", \"method\": \"PyMuPDF\", \"char_count\": 18}\n"

	out := parseDecoderOutput(stdout, "")

	assert.True(t, out.Success)
	assert.Equal(t, "hello from decoder", out.Text)
	assert.Equal(t, "PyMuPDF", out.Method)
}

func TestParseDecoderOutputRawText(t *testing.T) {
	out := parseDecoderOutput("plain extracted text, no JSON payload", "")

	assert.True(t, out.Success)
	assert.Equal(t, "raw-stdout", out.Method)
	assert.Contains(t, out.Text, "plain extracted text")
}

// The decoder reports a wrong password as a FAILED status block on stdout.
// That banner must never be mistaken for extracted text, or the candidate
// walk stops on the first wrong guess.
func TestParseDecoderOutputFailureBanner(t *testing.T) {
	stdout := strings.Join([]string{
		"",
		"==================================================",
		"DEPENDENCY CHECK",
		"==================================================",
		"  PyMuPDF:    ✓ Available",
		"  pypdf:      ✓ Available",
		"  OCR:        ✗ Install: pip install pytesseract pdf2image pillow",
		"  DOCX:       ✓ Available",
		"  Excel:      ✓ Available",
		"==================================================",
		"",
		"==================================================",
		"✗ EXTRACTION FAILED",
		"==================================================",
		"  File: statement.pdf",
		"  Error: ❌ Incorrect password provided",
		"==================================================",
		"",
	}, "\n")

	out := parseDecoderOutput(stdout, "")

	assert.False(t, out.Success)
	assert.Equal(t, "❌ Incorrect password provided", out.Text)
}

func TestParseDecoderOutputSuccessBanner(t *testing.T) {
	saved := filepath.Join(t.TempDir(), "statement.pdf.txt")
	body := "Account Statement for Priya Sharma\nOpening balance Rs. 1,20,000.00 as on 01/04/2025."
	require.NoError(t, os.WriteFile(saved, []byte(body), 0o644))

	stdout := strings.Join([]string{
		"==================================================",
		"✓ EXTRACTION SUCCESSFUL",
		"==================================================",
		"  File: statement.pdf",
		"  Method: pymupdf",
		"  Size: 48.2 KB",
		"  Characters: 1,204",
		"  Pages: 2",
		"  Output: " + saved,
		"==================================================",
	}, "\n")

	out := parseDecoderOutput(stdout, saved)

	assert.True(t, out.Success)
	assert.Equal(t, body, out.Text)
	assert.Equal(t, "pymupdf", out.Method)
	assert.Equal(t, 2, out.PageCount)
}

// writeStubDecoder drops a shell stand-in for the Python decoder into dir.
// It appends each attempted password to logPath, answers --check-protected
// with "is protected" and succeeds only for accept, emitting the decoder's
// banner format either way.
func writeStubDecoder(t *testing.T, dir, logPath, accept, text string) *Subprocess {
	t.Helper()

	script := filepath.Join(dir, "decoder.sh")
	body := fmt.Sprintf(`PW=""
OUT=""
CHECK=0
while [ $# -gt 0 ]; do
  case "$1" in
    --check-protected) CHECK=1 ;;
    --password) shift; PW="$1" ;;
    --output) shift; OUT="$1" ;;
  esac
  shift
done
if [ "$CHECK" = "1" ]; then
  echo "statement.pdf is protected"
  exit 0
fi
echo "pw=$PW" >> %q
echo "=================================================="
echo "DEPENDENCY CHECK"
echo "=================================================="
echo ""
echo "=================================================="
if [ "$PW" = %q ]; then
  printf '%%s' %q > "$OUT"
  echo "✓ EXTRACTION SUCCESSFUL"
  echo "  File: statement.pdf"
  echo "  Method: pymupdf"
  echo "  Pages: 2"
else
  echo "✗ EXTRACTION FAILED"
  echo "  File: statement.pdf"
  echo "  Error: ❌ Incorrect password provided"
fi
echo "=================================================="
`, logPath, accept, text)
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	return NewSubprocess("/bin/sh", script)
}

func readAttempts(t *testing.T, logPath string) []string {
	t.Helper()
	raw, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(raw)), "\n")
}

func TestSubprocessWalksPasswordCandidates(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "attempts.log")
	body := "Account Statement for Priya Sharma. Closing balance Rs. 1,20,000.00 as on 30/04/2025."
	svc := NewService(writeStubDecoder(t, dir, logPath, "PRIY0514", body))

	res, err := svc.Extract(context.Background(), []byte("%PDF-1.4"), "statement.pdf", "application/pdf",
		[]string{"priya1990", "9876543210", "PRIY0514", "ABCDE1234F"})
	require.NoError(t, err)

	require.True(t, res.Success)
	assert.Equal(t, MethodSubprocess, res.Method)
	assert.Equal(t, body, res.Text)
	assert.Equal(t, 2, res.PageCount)
	assert.Equal(t, "pymupdf", res.Metadata["decoder_method"])

	// Wrong guesses are walked past, and the walk stops on the first hit.
	assert.Equal(t, []string{"pw=priya1990", "pw=9876543210", "pw=PRIY0514"}, readAttempts(t, logPath))
}

func TestSubprocessCapsPasswordAttempts(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "attempts.log")
	svc := NewService(writeStubDecoder(t, dir, logPath, "never-matches", "unused"))

	candidates := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("guess%d", i))
	}

	res, err := svc.Extract(context.Background(), []byte("%PDF-1.4"), "statement.pdf", "application/pdf", candidates)
	require.NoError(t, err)

	// Every attempt fails, so the buffer fallback answers instead.
	assert.Equal(t, MethodBufferFallback, res.Method)
	assert.Len(t, readAttempts(t, logPath), maxPasswordAttempts)
}
