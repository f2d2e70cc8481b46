package fingerprint

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/todmy/doc-integrity/internal/fault"
)

func TestGenerate_Deterministic(t *testing.T) {
	content := []byte("officer report: 12 digital photographs collected")
	modified := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	in := func() Input {
		return Input{
			FileName:     "report.txt",
			Size:         int64(len(content)),
			LastModified: modified,
			Reader:       bytes.NewReader(content),
			Text:         string(content),
			PageCount:    2,
		}
	}

	first, err := Generate(in())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	second, err := Generate(in())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if first != second {
		t.Errorf("same input produced different fingerprints:\n%+v\n%+v", first, second)
	}

	if first.ContentHash == "" || first.FirstPageHash == "" {
		t.Error("expected content and first page hashes to be set")
	}

	if first.PageCount != 2 {
		t.Errorf("expected page count 2, got %d", first.PageCount)
	}
}

func TestGenerate_NoText(t *testing.T) {
	fp, err := Generate(Input{
		FileName: "scan.txt",
		Size:     4,
		Reader:   bytes.NewReader([]byte{0x01, 0x02, 0x03, 0x04}),
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if fp.ContentHash == "" {
		t.Error("expected content hash even without text")
	}

	if fp.FirstPageHash != "" || fp.ContentPreview != "" {
		t.Error("expected text-derived fields to be empty without text")
	}
}

func TestGenerate_PreviewNormalization(t *testing.T) {
	text := "line one\n\n\tline   two  \n line three"

	fp, err := Generate(Input{
		FileName: "notes.txt",
		Size:     int64(len(text)),
		Reader:   strings.NewReader(text),
		Text:     text,
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if fp.ContentPreview != "line one line two line three" {
		t.Errorf("expected collapsed whitespace in preview, got %q", fp.ContentPreview)
	}
}

func TestGenerate_PreviewTruncation(t *testing.T) {
	text := strings.Repeat("word ", 200)

	fp, err := Generate(Input{
		FileName: "long.txt",
		Size:     int64(len(text)),
		Reader:   strings.NewReader(text),
		Text:     text,
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if got := len([]rune(fp.ContentPreview)); got > previewChars {
		t.Errorf("expected preview capped at %d runes, got %d", previewChars, got)
	}
}

func TestGenerate_MissingFileName(t *testing.T) {
	_, err := Generate(Input{Reader: strings.NewReader("x")})
	if !fault.IsKind(err, fault.Validation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestGenerate_MissingReader(t *testing.T) {
	_, err := Generate(Input{FileName: "report.txt"})
	if !fault.IsKind(err, fault.Validation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk error")
}

func TestGenerate_UnreadableBytes(t *testing.T) {
	_, err := Generate(Input{FileName: "report.txt", Reader: failingReader{}})
	if !fault.IsKind(err, fault.Corrupted) {
		t.Errorf("expected corrupted error, got %v", err)
	}
}
