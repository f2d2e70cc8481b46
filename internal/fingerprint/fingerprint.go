// Package fingerprint derives stable content identities for uploaded
// files. A fingerprint is a pure function of the file bytes and extracted
// text; determinism here is what makes cascade matching possible at all.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
	"time"

	"github.com/todmy/doc-integrity/internal/fault"
	"github.com/todmy/doc-integrity/pkg/models"
)

const (
	// firstPageChars is how much extracted text feeds the first-page hash.
	firstPageChars = 2000
	// previewChars caps the normalized content preview.
	previewChars = 500
)

// Input describes one file to fingerprint. Text and PageCount are
// optional: absent text simply omits the text-derived fields.
type Input struct {
	FileName     string
	Size         int64
	LastModified time.Time
	Reader       io.Reader
	Text         string
	PageCount    int
}

// Generate computes a fingerprint over the input. Failure to read the raw
// bytes is a hard Corrupted error; empty or missing text never fails the
// operation, the optional fields are just left out.
func Generate(in Input) (models.Fingerprint, error) {
	if in.FileName == "" {
		return models.Fingerprint{}, fault.New(fault.Validation, "file name is required")
	}
	if in.Reader == nil {
		return models.Fingerprint{}, fault.New(fault.Validation, "file reader is required")
	}

	h := sha256.New()
	if _, err := io.Copy(h, in.Reader); err != nil {
		return models.Fingerprint{}, fault.Wrap(fault.Corrupted, err, "hash file %q", in.FileName)
	}

	fp := models.Fingerprint{
		FileName:     in.FileName,
		FileSize:     in.Size,
		ContentHash:  hex.EncodeToString(h.Sum(nil)),
		LastModified: in.LastModified,
	}
	if in.PageCount > 0 {
		fp.PageCount = in.PageCount
	}

	if text := strings.TrimSpace(in.Text); text != "" {
		fp.FirstPageHash = hashText(firstPage(in.Text))
		fp.ContentPreview = preview(in.Text)
	}

	return fp, nil
}

// firstPage returns the trimmed leading slice of text used for the
// first-page hash.
func firstPage(text string) string {
	runes := []rune(text)
	if len(runes) > firstPageChars {
		runes = runes[:firstPageChars]
	}
	return strings.TrimSpace(string(runes))
}

// preview collapses whitespace runs to single spaces and truncates.
// The preview is only ever used for fuzzy similarity, never for exact
// matching.
func preview(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	runes := []rune(collapsed)
	if len(runes) > previewChars {
		runes = runes[:previewChars]
	}
	return string(runes)
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
