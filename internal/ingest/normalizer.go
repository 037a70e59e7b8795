// Package ingest turns inbound attachment payloads into plain text. It is
// the boundary to the OCR/rendering collaborators; nothing here inspects the
// meaning of the extracted text.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"healthtrack-bot/pkg"
)

var (
	// ErrUnsupportedMedia means the declared media kind cannot be handled.
	ErrUnsupportedMedia = errors.New("unsupported media kind")

	// ErrExtractionFailed means no text could be recovered from the payload.
	ErrExtractionFailed = errors.New("text extraction failed")
)

// OCRFunc recovers text from an image or a rendered PDF page.
type OCRFunc func(ctx context.Context, data []byte, kind pkg.MediaKind) (string, error)

// Normalizer converts attachment payloads into plain text. Plain-text
// payloads pass straight through; image and PDF payloads are delegated to
// the configured OCR backend.
type Normalizer struct {
	ocr OCRFunc
}

// New constructs a Normalizer. A nil ocr leaves image and PDF extraction
// unavailable; those payloads then fail with ErrExtractionFailed.
func New(ocr OCRFunc) *Normalizer {
	return &Normalizer{ocr: ocr}
}

// Extract returns the plain text recovered from the payload.
func (n *Normalizer) Extract(ctx context.Context, data []byte, kind pkg.MediaKind) (string, error) {
	switch kind {
	case pkg.MediaText:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: payload is not valid UTF-8 text", ErrExtractionFailed)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			return "", fmt.Errorf("%w: empty text payload", ErrExtractionFailed)
		}
		return text, nil
	case pkg.MediaImage, pkg.MediaPDF:
		if n.ocr == nil {
			return "", fmt.Errorf("%w: no OCR backend configured", ErrExtractionFailed)
		}
		text, err := n.ocr(ctx, data, kind)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return "", fmt.Errorf("%w: no text found", ErrExtractionFailed)
		}
		return text, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMedia, kind)
	}
}
