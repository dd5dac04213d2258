//go:build tesseract

package extract

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// tesseractRecognizer runs libtesseract through cgo. A client is not safe
// for concurrent use, so each call gets its own.
type tesseractRecognizer struct {
	languages []string
}

func NewRecognizer(languages []string) Recognizer {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &tesseractRecognizer{languages: languages}
}

func (r *tesseractRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(r.languages...); err != nil {
		return "", err
	}
	// keep column layout so "Mon 8" stays on one line
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", err
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", err
	}
	text, err := client.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
