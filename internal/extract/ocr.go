//go:build !tesseract

package extract

// NewRecognizer returns nil in builds without the tesseract tag; image
// uploads then fail with ErrOCRUnavailable.
func NewRecognizer(languages []string) Recognizer {
	return nil
}
