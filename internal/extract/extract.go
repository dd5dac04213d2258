// Package extract turns uploaded timesheet files (spreadsheets, CSV, PDF,
// Word documents, scans) into weekly hour buckets.
//
// Every format is reduced either to rows of cells or to lines of text, then
// parsed heuristically: tabular input looks for a header row naming the
// weekdays, text input looks for a weekday followed by a number on the same
// line. The result is validated against the daily/weekly bounds and scored
// with a confidence in [0,1].
package extract

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/zeebo/xxh3"
	"go.uber.org/zap"

	"github.com/totegamma/timepulse"
)

type Strategy string

const (
	StrategyOCR   Strategy = "ocr"
	StrategyExcel Strategy = "excel"
	StrategyCSV   Strategy = "csv"
	StrategyPDF   Strategy = "pdf"
	StrategyWord  Strategy = "word"
	StrategyText  Strategy = "text"
)

var (
	ErrEmptyFile         = errors.New("file is empty")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrFileTooLarge      = errors.New("file is too large")
	ErrOCRUnavailable    = errors.New("image recognition is not available in this build")
)

const DefaultMaxBytes = 10 << 20

// Result is the normalized outcome of one extraction.
type Result struct {
	DailyHours   timepulse.DailyHours `json:"dailyHours"`
	TotalHours   float64              `json:"totalHours"`
	EmployeeName string               `json:"employeeName,omitempty"`
	ClientName   string               `json:"clientName,omitempty"`
	Confidence   float64              `json:"confidence"`
	Strategy     Strategy             `json:"strategy"`
	Warnings     []string             `json:"warnings"`
	Valid        bool                 `json:"valid"`
	Fingerprint  string               `json:"fingerprint"`
}

// Recognizer reads the text out of an image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

type Extractor struct {
	ocr      Recognizer
	maxBytes int
	logger   *zap.Logger
}

func NewExtractor(ocr Recognizer, maxBytes int, logger *zap.Logger) *Extractor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{ocr: ocr, maxBytes: maxBytes, logger: logger}
}

var extStrategies = map[string]Strategy{
	".png":  StrategyOCR,
	".jpg":  StrategyOCR,
	".jpeg": StrategyOCR,
	".tif":  StrategyOCR,
	".tiff": StrategyOCR,
	".bmp":  StrategyOCR,
	".gif":  StrategyOCR,
	".webp": StrategyOCR,
	".xlsx": StrategyExcel,
	".xlsm": StrategyExcel,
	".xls":  StrategyExcel,
	".csv":  StrategyCSV,
	".pdf":  StrategyPDF,
	".docx": StrategyWord,
	".txt":  StrategyText,
}

var mimeStrategies = map[string]Strategy{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       StrategyExcel,
	"application/vnd.ms-excel":                                                StrategyExcel,
	"text/csv":                                                                StrategyCSV,
	"application/csv":                                                         StrategyCSV,
	"application/pdf":                                                         StrategyPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": StrategyWord,
	"text/plain":                                                              StrategyText,
}

// Detect picks a strategy from the MIME type, falling back to the extension.
func Detect(filename, contentType string) (Strategy, error) {
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			if strings.HasPrefix(mediaType, "image/") {
				return StrategyOCR, nil
			}
			if s, ok := mimeStrategies[mediaType]; ok {
				return s, nil
			}
		}
	}
	if s, ok := extStrategies[strings.ToLower(filepath.Ext(filename))]; ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
}

// Fingerprint identifies an upload by content.
func Fingerprint(data []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}

func (x *Extractor) Extract(ctx context.Context, filename, contentType string, data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, ErrEmptyFile
	}
	if len(data) > x.maxBytes {
		return Result{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(data), x.maxBytes)
	}

	strategy, err := Detect(filename, contentType)
	if err != nil {
		return Result{}, err
	}

	var p parsed
	switch strategy {
	case StrategyExcel:
		var rows [][]string
		if strings.ToLower(filepath.Ext(filename)) == ".xls" || contentType == "application/vnd.ms-excel" {
			rows, err = readXLS(data)
		} else {
			rows, err = readXLSX(data)
		}
		if err != nil {
			return Result{}, err
		}
		p = parseTable(rows)
	case StrategyCSV:
		rows, err := readCSV(data)
		if err != nil {
			return Result{}, err
		}
		p = parseTable(rows)
	case StrategyPDF:
		text, err := readPDF(data)
		if err != nil {
			return Result{}, err
		}
		p = parseText(text)
	case StrategyWord:
		text, err := readDOCX(data)
		if err != nil {
			return Result{}, err
		}
		p = parseText(text)
	case StrategyOCR:
		if x.ocr == nil {
			return Result{}, ErrOCRUnavailable
		}
		text, err := x.ocr.Recognize(ctx, data)
		if err != nil {
			return Result{}, fmt.Errorf("recognize %s: %w", filename, err)
		}
		p = parseText(text)
	case StrategyText:
		p = parseText(string(data))
	}

	result := finalize(p, strategy)
	result.Fingerprint = Fingerprint(data)

	x.logger.Debug("timesheet extracted",
		zap.String("file", filename),
		zap.String("strategy", string(strategy)),
		zap.Float64("totalHours", result.TotalHours),
		zap.Float64("confidence", result.Confidence),
		zap.Strings("warnings", result.Warnings),
	)

	return result, nil
}
