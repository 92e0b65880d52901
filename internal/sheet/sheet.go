// Package sheet decodes uploaded report files into csvparse rows. Text
// uploads go through csvparse; spreadsheet uploads are read with excelize
// from their first (or a named) worksheet.
package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/merchdesk/internal/csvparse"
)

// Format is a supported upload encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	ErrUnsupported = errors.New("unsupported file type")
	ErrTooLarge    = errors.New("file exceeds maximum upload size")
	ErrNoSheet     = errors.New("workbook has no such sheet")
)

// Options controls decoding.
type Options struct {
	// Sheet selects a worksheet by name. Empty means the first sheet.
	Sheet string
	CSV   csvparse.Options
}

// Detect sniffs data and falls back to the file extension for zip
// containers that are not recognised as workbooks.
func Detect(data []byte, filename string) (Format, error) {
	mt := mimetype.Detect(data)
	ext := strings.ToLower(filepath.Ext(filename))

	for m := mt; m != nil; m = m.Parent() {
		switch {
		case m.Is(xlsxMIME):
			return FormatXLSX, nil
		case m.Is("application/zip") && ext == ".xlsx":
			return FormatXLSX, nil
		case m.Is("text/plain"):
			return FormatCSV, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, mt.String())
}

// Read reads at most maxSize bytes from r and decodes them. A maxSize of
// zero disables the limit.
func Read(r io.Reader, filename string, maxSize int64, opts Options) ([]csvparse.Row, error) {
	if maxSize > 0 {
		r = io.LimitReader(r, maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, ErrTooLarge
	}
	return Decode(data, filename, opts)
}

// Decode converts an upload into rows keyed by its header row.
func Decode(data []byte, filename string, opts Options) ([]csvparse.Row, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	format, err := Detect(data, filename)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatXLSX:
		return decodeXLSX(data, opts.Sheet)
	default:
		return csvparse.Parse(string(Sanitize(data)), opts.CSV), nil
	}
}

// Sanitize replaces each invalid UTF-8 byte with U+FFFD so exports saved
// in legacy encodings still parse.
func Sanitize(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
		} else {
			buf.Write(data[:size])
		}
		data = data[size:]
	}
	return buf.Bytes()
}

func decodeXLSX(data []byte, sheetName string) ([]csvparse.Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoSheet, sheetName)
	}

	cells, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}

	var (
		header []string
		rows   []csvparse.Row
	)
	for i, values := range cells {
		if isBlank(values) {
			continue
		}
		for j := range values {
			values[j] = strings.TrimSpace(values[j])
		}
		if header == nil {
			header = values
			continue
		}
		rows = append(rows, csvparse.NewRow(i+1, header, values))
	}
	return rows, nil
}

func isBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
