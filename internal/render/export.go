package render

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Format is an export format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatText Format = "txt"
)

// ParseFormat accepts "pdf", "text" or "txt"
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf":
		return FormatPDF, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected pdf or text)", s)
	}
}

// Write renders doc to w in format f
func Write(w io.Writer, doc Document, f Format) error {
	switch f {
	case FormatPDF:
		return PDF(w, doc)
	case FormatText:
		return Text(w, doc)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// Export writes doc into dir, creating it if needed, and returns the file path
func Export(doc Document, f Format, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := OutputPath(dir, doc, string(f))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return "", err
	}
	if err := Write(file, doc, f); err != nil {
		file.Close()
		return "", err
	}
	return path, file.Close()
}
