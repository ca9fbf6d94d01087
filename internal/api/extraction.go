package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/andy/invoicer/internal/domain"
)

// Upload is an optional document sent alongside extraction text
type Upload struct {
	Name   string
	Reader io.Reader
}

// ExtractJobDetails sends free text and/or a document for AI extraction
func (c *Client) ExtractJobDetails(ctx context.Context, text string, file *Upload) (*domain.ExtractionResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if text != "" {
		if err := w.WriteField("text", text); err != nil {
			return nil, fmt.Errorf("failed to write text field: %w", err)
		}
	}
	if file != nil {
		part, err := w.CreateFormFile("file", file.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create file part: %w", err)
		}
		if _, err := io.Copy(part, file.Reader); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish upload: %w", err)
	}

	var out domain.ExtractionResponse
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/extract-job-details",
		body:   &buf,
		ctype:  w.FormDataContentType(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
