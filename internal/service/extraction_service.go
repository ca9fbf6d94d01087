package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/andy/invoicer/internal/api"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/draft"
	"go.uber.org/zap"
)

var ErrNothingToExtract = errors.New("provide text or a file to extract from")

// SeededDraft is a new draft prefilled from an extraction
type SeededDraft struct {
	Data          domain.ExtractedData
	Client        *domain.Client // nil when the extraction named no usable client
	ClientCreated bool
	Draft         *draft.Controller
}

// ExtractionService turns free text or documents into invoice drafts
type ExtractionService interface {
	Extract(ctx context.Context, text string, file *api.Upload) (*domain.ExtractedData, error)

	// Seed resolves the extracted client and builds a draft from data
	Seed(ctx context.Context, data domain.ExtractedData) (*SeededDraft, error)
}

type extractionService struct {
	api      ExtractionAPI
	clients  ClientService
	invoices InvoiceService
	logger   *zap.Logger
}

func NewExtractionService(extractionAPI ExtractionAPI, clients ClientService, invoices InvoiceService, logger *zap.Logger) ExtractionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &extractionService{api: extractionAPI, clients: clients, invoices: invoices, logger: logger}
}

func (s *extractionService) Extract(ctx context.Context, text string, file *api.Upload) (*domain.ExtractedData, error) {
	text = strings.TrimSpace(text)
	if text == "" && file == nil {
		return nil, ErrNothingToExtract
	}

	resp, err := s.api.ExtractJobDetails(ctx, text, file)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	data := domain.TransformExtraction(*resp)
	s.logger.Info("extraction complete",
		zap.Int64("extraction_id", data.ExtractionID),
		zap.Int("items", len(data.LineItems)),
		zap.Float64("confidence", data.Confidence),
	)
	return &data, nil
}

func (s *extractionService) Seed(ctx context.Context, data domain.ExtractedData) (*SeededDraft, error) {
	out := &SeededDraft{Data: data}

	client, created, err := s.clients.FindOrCreate(ctx, data.Client)
	switch {
	case errors.Is(err, ErrClientIncomplete):
		// left for the user to pick
	case err != nil:
		return nil, err
	default:
		out.Client = client
		out.ClientCreated = created
	}

	var clientID int64
	if out.Client != nil {
		clientID = out.Client.ID
	}
	out.Draft = draft.FromExtraction(data, s.invoices.DraftOptions(clientID))
	return out, nil
}
