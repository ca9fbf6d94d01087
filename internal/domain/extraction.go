package domain

import "strings"

// BackendExtraction is the raw "parsed" object returned by the extraction endpoint
type BackendExtraction struct {
	Jobs          []string `json:"jobs"`
	Deadlines     []string `json:"deadlines"`
	PaymentTerms  *string  `json:"payment_terms"`
	Amount        *float64 `json:"amount"`
	Currency      *string  `json:"currency"`
	ClientName    *string  `json:"client_name"`
	ClientEmail   *string  `json:"client_email"`
	ClientAddress *string  `json:"client_address"`
	Confidence    *float64 `json:"confidence"`
}

// ExtractionResponse is the body of POST /v1/extract-job-details
type ExtractionResponse struct {
	ExtractionID int64             `json:"extraction_id"`
	Parsed       BackendExtraction `json:"parsed"`
}

// ExtractedData is the display shape used to pre-fill a new invoice draft
type ExtractedData struct {
	ExtractionID int64
	Client       ExtractedClient
	DueDate      string
	Currency     string
	LineItems    []ExtractedItem
	Subtotal     float64
	Tax          float64
	Total        float64
	Notes        string
	Confidence   float64
}

type ExtractedClient struct {
	Name    string
	Email   string
	Address string
}

// ExtractedItem carries an amount that is trusted as-is until the item is edited
type ExtractedItem struct {
	Description string
	Quantity    float64
	UnitPrice   float64
	Amount      float64
}

// HasClient reports whether the extraction identified a client
func (e *ExtractedData) HasClient() bool {
	return e.Client.Name != "" || e.Client.Email != ""
}

// TransformExtraction maps the backend format to ExtractedData. Every job
// becomes one item of quantity 1 priced at the single aggregate amount; the
// first deadline becomes the due date and payment terms become notes.
func TransformExtraction(resp ExtractionResponse) ExtractedData {
	p := resp.Parsed
	amount := 0.0
	if p.Amount != nil {
		amount = *p.Amount
	}

	out := ExtractedData{
		ExtractionID: resp.ExtractionID,
		Client: ExtractedClient{
			Name:    deref(p.ClientName),
			Email:   deref(p.ClientEmail),
			Address: deref(p.ClientAddress),
		},
		Currency:  deref(p.Currency),
		LineItems: make([]ExtractedItem, 0, len(p.Jobs)),
		Subtotal:  amount,
		Tax:       0,
		Total:     amount,
		Notes:     deref(p.PaymentTerms),
	}
	if len(p.Deadlines) > 0 {
		out.DueDate = strings.TrimSpace(p.Deadlines[0])
	}
	if p.Confidence != nil {
		out.Confidence = *p.Confidence
	}
	for _, job := range p.Jobs {
		out.LineItems = append(out.LineItems, ExtractedItem{
			Description: job,
			Quantity:    1,
			UnitPrice:   amount,
			Amount:      amount,
		})
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
