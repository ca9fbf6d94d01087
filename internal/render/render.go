// Package render turns a finished invoice into a shareable document.
package render

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/format"
	"github.com/gosimple/slug"
)

// Party is one side of the invoice header
type Party struct {
	Name    string
	Email   string
	Address string
	Phone   string
}

func (p Party) lines() []string {
	var out []string
	for _, s := range []string{p.Name, p.Address, p.Email, p.Phone} {
		for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
	}
	return out
}

// Document is everything printed on a rendered invoice
type Document struct {
	Invoice  domain.Invoice
	From     Party
	BillTo   Party
	Currency string
}

// NewDocument resolves the bill-to party and currency. client may be nil,
// in which case the client embedded in inv is used.
func NewDocument(inv domain.Invoice, from Party, client *domain.Client, currency string) Document {
	if client == nil {
		client = inv.Client
	}

	doc := Document{Invoice: inv, From: from}
	if client != nil {
		doc.BillTo = Party{Name: client.Name, Email: client.Email, Address: client.Address, Phone: client.Phone}
	} else {
		doc.BillTo = Party{Name: fmt.Sprintf("Client #%d", inv.ClientID)}
	}

	switch {
	case inv.Currency != "":
		doc.Currency = inv.Currency
	case currency != "":
		doc.Currency = currency
	default:
		doc.Currency = format.DefaultCurrency
	}
	return doc
}

// Number returns the invoice number, or a stand-in built from the id
func (d Document) Number() string {
	if n := strings.TrimSpace(d.Invoice.Number); n != "" {
		return n
	}
	return fmt.Sprintf("INV-%d", d.Invoice.ID)
}

// FileName builds "INV-0001-acme-corp.pdf" from the invoice number and client name
func FileName(doc Document, ext string) string {
	number := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ' || r == '/':
			return '-'
		}
		return -1
	}, doc.Number())

	name := number
	if s := slug.Make(doc.BillTo.Name); s != "" {
		name += "-" + s
	}

	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return name
	}
	return name + "." + ext
}

// OutputPath joins dir and the document's file name
func OutputPath(dir string, doc Document, ext string) string {
	return filepath.Join(dir, FileName(doc, ext))
}
