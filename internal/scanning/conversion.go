package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// receiptPrompt is the shared field-extraction instruction sent to every
// backend along with the receipt image.
const receiptPrompt = `You are a professional receipt reader. Extract fields from this receipt image.
Only the following fields are needed:
- merchant
- address
- date (ISO 8601, YYYY-MM-DD)
- subtotal
- tax
- total
- currency
- line_items: an array of objects with description, quantity, unit_price, amount

Return ONLY valid JSON in this exact format:

{
  "merchant": "Starbucks Coffee",
  "address": "123 Orchard Road, Singapore",
  "date": "2025-08-29",
  "subtotal": 9.50,
  "tax": 0.50,
  "total": 10.00,
  "currency": "SGD",
  "line_items": [
    {
      "description": "Latte Tall",
      "quantity": 1,
      "unit_price": 5.00,
      "amount": 5.00
    },
    {
      "description": "Blueberry Muffin",
      "quantity": 1,
      "unit_price": 4.50,
      "amount": 4.50
    }
  ]
}

Important:
- Numbers must be numbers, not strings
- If you cannot find a field, use null for that field
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// pdfToPNG renders the first page of a PDF as a PNG image. Receipts are
// almost always single page.
func pdfToPNG(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// imageToPNG re-encodes any supported image format as PNG. HEIC/HEIF (the
// default on iPhones) needs its own decoder; the stdlib covers JPEG, PNG
// and GIF.
func imageToPNG(imageData []byte, mimeType string) ([]byte, error) {
	var img image.Image
	var err error

	if isHEIC(imageData) || isHEICMimeType(mimeType) {
		img, err = heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			if strings.Contains(err.Error(), "unknown format") || strings.Contains(err.Error(), "unsupported") {
				return nil, fmt.Errorf("unsupported image format, expected JPEG, PNG, GIF, HEIC, HEIF or PDF: %w", err)
			}
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// isHEIC sniffs the ftyp box brands HEIC containers start with.
func isHEIC(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// prepareImage normalizes an uploaded receipt for the model: PDFs are
// rendered, HEIC and other non-PNG images re-encoded. The returned data is
// always PNG.
func prepareImage(imageData []byte, contentType string) ([]byte, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	if mimeType == "application/pdf" {
		data, err := pdfToPNG(imageData)
		if err != nil {
			return nil, fmt.Errorf("converting PDF: %w", err)
		}
		return data, nil
	}
	if mimeType == "image/png" && !isHEIC(imageData) {
		return imageData, nil
	}
	data, err := imageToPNG(imageData, mimeType)
	if err != nil {
		return nil, fmt.Errorf("converting image: %w", err)
	}
	return data, nil
}
