package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultMistralOCRURL = "https://api.mistral.ai/v1/ocr"

// MistralOCR extracts the text of remote PDFs through the Mistral OCR API.
type MistralOCR struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewMistralOCR(apiKey string) *MistralOCR {
	return &MistralOCR{
		apiKey:  apiKey,
		baseURL: defaultMistralOCRURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type ocrRequest struct {
	Model    string      `json:"model"`
	Document ocrDocument `json:"document"`
}

type ocrDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

type ocrResponse struct {
	Pages []struct {
		Index    int    `json:"index"`
		Markdown string `json:"markdown"`
	} `json:"pages"`
}

// ExtractPDF runs OCR on the PDF at pdfURL and returns its pages joined as
// one markdown document.
func (m *MistralOCR) ExtractPDF(ctx context.Context, pdfURL string) (string, error) {
	if strings.TrimSpace(m.apiKey) == "" {
		return "", fmt.Errorf("mistral ocr: %w (set MISTRAL_API_KEY)", ErrMissingAPIKey)
	}

	// arXiv hands out http:// links, the OCR endpoint wants https.
	pdfURL = strings.Replace(pdfURL, "http://", "https://", 1)

	payload, err := json.Marshal(ocrRequest{
		Model:    "mistral-ocr-latest",
		Document: ocrDocument{Type: "document_url", DocumentURL: pdfURL},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ocr returned status %d: %s", resp.StatusCode, string(body))
	}

	var ocr ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&ocr); err != nil {
		return "", fmt.Errorf("failed to decode ocr response: %w", err)
	}

	var sb strings.Builder
	for _, page := range ocr.Pages {
		sb.WriteString(page.Markdown)
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String()), nil
}
