package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// ExtractedContractRow is the one pre-agreed shape the document-extraction
// service returns: awarded-contract fields pulled out of an unstructured PDF.
type ExtractedContractRow struct {
	ContractName       string  `json:"contract_name"`
	DevelopmentProject string  `json:"development_project"`
	Asset              string  `json:"asset"`
	Country            string  `json:"country"`
	Operator           string  `json:"operator"`
	Contractor         string  `json:"contractor"`
	Scope              string  `json:"scope"`
	AwardDate          string  `json:"award_date"` // YYYY-MM-DD
	ValueMUSD          float64 `json:"value_musd"`
}

// ContractExtractor is the document-extraction adapter boundary. The real
// implementation calls an external vision/text model; tests substitute a
// canned one.
type ContractExtractor interface {
	ExtractContractRows(ctx context.Context, document []byte, fileName string) ([]ExtractedContractRow, error)
}

// ExtractionClient talks to an OpenAI-compatible chat-completions endpoint
// and asks it to pull contract-award rows out of a PDF. The call is slow and
// costly; the pipeline treats its output as already-normalized input.
type ExtractionClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewExtractionClient() (*ExtractionClient, error) {
	apiKey := strings.TrimSpace(os.Getenv("EXTRACT_API_KEY"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	if apiKey == "" {
		return nil, fmt.Errorf("missing EXTRACT_API_KEY")
	}
	baseURL := strings.TrimSpace(os.Getenv("EXTRACT_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	model := strings.TrimSpace(os.Getenv("EXTRACT_MODEL"))
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &ExtractionClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

const extractionPrompt = `Extract every subsea contract award mentioned in the attached document.
Respond with JSON: {"contracts":[{"contract_name","development_project","asset","country","operator","contractor","scope","award_date","value_musd"}]}.
Use "Unknown" for a development_project you cannot determine, empty strings for other unknown fields, 0 for unknown value_musd, and YYYY-MM-DD award dates.`

// ExtractContractRows sends the document and parses the typed row array out
// of the model response. Transport and API errors are returned (fatal for the
// job); a syntactically bad model answer degrades to an empty row set.
func (c *ExtractionClient) ExtractContractRows(ctx context.Context, document []byte, fileName string) ([]ExtractedContractRow, error) {
	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]any{
			{"role": "system", "content": "You extract structured subsea-engineering contract data from commercial documents."},
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": extractionPrompt},
					{"type": "file", "file": map[string]any{
						"filename":  fileName,
						"file_data": "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(document),
					}},
				},
			},
		},
		"response_format": map[string]any{"type": "json_object"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal extraction request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction call: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read extraction response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction service status %d: %s", resp.StatusCode, truncate(string(respBody), 300))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("extraction response has no choices")
	}

	var parsed struct {
		Contracts []ExtractedContractRow `json:"contracts"`
	}
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &parsed); err != nil {
		// The model answered but not in the agreed shape. Treat as a soft
		// failure: no rows, not a dead job.
		log.Printf("[INGEST] extraction returned unparseable content for %s: %v", fileName, err)
		return []ExtractedContractRow{}, nil
	}
	return parsed.Contracts, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
