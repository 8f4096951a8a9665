package dlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"aegis/internal/config"
	"aegis/internal/constants"
)

// Deidentifier redacts PII from a single text payload.
type Deidentifier interface {
	Deidentify(ctx context.Context, text string) (string, error)
}

// Client calls an external de-identification HTTP service. One instance is
// constructed at startup and shared by all workers.
type Client struct {
	httpClient *http.Client
	endpoint   string
	project    string
	template   string
	infoTypes  []string
}

func NewClient(cfg config.RedactionConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultRedactionTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		project:    cfg.Project,
		template:   cfg.Template,
		infoTypes:  cfg.InfoTypes,
	}
}

type deidentifyRequest struct {
	Parent         string          `json:"parent"`
	Item           contentItem     `json:"item"`
	TemplateName   string          `json:"deidentifyTemplateName,omitempty"`
	InspectConfig  *inspectConfig  `json:"inspectConfig,omitempty"`
	DeidentifyConf *deidentifyConf `json:"deidentifyConfig,omitempty"`
}

type contentItem struct {
	Value string `json:"value"`
}

type inspectConfig struct {
	InfoTypes []infoType `json:"infoTypes"`
}

type infoType struct {
	Name string `json:"name"`
}

type deidentifyConf struct {
	InfoTypeTransformations infoTypeTransformations `json:"infoTypeTransformations"`
}

type infoTypeTransformations struct {
	Transformations []transformation `json:"transformations"`
}

type transformation struct {
	PrimitiveTransformation primitiveTransformation `json:"primitiveTransformation"`
}

type primitiveTransformation struct {
	ReplaceWithInfoTypeConfig struct{} `json:"replaceWithInfoTypeConfig"`
}

type deidentifyResponse struct {
	Item contentItem `json:"item"`
}

// Deidentify submits one text item and returns the redacted version. A named
// template takes precedence over the inline info-type configuration.
func (c *Client) Deidentify(ctx context.Context, text string) (string, error) {
	reqBody := deidentifyRequest{
		Parent: fmt.Sprintf("projects/%s", c.project),
		Item:   contentItem{Value: text},
	}

	if c.template != "" {
		reqBody.TemplateName = c.template
	} else {
		ic := &inspectConfig{}
		for _, name := range c.infoTypes {
			ic.InfoTypes = append(ic.InfoTypes, infoType{Name: name})
		}
		reqBody.InspectConfig = ic
		reqBody.DeidentifyConf = &deidentifyConf{
			InfoTypeTransformations: infoTypeTransformations{
				Transformations: []transformation{{}},
			},
		}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal deidentify request: %w", err)
	}

	url := fmt.Sprintf("%s/v2/projects/%s/content:deidentify", c.endpoint, c.project)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("deidentify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return "", fmt.Errorf("deidentify service returned status: %d", resp.StatusCode)
	}

	var result deidentifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode deidentify response: %w", err)
	}

	return result.Item.Value, nil
}
