package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/diagram-search-api/internal/models"
)

const serpAPIProvider = "serpapi"

type serpAPIClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

type serpAPIResponse struct {
	ImagesResults []serpAPIImage `json:"images_results"`
	Error         string         `json:"error,omitempty"`
}

type serpAPIImage struct {
	Title     string `json:"title"`
	Original  string `json:"original"`
	Thumbnail string `json:"thumbnail"`
	Source    string `json:"source"`
}

// NewSerpAPIClient builds a Google Images client backed by SerpAPI.
func NewSerpAPIClient(endpoint, apiKey string, timeout time.Duration, logger *zap.Logger) ImageSearchClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &serpAPIClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *serpAPIClient) SearchImages(ctx context.Context, query string, limit int) ([]models.ImageResult, error) {
	if c.apiKey == "" {
		return nil, newNotConfiguredError(serpAPIProvider, "api key not configured")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("tbm", "isch")
	params.Set("api_key", c.apiKey)

	endpoint := c.endpoint
	if strings.Contains(endpoint, "?") {
		endpoint += "&" + params.Encode()
	} else {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, newTransportError(serpAPIProvider, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newTransportError(serpAPIProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, newTransportError(serpAPIProvider, err)
	}

	c.logger.Debug("image search completed",
		zap.String("query", query),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	var payload serpAPIResponse
	decodeErr := json.Unmarshal(body, &payload)

	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError(serpAPIProvider, resp.StatusCode, payload.Error)
	}
	if decodeErr != nil {
		return nil, newDecodeError(serpAPIProvider, decodeErr)
	}
	// SerpAPI reports an empty result set as an error string with a 200.
	if payload.Error != "" && len(payload.ImagesResults) == 0 {
		if strings.Contains(strings.ToLower(payload.Error), "hasn't returned any results") {
			return nil, nil
		}
		return nil, newProviderError(serpAPIProvider, payload.Error)
	}

	results := make([]models.ImageResult, 0, len(payload.ImagesResults))
	for _, img := range payload.ImagesResults {
		if img.Original == "" {
			continue
		}
		results = append(results, models.ImageResult{
			Title:     img.Title,
			Original:  img.Original,
			Thumbnail: img.Thumbnail,
			Source:    img.Source,
		})
		if limit > 0 && len(results) == limit {
			break
		}
	}
	return results, nil
}
