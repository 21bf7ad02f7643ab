package discovery

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/config"
	"github.com/sells-group/enrich-cli/internal/model"
)

// RegistryStrategy looks a company up in the OpenCorporates registry and
// uses the registered homepage as the website when present.
type RegistryStrategy struct {
	http    *http.Client
	baseURL string
}

// NewRegistryStrategy creates a business-registry discovery strategy.
func NewRegistryStrategy(cfg config.RegistryConfig) *RegistryStrategy {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RegistryStrategy{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}
}

func (s *RegistryStrategy) Name() string { return "registry" }

type registryResponse struct {
	Results struct {
		Companies []struct {
			Company struct {
				Name        string `json:"name"`
				HomepageURL string `json:"homepage_url"`
				Identifiers []struct {
					URL string `json:"url"`
				} `json:"identifiers"`
			} `json:"company"`
		} `json:"companies"`
	} `json:"results"`
}

// Attempt queries the registry's company search endpoint. The first hit
// carrying a homepage URL wins; social URLs among identifier links are kept.
func (s *RegistryStrategy) Attempt(ctx context.Context, in Input) (model.DiscoveryResult, error) {
	result := model.DiscoveryResult{Source: model.SourceRegistry, Socials: model.Socials{}}

	q := url.Values{}
	q.Set("q", in.Name)
	searchURL := s.baseURL + "/v0.4/companies/search?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return result, eris.Wrap(err, "discovery: registry request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return result, eris.Wrap(err, "discovery: registry fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return result, eris.Errorf("discovery: registry status %d", resp.StatusCode)
	}

	var parsed registryResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return result, eris.Wrap(err, "discovery: registry decode")
	}

	for _, entry := range parsed.Results.Companies {
		c := entry.Company
		if c.HomepageURL != "" && result.Website == "" {
			result.Website = c.HomepageURL
		}
		for _, ident := range c.Identifiers {
			if platform := platformForURL(ident.URL); platform != "" {
				if _, taken := result.Socials[platform]; !taken {
					result.Socials[platform] = ident.URL
				}
			}
		}
		if result.Website != "" {
			break
		}
	}

	zap.L().Debug("discovery: registry lookup done",
		zap.String("company", in.Name),
		zap.String("website", result.Website),
	)
	return result, nil
}
