// Package catalog fetches a user's media lists from the AniList GraphQL API.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"listkeeper/internal/models"
	"listkeeper/internal/providers"
	"listkeeper/internal/structures"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const maxResponseSize = 32 << 20

type ClientInterface interface {
	Fetch(ctx context.Context, identity string) (*models.RawListData, error)
}

type graphQLRequest struct {
	Query     string            `json:"query"`
	Variables map[string]string `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type graphQLResponse struct {
	Data struct {
		MediaListCollection *models.MediaListCollection `json:"MediaListCollection"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type Client struct {
	url     string
	http    *http.Client
	limiter *rate.Limiter
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
}

func NewClient(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) ClientInterface {
	limit := rate.Inf
	if conf.Catalog.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(conf.Catalog.RequestsPerMinute))
	}
	return &Client{
		url:     conf.Catalog.Url,
		http:    &http.Client{Timeout: conf.Catalog.Timeout},
		limiter: rate.NewLimiter(limit, 2),
		logger:  logger,
		metrics: metrics,
	}
}

// Fetch loads both list categories concurrently. Either failure fails the whole fetch.
func (c *Client) Fetch(ctx context.Context, identity string) (*models.RawListData, error) {
	var raw models.RawListData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		col, err := c.fetchCollection(gctx, animeQuery, identity)
		raw.Anime = col
		return err
	})
	g.Go(func() error {
		col, err := c.fetchCollection(gctx, mangaQuery, identity)
		raw.Manga = col
		return err
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			c.metrics.IncCatalogRequests("not_found")
		} else {
			c.metrics.IncCatalogRequests("failure")
		}
		c.logger.Warnf(providers.TypeBackup, "Catalog fetch for %s failed: %s", identity, err)
		return nil, err
	}

	c.metrics.IncCatalogRequests("success")
	c.logger.Debugf(providers.TypeBackup, "Fetched %d anime and %d manga entries for %s",
		len(raw.Anime.Flatten()), len(raw.Manga.Flatten()), identity)
	return &raw, nil
}

func (c *Client) fetchCollection(ctx context.Context, query, identity string) (*models.MediaListCollection, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Err: err}
	}

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: map[string]string{"username": identity}})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrIdentityNotFound
	}

	var gr graphQLResponse
	decodeErr := json.Unmarshal(data, &gr)
	if isNotFound(gr.Errors) {
		return nil, ErrIdentityNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	if decodeErr != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if len(gr.Errors) > 0 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: errors.New(gr.Errors[0].Message)}
	}
	if gr.Data.MediaListCollection == nil {
		return nil, ErrIdentityNotFound
	}
	return gr.Data.MediaListCollection, nil
}

func isNotFound(errs []graphQLError) bool {
	for _, e := range errs {
		if e.Status == http.StatusNotFound || strings.Contains(strings.ToLower(e.Message), "not found") {
			return true
		}
	}
	return false
}
