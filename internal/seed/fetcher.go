package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"product-catalog-api/internal/model"
)

const maxSeedBytes = 10 << 20

// Fetcher downloads an initial product catalog, e.g. https://fakestoreapi.com/products/.
type Fetcher struct {
	url    string
	client *http.Client
}

func NewFetcher(url string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: timeout},
	}
}

func (f *Fetcher) Fetch(ctx context.Context) ([]model.Product, error) {
	if f.url == "" {
		return nil, fmt.Errorf("seed url is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build seed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch seed catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch seed catalog: unexpected status %d", resp.StatusCode)
	}

	var products []model.Product
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxSeedBytes)).Decode(&products); err != nil {
		return nil, fmt.Errorf("decode seed catalog: %w", err)
	}

	return products, nil
}

type catalogFile interface {
	IsEmpty() (bool, error)
	Write(value any) error
}

// EnsureCatalog writes a catalog into file when it is missing or blank. A failed
// fetch still leaves an empty array behind so the service can start.
func EnsureCatalog(ctx context.Context, file catalogFile, fetcher *Fetcher) (int, error) {
	empty, err := file.IsEmpty()
	if err != nil {
		return 0, err
	}
	if !empty {
		return 0, nil
	}

	products := []model.Product{}
	var fetchErr error
	if fetcher != nil && fetcher.url != "" {
		fetched, err := fetcher.Fetch(ctx)
		if err != nil {
			fetchErr = err
		} else if fetched != nil {
			products = fetched
		}
	}

	if err := file.Write(products); err != nil {
		return 0, err
	}

	return len(products), fetchErr
}
