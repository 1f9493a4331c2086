package source

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"github.com/c360studio/semproposal/proposal"
)

// Ingester fetches web pages and turns them into sources.
type Ingester struct {
	fetcher   *Fetcher
	converter *Converter
	logger    *slog.Logger
}

// NewIngester creates an ingester. A nil logger uses slog.Default.
func NewIngester(fetcher *Fetcher, converter *Converter, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{fetcher: fetcher, converter: converter, logger: logger}
}

// Ingest fetches pageURL and converts it to a customer website source.
// The page's Last-Modified header, when present, dates the source.
func (i *Ingester) Ingest(ctx context.Context, pageURL string, relevance float64) (*proposal.Source, error) {
	res, err := i.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if !isHTML(res.ContentType) {
		return nil, fmt.Errorf("unsupported content type %q for %s", res.ContentType, pageURL)
	}

	src, err := i.converter.FromHTML(pageURL, res.Body, relevance)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", pageURL, err)
	}
	if !res.LastModified.IsZero() {
		src.LastUpdated = res.LastModified
	}

	i.logger.Info("Ingested web source", "url", pageURL, "source_id", src.ID, "bytes", len(res.Body))
	return src, nil
}

// isHTML accepts HTML media types and a missing Content-Type.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml" || strings.HasSuffix(mediaType, "+html")
}
