package algolia

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/opt"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/postsearch"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Searcher implements the postsearch.Searcher interface using Algolia.
type Searcher struct {
	client    *Client
	indexName string
}

// NewSearcher creates a new Algolia searcher for the specified index.
func NewSearcher(client *Client, indexName string) *Searcher {
	return &Searcher{
		client:    client,
		indexName: indexName,
	}
}

// Search implements the postsearch.Searcher interface using Algolia search.
// Algolia ranks hits itself; sort options other than relevance need replica
// indices and are ignored.
func (s *Searcher) Search(ctx context.Context, query string, opts ...postsearch.SearchOption) (*postsearch.Results, error) {
	startTime := time.Now()

	ctx, span := s.client.tracer.Start(ctx, "algolia.search",
		trace.WithAttributes(
			attribute.String("algolia.index_name", s.indexName),
		),
	)
	defer span.End()

	select {
	case <-ctx.Done():
		return nil, postsearch.ErrCanceled
	default:
	}

	cfg := postsearch.NewSearchConfig(opts...)
	if cfg.Limit < 0 || cfg.Offset < 0 {
		return nil, errors.Wrapf(postsearch.ErrInvalidOption, "limit %d offset %d", cfg.Limit, cfg.Offset)
	}
	if cfg.Limit == 0 {
		cfg.Limit = 10
	}

	params, err := buildSearchParams(cfg)
	if err != nil {
		return nil, err
	}

	index, err := s.client.getIndex(s.indexName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get Algolia client")
		return nil, errors.WithSecondaryError(
			postsearch.ErrBackendUnavailable,
			errors.Wrapf(err, "failed to get Algolia client"),
		)
	}

	params = append(params, ctx)
	res, err := index.Search(query, params...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, postsearch.ErrTimeout
		}
		if errors.Is(err, context.Canceled) {
			return nil, postsearch.ErrCanceled
		}
		return nil, errors.WithSecondaryError(
			postsearch.ErrBackendUnavailable,
			errors.Wrapf(err, "Algolia search failed"),
		)
	}

	results := &postsearch.Results{
		Items: make([]postsearch.Result, 0, len(res.Hits)),
		Total: int64(res.NbHits),
		Query: query,
	}
	for i, hit := range res.Hits {
		results.Items = append(results.Items, postsearch.Result{
			Post:  postFromHit(hit),
			Score: calculateScore(len(res.Hits), i),
		})
	}

	nextPage := res.Page + 1
	if nextPage < res.NbPages {
		nextOffset := nextPage * cfg.Limit
		results.NextOffset = &nextOffset
	}

	results.Took = time.Since(startTime).Milliseconds()
	span.SetAttributes(attribute.Int("algolia.nb_hits", res.NbHits))
	span.SetStatus(codes.Ok, "search completed")
	return results, nil
}

// buildSearchParams converts a SearchConfig to Algolia search parameters.
func buildSearchParams(cfg *postsearch.SearchConfig) ([]interface{}, error) {
	params := []interface{}{opt.HitsPerPage(cfg.Limit)}
	if cfg.Offset > 0 {
		params = append(params, opt.Page(cfg.Offset/cfg.Limit))
	}

	if len(cfg.Filters) > 0 {
		filters := make([]string, 0, len(cfg.Filters))
		for _, expr := range cfg.Filters {
			filter, err := convertExpressionToFilter(expr)
			if err != nil {
				return nil, err
			}
			if filter != "" {
				filters = append(filters, filter)
			}
		}
		if len(filters) > 0 {
			params = append(params, opt.Filters(strings.Join(filters, " AND ")))
		}
	}

	return params, nil
}

// calculateScore derives a score from hit position, as Algolia does not expose one.
func calculateScore(totalResults, position int) float64 {
	if totalResults == 0 {
		return 1.0
	}
	return float64(totalResults-position) / float64(totalResults)
}

func convertExpressionToFilter(expr postsearch.Expression) (string, error) {
	switch e := expr.(type) {
	case postsearch.AndExpr:
		return joinFilters(e.Exprs, " AND ")
	case postsearch.OrExpr:
		return joinFilters(e.Exprs, " OR ")
	case postsearch.NotExpr:
		if e.Inner == nil {
			return "", errors.Wrap(postsearch.ErrInvalidExpression, "NOT without operand")
		}
		inner, err := convertExpressionToFilter(e.Inner)
		if err != nil || inner == "" {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case postsearch.EqExpr:
		return fmt.Sprintf("%s:%s", escapeField(e.Field), escapeValue(e.Value)), nil
	case postsearch.NeExpr:
		return fmt.Sprintf("NOT %s:%s", escapeField(e.Field), escapeValue(e.Value)), nil
	case postsearch.ExistsExpr:
		return fmt.Sprintf("%s:*", escapeField(e.Field)), nil
	default:
		return "", errors.Wrapf(postsearch.ErrInvalidExpression, "unsupported expression %T", expr)
	}
}

func joinFilters(exprs []postsearch.Expression, sep string) (string, error) {
	filters := make([]string, 0, len(exprs))
	for _, e := range exprs {
		filter, err := convertExpressionToFilter(e)
		if err != nil {
			return "", err
		}
		if filter != "" {
			filters = append(filters, "("+filter+")")
		}
	}
	return strings.Join(filters, sep), nil
}

func escapeField(field string) string {
	if strings.ContainsAny(field, " :-()") {
		return fmt.Sprintf(`"%s"`, field)
	}
	return field
}

func escapeValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	case bool:
		return `"` + strconv.FormatBool(v) + `"`
	case time.Time:
		return `"` + v.UTC().Format(time.RFC3339) + `"`
	default:
		return fmt.Sprintf(`"%v"`, value)
	}
}
