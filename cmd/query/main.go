package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/postsearch"
	"github.com/letmevibethatforyou/postsearch/internal/backend"
	"github.com/letmevibethatforyou/postsearch/widget"
	"github.com/urfave/cli/v2"
)

const (
	defaultLimit   = 10
	defaultTimeout = 5 * time.Second
)

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	app := &cli.App{
		Name:  "query",
		Usage: "Query a post index directly or through a running search endpoint",
		Commands: []*cli.Command{
			{
				Name:  "index",
				Usage: "Search a backend directly",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "backend",
						Aliases: []string{"b"},
						Usage:   "Search backend: memory or algolia",
						EnvVars: []string{"POSTSEARCH_BACKEND"},
						Value:   backend.Algolia,
					},
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "JSON file of posts for the memory backend",
						EnvVars: []string{"POSTSEARCH_DATA"},
					},
					&cli.StringFlag{
						Name:    "index",
						Aliases: []string{"i"},
						Usage:   "Algolia index name",
						EnvVars: []string{"ALGOLIA_INDEX"},
					},
					&cli.StringFlag{
						Name:    "algolia-secret-arn",
						Usage:   "ARN of AWS Secrets Manager secret containing Algolia credentials",
						EnvVars: []string{"ALGOLIA_SECRET_ARN"},
					},
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Query string to search for; positional arg is a fallback",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"l"},
						Usage:   "Maximum number of results to return",
						Value:   defaultLimit,
					},
					&cli.IntFlag{
						Name:    "offset",
						Aliases: []string{"o"},
						Usage:   "Number of results to skip before returning hits",
						Value:   0,
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Only return posts of this type",
					},
					&cli.BoolFlag{
						Name:  "published",
						Usage: "Only return published posts",
						Value: true,
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Timeout for the search request",
						Value: defaultTimeout,
					},
					&cli.StringSliceFlag{
						Name:  "filter",
						Usage: "Filter in field=value format; repeatable",
					},
				},
				Action: indexAction,
			},
			{
				Name:      "widget",
				Usage:     "Type a term into a search widget bootstrapped from a running server",
				ArgsUsage: "TERM",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "server",
						Aliases: []string{"s"},
						Usage:   "Base URL of the search server",
						EnvVars: []string{"POSTSEARCH_SERVER"},
						Value:   "http://localhost:8080",
					},
					&cli.IntFlag{
						Name:  "posts-per-page",
						Usage: "Widget page size; the server default when unset",
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Widget post type; the server default when unset",
					},
					&cli.DurationFlag{
						Name:  "keystroke",
						Usage: "Delay between simulated keystrokes",
						Value: 100 * time.Millisecond,
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Timeout for the whole session",
						Value: 30 * time.Second,
					},
				},
				Action: widgetAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func indexAction(c *cli.Context) error {
	ctx := c.Context

	query := strings.TrimSpace(c.String("query"))
	if query == "" && c.NArg() > 0 {
		query = strings.TrimSpace(c.Args().First())
	}

	limit := c.Int("limit")
	if limit <= 0 {
		slog.WarnContext(ctx, "limit must be positive; falling back to default", "limit", limit, "default", defaultLimit)
		limit = defaultLimit
	}

	offset := c.Int("offset")
	if offset < 0 {
		slog.WarnContext(ctx, "offset cannot be negative; resetting to 0", "offset", offset)
		offset = 0
	}

	timeout := c.Duration("timeout")
	if timeout <= 0 {
		slog.WarnContext(ctx, "timeout must be positive; using default", "timeout", timeout, "default", defaultTimeout)
		timeout = defaultTimeout
	}

	filterOptions, err := buildFilterOptions(c.StringSlice("filter"))
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}

	searcher, err := backend.Open(ctx, backend.Options{
		Kind:             c.String("backend"),
		DataFile:         c.String("data"),
		AlgoliaIndex:     strings.TrimSpace(c.String("index")),
		AlgoliaSecretARN: strings.TrimSpace(c.String("algolia-secret-arn")),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := []postsearch.SearchOption{
		postsearch.WithLimit(limit),
		postsearch.WithOffset(offset),
	}
	if t := strings.TrimSpace(c.String("type")); t != "" {
		opts = append(opts, postsearch.OfType(t))
	}
	if c.Bool("published") {
		opts = append(opts, postsearch.WithStatus(postsearch.StatusPublished))
	}
	opts = append(opts, filterOptions...)

	slog.InfoContext(ctx, "executing query",
		"backend", c.String("backend"),
		"query", query,
		"limit", limit,
		"offset", offset,
		"filter_count", len(filterOptions),
		"timeout", timeout,
	)

	results, err := searcher.Search(ctx, query, opts...)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if err := printResults(results); err != nil {
		return fmt.Errorf("failed to serialize results: %w", err)
	}

	return nil
}

func buildFilterOptions(raw []string) ([]postsearch.SearchOption, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	options := make([]postsearch.SearchOption, 0, len(raw))
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, fmt.Errorf("filter cannot be empty")
		}

		field, value, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("filter must be in field=value format: %q", item)
		}

		field = strings.TrimSpace(field)
		value = strings.TrimSpace(value)
		if field == "" || value == "" {
			return nil, fmt.Errorf("filter field and value must be non-empty: %q", item)
		}

		options = append(options, postsearch.Eq(field, value))
	}

	return options, nil
}

func printResults(res *postsearch.Results) error {
	if res == nil {
		fmt.Println("{}")
		return nil
	}

	payload := struct {
		Total      int64               `json:"total"`
		Took       int64               `json:"took_ms"`
		Query      string              `json:"query"`
		NextOffset *int                `json:"next_offset,omitempty"`
		Items      []postsearch.Result `json:"items"`
	}{
		Total:      res.Total,
		Took:       res.Took,
		Query:      res.Query,
		NextOffset: res.NextOffset,
		Items:      res.Items,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	fmt.Println(string(data))
	return nil
}

func widgetAction(c *cli.Context) error {
	term := strings.Join(c.Args().Slice(), " ")
	if term == "" {
		return errors.New("a search term is required")
	}

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	// The server binds the widget's nonce to the session cookie it issues.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return errors.Wrap(err, "failed to create cookie jar")
	}
	httpClient := &http.Client{Timeout: 10 * time.Second, Jar: jar}
	wc, err := fetchWidgetContext(ctx, httpClient, c.String("server"), c.Int("posts-per-page"), c.String("type"))
	if err != nil {
		return err
	}

	settled := make(chan widget.State, 1)
	w, err := widget.New(widget.ConfigFromContext(wc),
		widget.WithDoer(httpClient),
		widget.OnChange(func(s widget.State) {
			if s.HasSearched && !s.IsLoading && s.SearchTerm == term {
				select {
				case settled <- s:
				default:
				}
			}
		}),
	)
	if err != nil {
		return err
	}
	defer w.Close()

	runes := []rune(term)
	for i := range runes {
		w.OnInputChange(string(runes[:i+1]))
		if s := w.State(); s.ShowMinLengthMessage() {
			fmt.Fprintf(os.Stderr, "%q: please enter at least %d characters\n", s.SearchTerm, postsearch.MinTermLength)
		}
		if i < len(runes)-1 {
			time.Sleep(c.Duration("keystroke"))
		}
	}

	if len(runes) < postsearch.MinTermLength {
		return nil
	}

	select {
	case s := <-settled:
		render(s)
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "search did not settle")
	}
}

func fetchWidgetContext(ctx context.Context, client *http.Client, server string, postsPerPage int, postType string) (postsearch.WidgetContext, error) {
	var wc postsearch.WidgetContext

	q := url.Values{}
	if postsPerPage > 0 {
		q.Set(postsearch.FormPostsPerPage, fmt.Sprint(postsPerPage))
	}
	if postType != "" {
		q.Set(postsearch.FormPostType, postType)
	}
	u := strings.TrimRight(server, "/") + "/widget"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return wc, errors.Wrap(err, "failed to build widget request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return wc, errors.Wrap(err, "failed to fetch widget context")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return wc, errors.Newf("widget context request answered %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&wc); err != nil {
		return wc, errors.Wrap(err, "failed to decode widget context")
	}
	return wc, nil
}

func render(s widget.State) {
	switch {
	case s.ShowResultsHeader():
		fmt.Println(s.ResultsHeaderText())
		for _, p := range s.Results {
			fmt.Printf("\n%s\n  %s\n  %s\n", p.Title, p.Date, p.Permalink)
			if p.Excerpt != "" {
				fmt.Printf("  %s\n", p.Excerpt)
			}
		}
	case s.ShowNoResults():
		fmt.Printf("No posts found for %q\n", s.SearchTerm)
		if s.Err != nil {
			slog.Debug("search failed", "error", s.Err)
		}
	}
}
