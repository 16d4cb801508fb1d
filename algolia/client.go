// Package algolia provides a postsearch.Searcher backed by an Algolia index,
// together with a lazily initialised client used by the indexer.
package algolia

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Secrets holds the Algolia application credentials.
type Secrets struct {
	// AppID is the Algolia application ID.
	AppID string `json:"app_id"`
	// APIKey is an Algolia key allowed to search and, for the indexer, to write.
	APIKey string `json:"api_key"`
}

// FetchSecrets retrieves Algolia credentials.
type FetchSecrets func() (Secrets, error)

// StaticSecrets returns a FetchSecrets function that provides static credentials.
func StaticSecrets(appID, apiKey string) FetchSecrets {
	return func() (Secrets, error) {
		return Secrets{
			AppID:  appID,
			APIKey: apiKey,
		}, nil
	}
}

// EnvSecrets reads ALGOLIA_APP_ID and ALGOLIA_API_KEY.
func EnvSecrets() FetchSecrets {
	return func() (Secrets, error) {
		appID := os.Getenv("ALGOLIA_APP_ID")
		if appID == "" {
			return Secrets{}, fmt.Errorf("ALGOLIA_APP_ID environment variable is not set")
		}

		apiKey := os.Getenv("ALGOLIA_API_KEY")
		if apiKey == "" {
			return Secrets{}, fmt.Errorf("ALGOLIA_API_KEY environment variable is not set")
		}

		return Secrets{
			AppID:  appID,
			APIKey: apiKey,
		}, nil
	}
}

// indexAPI is the subset of *search.Index the package uses.
type indexAPI interface {
	Search(query string, opts ...interface{}) (search.QueryRes, error)
	SaveObject(object interface{}, opts ...interface{}) (search.SaveObjectRes, error)
	DeleteObject(objectID string, opts ...interface{}) (search.DeleteTaskRes, error)
}

// Client resolves credentials on first use and caches the outcome, including a failure.
type Client struct {
	getIndex func(name string) (indexAPI, error)
	tracer   trace.Tracer
}

func NewClient(fetchSecrets FetchSecrets) *Client {
	getClient := sync.OnceValues(func() (*search.Client, error) {
		secrets, err := fetchSecrets()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch secrets: %w", err)
		}

		if secrets.AppID == "" {
			return nil, fmt.Errorf("AppID is empty")
		}

		if secrets.APIKey == "" {
			return nil, fmt.Errorf("APIKey is empty")
		}

		return search.NewClient(secrets.AppID, secrets.APIKey), nil
	})

	return &Client{
		getIndex: func(name string) (indexAPI, error) {
			client, err := getClient()
			if err != nil {
				return nil, err
			}
			return client.InitIndex(name), nil
		},
		tracer: otel.Tracer("postsearch-algolia"),
	}
}

// SavePost upserts a post into the index.
func (c *Client) SavePost(ctx context.Context, indexName string, object map[string]interface{}) error {
	_, span := c.tracer.Start(ctx, "algolia.save_object",
		trace.WithAttributes(
			attribute.String("algolia.index_name", indexName),
		),
	)
	defer span.End()

	if id, ok := object[objectIDKey].(string); ok {
		span.SetAttributes(attribute.String("algolia.object_id", id))
	}

	index, err := c.getIndex(indexName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get Algolia client")
		return err
	}

	if _, err := index.SaveObject(object); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, fmt.Sprintf("failed to save object to index %s", indexName))
		return fmt.Errorf("failed to save object to Algolia index %s: %w", indexName, err)
	}

	span.SetStatus(codes.Ok, "object saved successfully")
	return nil
}

// DeletePost removes a post from the index.
func (c *Client) DeletePost(ctx context.Context, indexName string, objectID string) error {
	_, span := c.tracer.Start(ctx, "algolia.delete_object",
		trace.WithAttributes(
			attribute.String("algolia.index_name", indexName),
			attribute.String("algolia.object_id", objectID),
		),
	)
	defer span.End()

	index, err := c.getIndex(indexName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get Algolia client")
		return err
	}

	if _, err := index.DeleteObject(objectID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, fmt.Sprintf("failed to delete object from index %s", indexName))
		return fmt.Errorf("failed to delete object from Algolia index %s: %w", indexName, err)
	}

	span.SetStatus(codes.Ok, "object deleted successfully")
	return nil
}
