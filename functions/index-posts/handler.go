package main

import (
	"context"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/letmevibethatforyou/postsearch"
	"github.com/letmevibethatforyou/postsearch/algolia"
	"github.com/letmevibethatforyou/postsearch/internal/ddb"
)

// Indexer writes posts to a search index. *algolia.Client satisfies it.
type Indexer interface {
	SavePost(ctx context.Context, indexName string, object map[string]interface{}) error
	DeletePost(ctx context.Context, indexName string, objectID string) error
}

type Handler struct {
	indexer Indexer
}

func NewHandler(indexer Indexer) *Handler {
	return &Handler{indexer: indexer}
}

// HandleDynamoDBEvent mirrors the posts table into the search index. Only
// published posts stay searchable: any other status removes the post.
func (h *Handler) HandleDynamoDBEvent(ctx context.Context, e events.DynamoDBEvent) error {
	slog.InfoContext(ctx, "Processing DynamoDB stream records", "record_count", len(e.Records))

	for _, record := range e.Records {
		if err := h.processRecord(ctx, record); err != nil {
			slog.ErrorContext(ctx, "Error processing record", "error", err, "event_id", record.EventID)
			return err
		}
	}

	return nil
}

func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	switch ddb.OperationType(record.EventName) {
	case ddb.OperationInsert, ddb.OperationModify:
		if record.Change.NewImage == nil {
			slog.WarnContext(ctx, "No new image for insert/modify operation, skipping record")
			return nil
		}

		parsed, err := ddb.UnmarshalPostRecord(record.Change.NewImage)
		if err != nil {
			slog.WarnContext(ctx, "Failed to unmarshal record, skipping", "error", err)
			return nil
		}
		if parsed.ID == "" || parsed.IndexName == "" {
			slog.WarnContext(ctx, "Missing ID (pk) or IndexName (sk) in record, skipping record")
			return nil
		}

		post := parsed.Post()
		if post.Status != postsearch.StatusPublished {
			return h.handleDelete(ctx, parsed.IndexName, parsed.ID)
		}
		return h.handleUpsert(ctx, parsed.IndexName, post)

	case ddb.OperationRemove:
		parsed, err := ddb.UnmarshalPostRecord(record.Change.Keys)
		if err != nil {
			slog.WarnContext(ctx, "Failed to unmarshal keys for delete operation, skipping", "error", err)
			return nil
		}
		if parsed.ID == "" || parsed.IndexName == "" {
			slog.WarnContext(ctx, "Missing ID or IndexName in delete record, skipping record")
			return nil
		}

		return h.handleDelete(ctx, parsed.IndexName, parsed.ID)

	default:
		slog.InfoContext(ctx, "Ignoring event type", "event_type", record.EventName)
		return nil
	}
}

func (h *Handler) handleUpsert(ctx context.Context, indexName string, post postsearch.Post) error {
	slog.InfoContext(ctx, "Saving post to Algolia", "object_id", post.ID, "index", indexName)
	return h.indexer.SavePost(ctx, indexName, algolia.ToObject(post))
}

func (h *Handler) handleDelete(ctx context.Context, indexName, objectID string) error {
	slog.InfoContext(ctx, "Deleting post from Algolia", "object_id", objectID, "index", indexName)
	return h.indexer.DeletePost(ctx, indexName, objectID)
}
