package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

type indexCall struct {
	op       string
	index    string
	objectID string
	object   map[string]interface{}
}

type fakeIndexer struct {
	calls []indexCall
	err   error
}

func (f *fakeIndexer) SavePost(ctx context.Context, indexName string, object map[string]interface{}) error {
	id, _ := object["objectID"].(string)
	f.calls = append(f.calls, indexCall{op: "save", index: indexName, objectID: id, object: object})
	return f.err
}

func (f *fakeIndexer) DeletePost(ctx context.Context, indexName string, objectID string) error {
	f.calls = append(f.calls, indexCall{op: "delete", index: indexName, objectID: objectID})
	return f.err
}

func record(eventName, image string) string {
	return `{
		"eventID": "1",
		"eventName": "` + eventName + `",
		"eventSource": "aws:dynamodb",
		"dynamodb": {
			"Keys": {"pk": {"S": "p1"}, "sk": {"S": "posts"}}` + image + `
		}
	}`
}

func postImage(status string) string {
	return `,
			"NewImage": {
				"pk": {"S": "p1"},
				"sk": {"S": "posts"},
				"object": {"M": {
					"title": {"S": "Cats"},
					"content": {"S": "All about cats"},
					"permalink": {"S": "https://example.com/cats"},
					"post_type": {"S": "post"},
					"status": {"S": "` + status + `"},
					"date": {"S": "2024-03-01T09:00:00Z"}
				}}
			}`
}

func decodeEvent(t *testing.T, records ...string) events.DynamoDBEvent {
	t.Helper()
	body := `{"Records": [`
	for i, r := range records {
		if i > 0 {
			body += ","
		}
		body += r
	}
	body += `]}`

	var e events.DynamoDBEvent
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		t.Fatalf("Failed to decode event: %v", err)
	}
	return e
}

func TestHandleDynamoDBEvent(t *testing.T) {
	tests := []struct {
		name   string
		record string
		want   []indexCall
	}{
		{
			name:   "insert published post",
			record: record("INSERT", postImage("published")),
			want:   []indexCall{{op: "save", index: "posts", objectID: "p1"}},
		},
		{
			name:   "modify published post",
			record: record("MODIFY", postImage("published")),
			want:   []indexCall{{op: "save", index: "posts", objectID: "p1"}},
		},
		{
			name:   "unpublished post is removed",
			record: record("MODIFY", postImage("draft")),
			want:   []indexCall{{op: "delete", index: "posts", objectID: "p1"}},
		},
		{
			name:   "remove",
			record: record("REMOVE", ""),
			want:   []indexCall{{op: "delete", index: "posts", objectID: "p1"}},
		},
		{
			name:   "insert without image is skipped",
			record: record("INSERT", ""),
		},
		{
			name:   "unknown event is ignored",
			record: record("TRUNCATE", postImage("published")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			indexer := &fakeIndexer{}
			h := NewHandler(indexer)

			if err := h.HandleDynamoDBEvent(context.Background(), decodeEvent(t, tt.record)); err != nil {
				t.Fatalf("HandleDynamoDBEvent failed: %v", err)
			}

			if len(indexer.calls) != len(tt.want) {
				t.Fatalf("Expected %d index calls, got %d: %+v", len(tt.want), len(indexer.calls), indexer.calls)
			}
			for i, want := range tt.want {
				got := indexer.calls[i]
				if got.op != want.op || got.index != want.index || got.objectID != want.objectID {
					t.Errorf("Call %d: expected %s %s/%s, got %s %s/%s", i, want.op, want.index, want.objectID, got.op, got.index, got.objectID)
				}
			}
		})
	}
}

func TestHandleDynamoDBEventObject(t *testing.T) {
	indexer := &fakeIndexer{}
	h := NewHandler(indexer)

	if err := h.HandleDynamoDBEvent(context.Background(), decodeEvent(t, record("INSERT", postImage("published")))); err != nil {
		t.Fatalf("HandleDynamoDBEvent failed: %v", err)
	}

	object := indexer.calls[0].object
	expected := map[string]interface{}{
		"title":     "Cats",
		"content":   "All about cats",
		"permalink": "https://example.com/cats",
		"post_type": "post",
		"status":    "published",
		"date":      "2024-03-01T09:00:00Z",
	}
	for k, v := range expected {
		if object[k] != v {
			t.Errorf("Expected %s=%v, got %v", k, v, object[k])
		}
	}
	if object["date_timestamp"] != int64(1709283600) {
		t.Errorf("Expected date_timestamp 1709283600, got %v", object["date_timestamp"])
	}
}

func TestHandleDynamoDBEventStopsOnError(t *testing.T) {
	indexer := &fakeIndexer{err: errors.New("index unavailable")}
	h := NewHandler(indexer)

	e := decodeEvent(t, record("INSERT", postImage("published")), record("REMOVE", ""))
	if err := h.HandleDynamoDBEvent(context.Background(), e); err == nil {
		t.Fatal("Expected error, got nil")
	}
	if len(indexer.calls) != 1 {
		t.Errorf("Expected processing to stop after the first failure, got %d calls", len(indexer.calls))
	}
}
