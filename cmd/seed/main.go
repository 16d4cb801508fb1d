package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/letmevibethatforyou/postsearch"
	"github.com/letmevibethatforyou/postsearch/internal/ddb"
	"github.com/segmentio/ksuid"
	"github.com/urfave/cli/v2"
)

var (
	subjects = []string{"cats", "dogs", "gardening", "coffee", "bicycles", "sourdough", "birdwatching", "chess"}
	angles   = []string{"A beginner's guide to", "Ten things nobody tells you about", "Why I switched to", "The history of", "Field notes on", "Getting started with"}
	fillers  = []string{
		"This post collects what we learned over the past season.",
		"Most of it came from trial and error and a few patient friends.",
		"Readers asked for a longer write-up, so here it is.",
		"There are photos at the end for the impatient.",
		"Some of the advice contradicts what you will find elsewhere.",
		"Corrections are welcome in the comments.",
	}
	statuses  = []string{postsearch.StatusPublished, postsearch.StatusPublished, postsearch.StatusPublished, "draft"}
	postTypes = []string{postsearch.DefaultPostType, postsearch.DefaultPostType, "page"}
)

func generateRandomPost(baseURL string, now time.Time) postsearch.Post {
	subject := subjects[rand.IntN(len(subjects))]
	title := angles[rand.IntN(len(angles))] + " " + subject

	sentences := make([]string, 0, 8)
	sentences = append(sentences, "Everything about "+subject+".")
	for i := 0; i < 3+rand.IntN(5); i++ {
		sentences = append(sentences, fillers[rand.IntN(len(fillers))])
	}

	id := ksuid.New().String()
	return postsearch.Post{
		ID:        id,
		Title:     title,
		Content:   "<p>" + strings.Join(sentences, " ") + "</p>",
		Permalink: strings.TrimRight(baseURL, "/") + "/" + slugify(title),
		PostType:  postTypes[rand.IntN(len(postTypes))],
		Status:    statuses[rand.IntN(len(statuses))],
		Date:      now.Add(-time.Duration(rand.IntN(365*24)) * time.Hour).Truncate(time.Second),
	}
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func insertPost(ctx context.Context, client *dynamodb.Client, tableName, indexName string, post postsearch.Post) error {
	item, err := ddb.MarshalPostRecord(ddb.NewPostRecord(indexName, post))
	if err != nil {
		return err
	}

	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put item in DynamoDB: %w", err)
	}

	slog.InfoContext(ctx, "Successfully inserted post",
		"id", post.ID,
		"title", post.Title,
		"post_type", post.PostType,
		"status", post.Status,
	)

	return nil
}

func writeFile(path string, posts []postsearch.Post) error {
	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal posts: %w", err)
	}
	if path == "-" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func runAction(c *cli.Context) error {
	ctx := c.Context
	tableName := c.String("table-name")
	indexName := c.String("index")
	out := c.String("out")
	count := c.Int("count")

	if tableName == "" && out == "" {
		return fmt.Errorf("either --table-name or --out is required")
	}

	slog.InfoContext(ctx, "Starting post generator",
		"table", tableName,
		"index", indexName,
		"out", out,
		"count", count,
	)

	now := time.Now().UTC()
	posts := make([]postsearch.Post, 0, count)
	for i := 0; i < count; i++ {
		posts = append(posts, generateRandomPost(c.String("base-url"), now))
	}

	if out != "" {
		if err := writeFile(out, posts); err != nil {
			return fmt.Errorf("failed to write posts: %w", err)
		}
	}

	if tableName != "" {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := dynamodb.NewFromConfig(cfg)

		for i, post := range posts {
			if err := insertPost(ctx, client, tableName, indexName, post); err != nil {
				return fmt.Errorf("failed to insert post %d: %w", i+1, err)
			}
		}
	}

	slog.InfoContext(ctx, "Successfully generated all posts", "count", count)
	return nil
}

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Generate sample posts into DynamoDB or a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "table-name",
				Aliases: []string{"t"},
				Usage:   "DynamoDB table name",
				EnvVars: []string{"TABLE_NAME"},
			},
			&cli.StringFlag{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Search index the posts belong to (the record sort key)",
				EnvVars: []string{"ALGOLIA_INDEX"},
				Value:   "posts",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write the posts as a JSON array to this file; - for stdout",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Site URL permalinks are built from",
				Value: "https://example.com",
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"c"},
				Usage:   "Number of posts to generate",
				Value:   1,
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}
