// Package backend opens the document searcher a command is configured for.
package backend

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/postsearch"
	"github.com/letmevibethatforyou/postsearch/algolia"
	"github.com/letmevibethatforyou/postsearch/inmemory"
)

const (
	Memory  = "memory"
	Algolia = "algolia"
)

type Options struct {
	Kind string
	// DataFile is a JSON array of posts preloaded into the memory backend.
	DataFile         string
	AlgoliaIndex     string
	AlgoliaSecretARN string
}

// Open returns the searcher described by opts. The Algolia backend connects
// lazily, on its first search.
func Open(ctx context.Context, opts Options) (postsearch.Searcher, error) {
	switch opts.Kind {
	case Memory, "":
		return openMemory(ctx, opts.DataFile)
	case Algolia:
		return openAlgolia(ctx, opts)
	default:
		return nil, errors.Wrapf(postsearch.ErrInvalidOption, "unknown backend %q", opts.Kind)
	}
}

func openMemory(ctx context.Context, dataFile string) (postsearch.Searcher, error) {
	store := inmemory.New()
	if dataFile == "" {
		slog.WarnContext(ctx, "memory backend started without a data file; searches return nothing")
		return store, nil
	}

	f, err := os.Open(dataFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open data file")
	}
	defer f.Close()

	n, err := store.LoadJSON(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", dataFile)
	}
	slog.InfoContext(ctx, "loaded posts into memory backend", "count", n, "data_file", dataFile)
	return store, nil
}

func openAlgolia(ctx context.Context, opts Options) (postsearch.Searcher, error) {
	if opts.AlgoliaIndex == "" {
		return nil, errors.Wrap(postsearch.ErrInvalidOption, "algolia backend needs an index name")
	}

	var fetchSecrets algolia.FetchSecrets
	if opts.AlgoliaSecretARN != "" {
		slog.InfoContext(ctx, "using AWS Secrets Manager for Algolia credentials", "secret_arn", opts.AlgoliaSecretARN)
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load AWS config")
		}
		fetchSecrets = algolia.AWSSecretsFromARN(ctx, secretsmanager.NewFromConfig(cfg), opts.AlgoliaSecretARN)
	} else {
		fetchSecrets = algolia.EnvSecrets()
	}

	return algolia.NewSearcher(algolia.NewClient(fetchSecrets), opts.AlgoliaIndex), nil
}
