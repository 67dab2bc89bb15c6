package exposition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/u9n/instrumentor/ports/store"
)

type ClientOptions struct {
	// Store to read the namespace dump from. Required.
	Store store.Store
	// Namespace to expose. Required.
	Namespace string
	// Log defaults to slog.Default().
	Log *slog.Logger
}

// Client gathers a namespace from the remote store and renders it as
// exposition text. Concurrent Gather calls for the same namespace are
// deduplicated: they share one store read and receive the same rendering.
type Client struct {
	store     store.Store
	namespace string
	log       *slog.Logger
	group     singleflight.Group
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}
	if opts.Namespace == "" {
		return nil, errors.New("namespace is required")
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Client{
		store:     opts.Store,
		namespace: opts.Namespace,
		log:       opts.Log,
	}, nil
}

// Gather reads the full namespace dump, decodes it and renders the text
// exposition. Malformed keys are logged and skipped.
func (c *Client) Gather(ctx context.Context) (string, error) {
	v, err, _ := c.group.Do(c.namespace, func() (any, error) {
		dump, err := c.store.GetAll(ctx, c.namespace)
		if err != nil {
			return nil, fmt.Errorf("gather namespace %s: %w", c.namespace, err)
		}

		sets, skipped := Decode(dump)
		for _, key := range skipped {
			c.log.Warn("skipping malformed key",
				slog.String("namespace", c.namespace),
				slog.String("key", key),
			)
		}
		return Render(sets), nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
