package mongo

import (
	"context"
	"fmt"
	"time"

	"go-meet/utils/errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Client struct{ raw *mongo.Client }

func NewClient(ctx context.Context, uri string) (*Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is empty")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Client{raw: c}, nil
}

func (c *Client) Database(name string) *mongo.Database {
	return c.raw.Database(name)
}

func (c *Client) Ping(ctx context.Context) error {
	return storeErr("ping", c.raw.Ping(ctx, nil))
}

func (c *Client) Disconnect(ctx context.Context) error {
	return c.raw.Disconnect(ctx)
}

// storeErr folds driver failures into the store error taxonomy. A timed out
// write may still have been applied remotely; callers rely on idempotency.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", errors.ErrStoreUnavailable, op, err)
}
