package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/danielpatrickdp/softfloat-lab/internal/config"
	"github.com/danielpatrickdp/softfloat-lab/internal/softfloat"
)

// #region client-struct
// Client wraps the gRPC connection to the evaluation service.
type Client struct {
	conn    *grpc.ClientConn
	client  LabClient
	backoff func() backoff.BackOff
}

// #endregion client-struct

// #region constructor
// NewClient connects to the evaluation service at addr.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return NewClientWithConn(conn), nil
}

// NewClientWithConn wraps an existing connection; Close closes it.
func NewClientWithConn(conn *grpc.ClientConn) *Client {
	c := NewClientWithService(NewLabClient(conn))
	c.conn = conn
	return c
}

// NewClientWithService creates a Client with an injected service implementation.
// Used for testing without a real gRPC connection.
func NewClientWithService(svc LabClient) *Client {
	return &Client{client: svc, backoff: defaultBackoff}
}

func defaultBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second
	return backoff.WithMaxRetries(b, 4)
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region retry
// retry runs call until it succeeds, fails with anything but
// codes.Unavailable, or the backoff policy gives up. Decode errors carry
// no status code, so they are never retried.
func (c *Client) retry(ctx context.Context, call func() error) error {
	return backoff.Retry(func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		err := call()
		if err != nil && status.Code(err) != codes.Unavailable {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(c.backoff(), ctx))
}

// #endregion retry

// #region quantize
// Quantize rounds values into f on the server.
func (c *Client) Quantize(ctx context.Context, f softfloat.Format, values []float64) ([]float64, error) {
	req := QuantizeRequest{Format: f, Values: values}.Encode()

	var out []float64
	err := c.retry(ctx, func() error {
		resp, err := c.client.Quantize(ctx, req)
		if err != nil {
			return err
		}
		out, err = decodeQuantizeResponse(resp)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("quantize rpc: %w", err)
	}
	return out, nil
}

// #endregion quantize

// #region rank
// Rank runs a sweep on the server and returns its ranking.
func (c *Client) Rank(ctx context.Context, f config.File) (RankResult, error) {
	req, err := EncodeRankRequest(f)
	if err != nil {
		return RankResult{}, err
	}

	var out RankResult
	err = c.retry(ctx, func() error {
		resp, err := c.client.Rank(ctx, req)
		if err != nil {
			return err
		}
		out, err = decodeRankResponse(resp)
		return err
	})
	if err != nil {
		return RankResult{}, fmt.Errorf("rank rpc: %w", err)
	}
	return out, nil
}

// #endregion rank
