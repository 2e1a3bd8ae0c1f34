package rpc

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/materials-commons/mcbun/pkg/api"
	"github.com/materials-commons/mcbun/pkg/rerr"
)

// Client calls the mcbund HTTP API. Servers use it to forward requests to
// peers and the CLIs use it to reach their server.
type Client struct {
	r          *resty.Client
	connectErr rerr.Status
}

type Option func(c *Client)

func WithAuthToken(token string) Option {
	return func(c *Client) {
		if token != "" {
			c.r.SetAuthToken(token)
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.r.SetTimeout(timeout)
	}
}

// WithConnectErrStatus sets the status reported when the server cannot be
// reached. Servers report SYS_SVR_TO_SVR_CONNECT_FAILED, the CLIs
// USER_SOCK_CONNECT_ERR.
func WithConnectErrStatus(code rerr.Status) Option {
	return func(c *Client) {
		c.connectErr = code
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		r: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json"),
		connectErr: rerr.SysSvrToSvrConnectFailed,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func post[Resp any](ctx context.Context, c *Client, route string, body interface{}) (*Resp, error) {
	var (
		result  Resp
		errResp api.ErrorResponse
	)

	resp, err := c.r.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&errResp).
		Post(route)

	if err != nil {
		return nil, rerr.New(c.connectErr, "%s: %s", route, err)
	}

	if resp.IsError() {
		return nil, toErrorFromResponse(resp, &errResp)
	}

	return &result, nil
}

// toErrorFromResponse rebuilds the peer's status unchanged.
func toErrorFromResponse(resp *resty.Response, errResp *api.ErrorResponse) error {
	switch {
	case resp.StatusCode() == http.StatusUnauthorized:
		return rerr.New(rerr.CatInvalidAuthentication, "%s", errResp.Message)
	case errResp.Status < 0:
		return &rerr.Error{Code: rerr.Status(errResp.Status), Msg: errResp.Message}
	default:
		return rerr.New(rerr.SysInvalidInputParam, "HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
	}
}
