package rpc

import (
	"context"

	"github.com/materials-commons/mcbun/pkg/api"
)

func (c *Client) ExtractAndRegister(ctx context.Context, req *api.ExtAndRegRequest) (*api.ExtAndRegResult, error) {
	return post[api.ExtAndRegResult](ctx, c, api.RouteStructFileExtAndReg, req)
}

func (c *Client) BundleCollection(ctx context.Context, req *api.BundleRequest) (*api.BundleResult, error) {
	return post[api.BundleResult](ctx, c, api.RouteStructFileBundle, req)
}

func (c *Client) PhyBundleCollection(ctx context.Context, req *api.PhyBundleRequest) (*api.PhyBundleResult, error) {
	return post[api.PhyBundleResult](ctx, c, api.RoutePhyBundle, req)
}
