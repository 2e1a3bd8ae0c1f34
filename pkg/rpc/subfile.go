package rpc

import (
	"context"

	"github.com/materials-commons/mcbun/pkg/api"
	"github.com/materials-commons/mcbun/pkg/structfile"
)

func (c *Client) SubFileCreate(ctx context.Context, sf *structfile.SubFile) (int, error) {
	return c.fdCall(ctx, api.RouteSubFileCreate, sf)
}

func (c *Client) SubFileOpen(ctx context.Context, sf *structfile.SubFile) (int, error) {
	return c.fdCall(ctx, api.RouteSubFileOpen, sf)
}

func (c *Client) SubFileOpendir(ctx context.Context, sf *structfile.SubFile) (int, error) {
	return c.fdCall(ctx, api.RouteSubFileOpendir, sf)
}

func (c *Client) SubFileRead(ctx context.Context, req *structfile.FdRequest) ([]byte, error) {
	resp, err := post[api.ReadResponse](ctx, c, api.RouteSubFileRead, req)
	if err != nil {
		return nil, err
	}

	return resp.Data, nil
}

func (c *Client) SubFileWrite(ctx context.Context, req *structfile.FdRequest) (int, error) {
	resp, err := post[api.WriteResponse](ctx, c, api.RouteSubFileWrite, req)
	if err != nil {
		return 0, err
	}

	return resp.Written, nil
}

func (c *Client) SubFileClose(ctx context.Context, req *structfile.FdRequest) (int, error) {
	return c.statusCall(ctx, api.RouteSubFileClose, req)
}

func (c *Client) SubFileClosedir(ctx context.Context, req *structfile.FdRequest) (int, error) {
	return c.statusCall(ctx, api.RouteSubFileClosedir, req)
}

func (c *Client) SubFileUnlink(ctx context.Context, sf *structfile.SubFile) (int, error) {
	return c.statusCall(ctx, api.RouteSubFileUnlink, sf)
}

func (c *Client) SubFileMkdir(ctx context.Context, sf *structfile.SubFile) (int, error) {
	return c.statusCall(ctx, api.RouteSubFileMkdir, sf)
}

func (c *Client) SubFileRmdir(ctx context.Context, sf *structfile.SubFile) (int, error) {
	return c.statusCall(ctx, api.RouteSubFileRmdir, sf)
}

func (c *Client) SubFileTruncate(ctx context.Context, sf *structfile.SubFile) (int, error) {
	return c.statusCall(ctx, api.RouteSubFileTruncate, sf)
}

func (c *Client) SubFileRename(ctx context.Context, req *structfile.RenameRequest) (int, error) {
	return c.statusCall(ctx, api.RouteSubFileRename, req)
}

func (c *Client) SubFileStat(ctx context.Context, sf *structfile.SubFile) (*structfile.StatResult, error) {
	return post[structfile.StatResult](ctx, c, api.RouteSubFileStat, sf)
}

func (c *Client) SubFileFstat(ctx context.Context, req *structfile.FdRequest) (*structfile.StatResult, error) {
	return post[structfile.StatResult](ctx, c, api.RouteSubFileFstat, req)
}

func (c *Client) SubFileLseek(ctx context.Context, req *structfile.FdRequest) (int64, error) {
	resp, err := post[api.LseekResponse](ctx, c, api.RouteSubFileLseek, req)
	if err != nil {
		return 0, err
	}

	return resp.Offset, nil
}

func (c *Client) SubFileReaddir(ctx context.Context, req *structfile.FdRequest) (*structfile.DirEntry, error) {
	resp, err := post[api.ReaddirResponse](ctx, c, api.RouteSubFileReaddir, req)
	if err != nil {
		return nil, err
	}

	return resp.Entry, nil
}

func (c *Client) StructFileSync(ctx context.Context, req *structfile.SyncRequest) (int, error) {
	return c.statusCall(ctx, api.RouteStructFileSync, req)
}

func (c *Client) StructFileExtract(ctx context.Context, req *structfile.ExtractRequest) (int, error) {
	return c.statusCall(ctx, api.RouteStructFileExtract, req)
}

func (c *Client) fdCall(ctx context.Context, route string, body interface{}) (int, error) {
	resp, err := post[api.FdResponse](ctx, c, route, body)
	if err != nil {
		return -1, err
	}

	return resp.Fd, nil
}

func (c *Client) statusCall(ctx context.Context, route string, body interface{}) (int, error) {
	resp, err := post[api.StatusResponse](ctx, c, route, body)
	if err != nil {
		return 0, err
	}

	return resp.Status, nil
}
