package rpc

import (
	"context"

	"connectrpc.com/connect"

	"codecraft/internal/history"
)

func (c *RefactorServiceClient) Refactor(ctx context.Context, req *RefactorRequest) (*RefactorResponse, error) {
	resp, err := c.refactor.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *RefactorServiceClient) ListHistory(ctx context.Context, limit int) ([]history.Item, error) {
	resp, err := c.listHistory.CallUnary(ctx, connect.NewRequest(&ListHistoryRequest{Limit: limit}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Items, nil
}

func (c *RefactorServiceClient) GetHistory(ctx context.Context, id string) (*history.Item, error) {
	resp, err := c.getHistory.CallUnary(ctx, connect.NewRequest(&GetHistoryRequest{ID: id}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *RefactorServiceClient) GetArchive(ctx context.Context, id string) (*GetArchiveResponse, error) {
	resp, err := c.getArchive.CallUnary(ctx, connect.NewRequest(&GetArchiveRequest{ID: id}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *RefactorServiceClient) ListOptions(ctx context.Context) (*ListOptionsResponse, error) {
	resp, err := c.listOptions.CallUnary(ctx, connect.NewRequest(&ListOptionsRequest{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}
