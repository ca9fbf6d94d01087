package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/andy/invoicer/internal/domain"
)

func (c *Client) ListClients(ctx context.Context, limit, offset int) ([]domain.Client, error) {
	var clients []domain.Client
	if err := c.get(ctx, "/clients", pageQuery(limit, offset), &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

func (c *Client) GetClient(ctx context.Context, id int64) (*domain.Client, error) {
	var client domain.Client
	if err := c.get(ctx, fmt.Sprintf("/clients/%d", id), nil, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

func (c *Client) CreateClient(ctx context.Context, in domain.ClientInput) (*domain.Client, error) {
	var client domain.Client
	if err := c.send(ctx, http.MethodPost, "/clients", in, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

func (c *Client) UpdateClient(ctx context.Context, id int64, in domain.ClientInput) (*domain.Client, error) {
	var client domain.Client
	if err := c.send(ctx, http.MethodPut, fmt.Sprintf("/clients/%d", id), in, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

func (c *Client) DeleteClient(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf("/clients/%d", id), nil, nil)
}
