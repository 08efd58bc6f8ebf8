package api

import (
	"context"

	"github.com/nhle/taskboard/internal/model"
)

// AdminUsers lists every account.
func (c *Client) AdminUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.get(ctx, "/admin/users/", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AdminDashboardStats returns the system-wide breakdown.
func (c *Client) AdminDashboardStats(ctx context.Context) (*model.AdminStats, error) {
	var s model.AdminStats
	if err := c.get(ctx, "/admin/dashboard/stats/", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
