package api

import (
	"context"
	"fmt"
)

// AdminStats is the platform-wide aggregate shown on the admin dashboard.
type AdminStats struct {
	TotalUsers       int `json:"totalUsers"`
	TotalColleges    int `json:"totalColleges"`
	TotalDepartments int `json:"totalDepartments"`
	TotalResources   int `json:"totalResources"`
	ActiveStudents   int `json:"activeStudents"`
}

// CollegeRank is one row of the college leaderboard.
type CollegeRank struct {
	CollegeID   string  `json:"collegeId"`
	CollegeName string  `json:"collegeName"`
	Score       float64 `json:"score"`
	Rank        int     `json:"rank"`
}

// RoleDashboard is the aggregate for one non-admin role's landing page. The
// widget payload varies per role, so it stays schemaless.
type RoleDashboard struct {
	Role    string         `json:"role"`
	Widgets map[string]any `json:"widgets"`
}

func (c *Client) AdminStats(ctx context.Context) (*AdminStats, error) {
	var stats AdminStats
	if err := c.Get(ctx, "/dashboard/admin/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) CollegeRanking(ctx context.Context) ([]CollegeRank, error) {
	var resp struct {
		Data []CollegeRank `json:"data"`
	}
	if err := c.Get(ctx, "/dashboard/college-ranking", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// RoleDashboard fetches the landing-page aggregate for a role. The userID
// scopes student and staff dashboards to the signed-in user.
func (c *Client) RoleDashboard(ctx context.Context, role, userID string) (*RoleDashboard, error) {
	params := Params{}
	if userID != "" {
		params["user_id"] = userID
	}

	var dashboard RoleDashboard
	path := fmt.Sprintf("/dashboard/%s", role)
	if err := c.Get(ctx, path, params, &dashboard); err != nil {
		return nil, err
	}
	return &dashboard, nil
}
