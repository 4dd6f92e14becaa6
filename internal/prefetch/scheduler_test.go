package prefetch

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusql/campusql-go/internal/api"
	"github.com/campusql/campusql-go/internal/query"
	"github.com/campusql/campusql-go/internal/session"
	"github.com/campusql/campusql-go/internal/testhelpers"
)

func setup(t *testing.T) (*Scheduler, *testhelpers.MockLMSServer, *query.Client) {
	t.Helper()

	mock := testhelpers.SetupMockLMSServer(t)
	client, err := api.New(mock.URL(), session.NewMemory())
	require.NoError(t, err)

	queries := query.NewClient(query.DefaultOptions())
	t.Cleanup(queries.Close)

	return New(client, queries), mock, queries
}

func TestDashboardDataWarmsAdminKeys(t *testing.T) {
	scheduler, mock, queries := setup(t)

	scheduler.DashboardData(context.Background(), api.RoleAdmin, "u-1")

	stats, ok := query.Get[*api.AdminStats](queries, query.AdminStatsKey())
	require.True(t, ok)
	assert.Equal(t, 120, stats.TotalUsers)
	assert.Equal(t, 4, stats.TotalColleges)

	ranking, ok := query.Get[[]api.CollegeRank](queries, query.CollegeRankingKey())
	require.True(t, ok)
	require.Len(t, ranking, 1)
	assert.Equal(t, "North College", ranking[0].CollegeName)

	states, ok := query.Get[[]api.State](queries, query.StatesKey())
	require.True(t, ok)
	require.Len(t, states, 1)
	assert.Equal(t, "Kerala", states[0].Name)

	assert.Equal(t, 1, mock.RequestCount("/dashboard/admin/stats"))
	assert.Equal(t, 1, mock.RequestCount("/dashboard/college-ranking"))
	assert.Equal(t, 1, mock.RequestCount("/locations/states"))
}

func TestDashboardDataServesWarmedKeysWithoutNetwork(t *testing.T) {
	scheduler, mock, queries := setup(t)

	scheduler.DashboardData(context.Background(), api.RoleAdmin, "u-1")

	// a subsequent read inside the staleness window must not hit the backend
	stats, err := query.Fetch(context.Background(), queries, query.AdminStatsKey(),
		func(ctx context.Context) (*api.AdminStats, error) {
			t.Fatal("warm key must be served from cache")
			return nil, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 120, stats.TotalUsers)

	assert.Equal(t, 1, mock.RequestCount("/dashboard/admin/stats"))
}

func TestDashboardDataWarmsStudentKeys(t *testing.T) {
	scheduler, mock, queries := setup(t)

	scheduler.DashboardData(context.Background(), api.RoleStudent, "u-7")

	dashboard, ok := query.Get[*api.RoleDashboard](queries, query.DashboardForRole(api.RoleStudent))
	require.True(t, ok)
	assert.Equal(t, api.RoleStudent, dashboard.Role)

	resources, ok := query.Get[[]api.LearningResource](queries, query.ResourcesByStudent("u-7"))
	require.True(t, ok)
	require.Len(t, resources, 1)
	assert.Equal(t, "Intro to Botany", resources[0].Title)

	assert.Equal(t, 1, mock.RequestCount("/dashboard/role"))
	assert.Equal(t, 1, mock.RequestCount("/learning-resources"))
}

func TestDashboardDataUnknownRoleIsNoop(t *testing.T) {
	scheduler, mock, _ := setup(t)

	scheduler.DashboardData(context.Background(), "librarian", "u-1")

	assert.Equal(t, 0, mock.RequestCount("/dashboard/role"))
	assert.Equal(t, 0, mock.RequestCount("/dashboard/admin/stats"))
}

func TestDashboardDataSwallowsEndpointFailures(t *testing.T) {
	scheduler, mock, queries := setup(t)

	// one broken endpoint must not abort the sibling warm-ups; terminal
	// errors are not retried, so the backend sees exactly one attempt
	mock.SetStatus("/dashboard/admin/stats", http.StatusUnprocessableEntity)

	scheduler.DashboardData(context.Background(), api.RoleAdmin, "u-1")

	_, ok := query.Get[*api.AdminStats](queries, query.AdminStatsKey())
	assert.False(t, ok)

	_, ok = query.Get[[]api.CollegeRank](queries, query.CollegeRankingKey())
	assert.True(t, ok)
	_, ok = query.Get[[]api.State](queries, query.StatesKey())
	assert.True(t, ok)

	assert.Equal(t, 1, mock.RequestCount("/dashboard/admin/stats"))
}

func TestNavigationDataWarmsUsersRoute(t *testing.T) {
	scheduler, mock, queries := setup(t)

	scheduler.NavigationData(context.Background(), "/users", api.RoleAdmin, "u-1")

	list, ok := query.Get[*api.UserList](queries, query.Users.List(nil))
	require.True(t, ok)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Ann", list.Data[0].FirstName)
	assert.Equal(t, 1, mock.RequestCount("/users"))
}

func TestNavigationDataUnknownRouteIsNoop(t *testing.T) {
	scheduler, mock, _ := setup(t)

	scheduler.NavigationData(context.Background(), "/settings", api.RoleAdmin, "u-1")

	assert.Equal(t, 0, mock.RequestCount("/users"))
	assert.Equal(t, 0, mock.RequestCount("/dashboard/admin/stats"))
}

func TestBackgroundRefreshRefetchesObservedKeys(t *testing.T) {
	scheduler, mock, queries := setup(t)

	scheduler.DashboardData(context.Background(), api.RoleStudent, "u-7")
	require.Equal(t, 1, mock.RequestCount("/dashboard/role"))

	unsubscribe := queries.Subscribe(query.DashboardForRole(api.RoleStudent))
	defer unsubscribe()

	scheduler.BackgroundRefresh(context.Background(), api.RoleStudent)

	// the observed dashboard key is reloaded; the student resource warm-up
	// runs as well
	assert.GreaterOrEqual(t, mock.RequestCount("/dashboard/role"), 2)
	assert.GreaterOrEqual(t, mock.RequestCount("/learning-resources"), 1)
}
