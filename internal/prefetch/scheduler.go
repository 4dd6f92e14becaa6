// Package prefetch warms the query cache ahead of navigation. Everything
// here is best-effort: no error or panic ever reaches the caller, since the
// only purpose is perceived performance.
package prefetch

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/campusql/campusql-go/internal/api"
	"github.com/campusql/campusql-go/internal/query"
)

// Scheduler issues fire-and-forget cache loads for data a user is likely to
// need next.
type Scheduler struct {
	api     *api.Client
	queries *query.Client
}

func New(apiClient *api.Client, queries *query.Client) *Scheduler {
	return &Scheduler{api: apiClient, queries: queries}
}

// task warms one key, swallowing the error so sibling prefetches continue
// regardless of individual failures.
func task[T any](ctx context.Context, s *Scheduler, key query.Key, fn func(context.Context) (T, error)) func() error {
	return func() error {
		if _, err := query.Fetch(ctx, s.queries, key, fn); err != nil {
			log.Debug().Err(err).Str("key", key.Canonical()).Msg("prefetch failed")
		}
		return nil
	}
}

// DashboardData warms the role-specific dashboard set. All loads run
// concurrently and every failure is swallowed, so a single broken endpoint
// never aborts the rest of the warm-up.
func (s *Scheduler) DashboardData(ctx context.Context, role, userID string) {
	defer recoverPrefetch()

	g, gctx := errgroup.WithContext(ctx)

	switch role {
	case api.RoleAdmin:
		g.Go(task(gctx, s, query.AdminStatsKey(), func(ctx context.Context) (*api.AdminStats, error) {
			return s.api.AdminStats(ctx)
		}))
		g.Go(task(gctx, s, query.CollegeRankingKey(), func(ctx context.Context) ([]api.CollegeRank, error) {
			return s.api.CollegeRanking(ctx)
		}))
		g.Go(task(gctx, s, query.StatesKey(), func(ctx context.Context) ([]api.State, error) {
			return s.api.ListStates(ctx)
		}))
	case api.RolePrincipal, api.RoleHOD, api.RoleStaff, api.RoleStudent:
		g.Go(task(gctx, s, query.DashboardForRole(role), func(ctx context.Context) (*api.RoleDashboard, error) {
			return s.api.RoleDashboard(ctx, role, userID)
		}))
		if role == api.RoleStudent {
			g.Go(task(gctx, s, query.ResourcesByStudent(userID), func(ctx context.Context) ([]api.LearningResource, error) {
				return s.api.ListLearningResources(ctx, api.ResourceFilters{StudentID: userID})
			}))
		}
	default:
		log.Debug().Str("role", role).Msg("no dashboard prefetch for role")
		return
	}

	// Tasks never return errors, so Wait only synchronizes completion.
	_ = g.Wait()
}

// routeLoaders maps navigation targets to their warm-up routines. Unknown
// routes are a no-op.
var routeLoaders = map[string]func(*Scheduler, context.Context, string, string){
	"/dashboard": func(s *Scheduler, ctx context.Context, role, userID string) {
		s.DashboardData(ctx, role, userID)
	},
	"/users": func(s *Scheduler, ctx context.Context, role, userID string) {
		s.warmUsers(ctx)
	},
	"/colleges": func(s *Scheduler, ctx context.Context, role, userID string) {
		s.warmColleges(ctx)
	},
	"/learning-resources": func(s *Scheduler, ctx context.Context, role, userID string) {
		s.warmResources(ctx, role, userID)
	},
}

// NavigationData warms the cache for a navigation target, typically on
// hover, before the user commits to the route.
func (s *Scheduler) NavigationData(ctx context.Context, route, role, userID string) {
	defer recoverPrefetch()

	loader, ok := routeLoaders[route]
	if !ok {
		return
	}
	loader(s, ctx, role, userID)
}

// BackgroundRefresh invalidates the dashboard family without forcing a
// refetch, then refetches only the queries something is actually observing,
// plus the families the role works with. This bounds the refresh blast
// radius to what the user is viewing.
func (s *Scheduler) BackgroundRefresh(ctx context.Context, role string) {
	defer recoverPrefetch()

	s.queries.Invalidate(ctx, query.Dashboard.All())

	g, gctx := errgroup.WithContext(ctx)

	for _, key := range s.queries.ActiveKeys(nil) {
		key := key
		g.Go(func() error {
			if err := s.queries.Refetch(gctx, key); err != nil {
				log.Debug().Err(err).Str("key", key.Canonical()).
					Msg("background refresh failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	switch role {
	case api.RoleAdmin:
		s.warmUsers(ctx)
		s.warmInvitations(ctx)
	case api.RoleStudent:
		s.warmResources(ctx, role, "")
	}
}

func (s *Scheduler) warmUsers(ctx context.Context) {
	if _, err := query.Fetch(ctx, s.queries, query.Users.List(nil), func(ctx context.Context) (*api.UserList, error) {
		return s.api.ListUsers(ctx, api.UserFilters{})
	}); err != nil {
		log.Debug().Err(err).Msg("user list prefetch failed")
	}
}

func (s *Scheduler) warmInvitations(ctx context.Context) {
	if _, err := query.Fetch(ctx, s.queries, query.Invitations.List(nil), func(ctx context.Context) ([]api.Invitation, error) {
		return s.api.ListInvitations(ctx, "")
	}); err != nil {
		log.Debug().Err(err).Msg("invitation prefetch failed")
	}
}

func (s *Scheduler) warmColleges(ctx context.Context) {
	if _, err := query.Fetch(ctx, s.queries, query.Colleges.List(nil), func(ctx context.Context) ([]api.College, error) {
		return s.api.ListColleges(ctx)
	}); err != nil {
		log.Debug().Err(err).Msg("college prefetch failed")
	}
}

func (s *Scheduler) warmResources(ctx context.Context, role, userID string) {
	filters := api.ResourceFilters{}
	key := query.Resources.List(nil)
	if role == api.RoleStudent && userID != "" {
		filters.StudentID = userID
		key = query.ResourcesByStudent(userID)
	}

	if _, err := query.Fetch(ctx, s.queries, key, func(ctx context.Context) ([]api.LearningResource, error) {
		return s.api.ListLearningResources(ctx, filters)
	}); err != nil {
		log.Debug().Err(err).Msg("resource prefetch failed")
	}
}

func recoverPrefetch() {
	if r := recover(); r != nil {
		log.Warn().Interface("recover", r).Msg("prefetch panicked; continuing")
	}
}
