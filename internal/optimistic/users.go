package optimistic

import (
	"context"

	"github.com/campusql/campusql-go/internal/api"
	"github.com/campusql/campusql-go/internal/query"
)

// Users wires optimistic cache updates to the user mutation endpoints. Each
// helper chooses the keys to touch and how to splice the new value into the
// cached list and detail shapes, leaving the generic machinery to Apply and
// WithUpdate.
type Users struct {
	API     *api.Client
	Queries *query.Client
}

// Create makes the new user visible in the unfiltered list immediately. If
// the POST fails (after the retry budget is exhausted), the list reverts to
// exactly its pre-mutation content.
func (u Users) Create(ctx context.Context, req api.CreateUserRequest) (*api.User, error) {
	listKey := query.Users.List(nil)

	speculative := api.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         req.Role,
		CollegeID:    req.CollegeID,
		DepartmentID: req.DepartmentID,
		Active:       true,
	}

	var created *api.User
	err := WithUpdate(ctx, u.Queries,
		func() []*UpdateContext {
			return []*UpdateContext{
				Apply(u.Queries, listKey, func(list api.UserList) api.UserList {
					// Copy the slice: the snapshot shares the old backing
					// array, and rollback must restore it untouched.
					data := make([]api.User, 0, len(list.Data)+1)
					data = append(data, list.Data...)
					list.Data = append(data, speculative)
					list.Total++
					return list
				}),
			}
		},
		func(ctx context.Context) error {
			user, err := u.API.CreateUser(ctx, req)
			if err != nil {
				return err
			}
			created = user
			return nil
		},
		query.Users.All(),
	)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update patches the cached detail and list entries in place before the
// request is issued.
func (u Users) Update(ctx context.Context, id string, req api.UpdateUserRequest) (*api.User, error) {
	listKey := query.Users.List(nil)
	detailKey := query.Users.Detail(id)

	patch := func(user api.User) api.User {
		if user.ID != id && user.ID != "" {
			return user
		}
		if req.FirstName != nil {
			user.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			user.LastName = *req.LastName
		}
		if req.Phone != nil {
			user.Phone = *req.Phone
		}
		if req.DepartmentID != nil {
			user.DepartmentID = *req.DepartmentID
		}
		if req.Active != nil {
			user.Active = *req.Active
		}
		return user
	}

	var updated *api.User
	err := WithUpdate(ctx, u.Queries,
		func() []*UpdateContext {
			return []*UpdateContext{
				Apply(u.Queries, detailKey, patch),
				Apply(u.Queries, listKey, func(list api.UserList) api.UserList {
					data := make([]api.User, len(list.Data))
					for i, user := range list.Data {
						if user.ID == id {
							user = patch(user)
						}
						data[i] = user
					}
					list.Data = data
					return list
				}),
			}
		},
		func(ctx context.Context) error {
			user, err := u.API.UpdateUser(ctx, id, req)
			if err != nil {
				return err
			}
			updated = user
			return nil
		},
		query.Users.All(),
	)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the user from the cached list immediately and evicts the
// detail entry once the backend confirms.
func (u Users) Delete(ctx context.Context, id string) error {
	listKey := query.Users.List(nil)

	err := WithUpdate(ctx, u.Queries,
		func() []*UpdateContext {
			return []*UpdateContext{
				Apply(u.Queries, listKey, func(list api.UserList) api.UserList {
					kept := make([]api.User, 0, len(list.Data))
					for _, user := range list.Data {
						if user.ID != id {
							kept = append(kept, user)
						}
					}
					list.Total -= len(list.Data) - len(kept)
					list.Data = kept
					return list
				}),
			}
		},
		func(ctx context.Context) error {
			return u.API.DeleteUser(ctx, id)
		},
		query.Users.All(),
	)
	if err != nil {
		return err
	}

	u.Queries.Delete(query.Users.Detail(id))
	return nil
}
