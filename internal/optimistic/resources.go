package optimistic

import (
	"context"

	"github.com/campusql/campusql-go/internal/api"
	"github.com/campusql/campusql-go/internal/query"
)

// Resources wires optimistic updates to the learning-resource and
// invitation mutation endpoints.
type Resources struct {
	API     *api.Client
	Queries *query.Client
}

// Assign attaches a resource to a student, reflecting it in the student's
// cached resource list before the request confirms.
func (r Resources) Assign(ctx context.Context, resourceID, studentID string) error {
	studentKey := query.ResourcesByStudent(studentID)

	resource, known := query.Get[api.LearningResource](r.Queries, query.Resources.Detail(resourceID))
	if !known {
		resource = api.LearningResource{ID: resourceID}
	}

	return WithUpdate(ctx, r.Queries,
		func() []*UpdateContext {
			return []*UpdateContext{
				Apply(r.Queries, studentKey, func(list []api.LearningResource) []api.LearningResource {
					assigned := make([]api.LearningResource, 0, len(list)+1)
					assigned = append(assigned, list...)
					return append(assigned, resource)
				}),
			}
		},
		func(ctx context.Context) error {
			return r.API.AssignResource(ctx, resourceID, studentID)
		},
		query.Resources.All(),
	)
}

// UpdateInvitationStatus flips an invitation's status in every cached
// invitation list, rolling back if the backend rejects the transition.
func (r Resources) UpdateInvitationStatus(ctx context.Context, id, status string) error {
	listKey := query.Invitations.List(nil)

	return WithUpdate(ctx, r.Queries,
		func() []*UpdateContext {
			return []*UpdateContext{
				Apply(r.Queries, listKey, func(list []api.Invitation) []api.Invitation {
					updated := make([]api.Invitation, len(list))
					for i, invitation := range list {
						if invitation.ID == id {
							invitation.Status = status
						}
						updated[i] = invitation
					}
					return updated
				}),
			}
		},
		func(ctx context.Context) error {
			_, err := r.API.UpdateInvitationStatus(ctx, id, status)
			return err
		},
		query.Invitations.All(),
	)
}

// Remove deletes a learning resource, removing it from the department list
// and detail slot immediately.
func (r Resources) Remove(ctx context.Context, resourceID, departmentID string) error {
	listKey := query.ResourcesByDepartment(departmentID)

	err := WithUpdate(ctx, r.Queries,
		func() []*UpdateContext {
			return []*UpdateContext{
				Apply(r.Queries, listKey, func(list []api.LearningResource) []api.LearningResource {
					kept := make([]api.LearningResource, 0, len(list))
					for _, resource := range list {
						if resource.ID != resourceID {
							kept = append(kept, resource)
						}
					}
					return kept
				}),
			}
		},
		func(ctx context.Context) error {
			return r.API.DeleteLearningResource(ctx, resourceID)
		},
		query.Resources.All(),
	)
	if err != nil {
		return err
	}

	r.Queries.Delete(query.Resources.Detail(resourceID))
	return nil
}
