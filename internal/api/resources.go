package api

import "context"

// LearningResource is a unit of course material assigned to students. The
// backend historically exposed these under a "tree" vocabulary; this client
// uses the learning-resource naming exclusively.
type LearningResource struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Type         string `json:"type,omitempty"`
	URL          string `json:"url,omitempty"`
	CourseID     string `json:"courseId,omitempty"`
	DepartmentID string `json:"departmentId,omitempty"`
	Progress     int    `json:"progress,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

// ResourceFilters narrows a learning-resource listing.
type ResourceFilters struct {
	DepartmentID string
	CourseID     string
	StudentID    string
	Type         string
}

func (f ResourceFilters) params() Params {
	p := Params{}
	if f.DepartmentID != "" {
		p["department_id"] = f.DepartmentID
	}
	if f.CourseID != "" {
		p["course_id"] = f.CourseID
	}
	if f.StudentID != "" {
		p["student_id"] = f.StudentID
	}
	if f.Type != "" {
		p["type"] = f.Type
	}
	return p
}

// CreateResourceRequest is the outbound shape for resource creation.
type CreateResourceRequest struct {
	Title        string `json:"title"`
	Type         string `json:"type,omitempty"`
	URL          string `json:"url,omitempty"`
	CourseID     string `json:"course_id,omitempty"`
	DepartmentID string `json:"department_id,omitempty"`
}

// Assignment is an LMS content item with a due date and submissions.
type Assignment struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	CourseID string `json:"courseId,omitempty"`
	DueDate  string `json:"dueDate,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Examination is a scheduled assessment.
type Examination struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	CourseID string `json:"courseId,omitempty"`
	Date     string `json:"date,omitempty"`
	MaxMarks int    `json:"maxMarks,omitempty"`
}

// CatalogEntry is a shared resource available for adoption into a course.
type CatalogEntry struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Type    string `json:"type,omitempty"`
	Subject string `json:"subject,omitempty"`
}

func (c *Client) ListLearningResources(ctx context.Context, filters ResourceFilters) ([]LearningResource, error) {
	var resp struct {
		Data []LearningResource `json:"data"`
	}
	if err := c.Get(ctx, "/learning-resources", filters.params(), &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) GetLearningResource(ctx context.Context, id string) (*LearningResource, error) {
	var resource LearningResource
	if err := c.Get(ctx, "/learning-resources/"+id, nil, &resource); err != nil {
		return nil, err
	}
	return &resource, nil
}

func (c *Client) CreateLearningResource(ctx context.Context, req CreateResourceRequest) (*LearningResource, error) {
	var resource LearningResource
	if err := c.Post(ctx, "/learning-resources", req, &resource); err != nil {
		return nil, err
	}
	return &resource, nil
}

func (c *Client) DeleteLearningResource(ctx context.Context, id string) error {
	return c.Delete(ctx, "/learning-resources/"+id, nil, nil)
}

type assignResourceRequest struct {
	StudentID string `json:"student_id"`
}

// AssignResource assigns a learning resource to a student.
func (c *Client) AssignResource(ctx context.Context, resourceID, studentID string) error {
	return c.Post(ctx, "/learning-resources/"+resourceID+"/assign",
		assignResourceRequest{StudentID: studentID}, nil)
}

func (c *Client) ListAssignments(ctx context.Context, courseID string) ([]Assignment, error) {
	params := Params{}
	if courseID != "" {
		params["course_id"] = courseID
	}

	var resp struct {
		Data []Assignment `json:"data"`
	}
	if err := c.Get(ctx, "/lms-content/assignments", params, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) ListExaminations(ctx context.Context, courseID string) ([]Examination, error) {
	params := Params{}
	if courseID != "" {
		params["course_id"] = courseID
	}

	var resp struct {
		Data []Examination `json:"data"`
	}
	if err := c.Get(ctx, "/examinations", params, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) ListResourceCatalog(ctx context.Context, subject string) ([]CatalogEntry, error) {
	params := Params{}
	if subject != "" {
		params["subject"] = subject
	}

	var resp struct {
		Data []CatalogEntry `json:"data"`
	}
	if err := c.Get(ctx, "/resource-catalog", params, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
