package api

import "context"

// College is a member institution.
type College struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code,omitempty"`
	StateID  string `json:"stateId,omitempty"`
	District string `json:"district,omitempty"`
	Pincode  string `json:"pincode,omitempty"`
	Active   bool   `json:"active"`
}

// Department belongs to a college and owns courses and staff.
type Department struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code,omitempty"`
	CollegeID string `json:"collegeId"`
	HODUserID string `json:"hodUserId,omitempty"`
}

// Course is taught within a department for an academic year.
type Course struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Code           string `json:"code,omitempty"`
	DepartmentID   string `json:"departmentId"`
	AcademicYearID string `json:"academicYearId,omitempty"`
	Credits        int    `json:"credits,omitempty"`
}

// Section is a cohort within a course.
type Section struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	CourseID string `json:"courseId"`
	Capacity int    `json:"capacity,omitempty"`
}

// AcademicYear bounds a teaching period.
type AcademicYear struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Current   bool   `json:"current"`
}

func (c *Client) ListColleges(ctx context.Context) ([]College, error) {
	var resp struct {
		Data []College `json:"data"`
	}
	if err := c.Get(ctx, "/colleges", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) GetCollege(ctx context.Context, id string) (*College, error) {
	var college College
	if err := c.Get(ctx, "/colleges/"+id, nil, &college); err != nil {
		return nil, err
	}
	return &college, nil
}

// ListDepartments lists departments, optionally narrowed to one college.
func (c *Client) ListDepartments(ctx context.Context, collegeID string) ([]Department, error) {
	params := Params{}
	if collegeID != "" {
		params["college_id"] = collegeID
	}

	var resp struct {
		Data []Department `json:"data"`
	}
	if err := c.Get(ctx, "/departments", params, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) GetDepartment(ctx context.Context, id string) (*Department, error) {
	var department Department
	if err := c.Get(ctx, "/departments/"+id, nil, &department); err != nil {
		return nil, err
	}
	return &department, nil
}

// ListCourses lists courses, optionally narrowed to one department.
func (c *Client) ListCourses(ctx context.Context, departmentID string) ([]Course, error) {
	params := Params{}
	if departmentID != "" {
		params["department_id"] = departmentID
	}

	var resp struct {
		Data []Course `json:"data"`
	}
	if err := c.Get(ctx, "/courses", params, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) ListSections(ctx context.Context, courseID string) ([]Section, error) {
	params := Params{}
	if courseID != "" {
		params["course_id"] = courseID
	}

	var resp struct {
		Data []Section `json:"data"`
	}
	if err := c.Get(ctx, "/sections", params, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) ListAcademicYears(ctx context.Context) ([]AcademicYear, error) {
	var resp struct {
		Data []AcademicYear `json:"data"`
	}
	if err := c.Get(ctx, "/academic-years", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
