package testhelpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// MockLMSServer is a configurable fake of the LMS backend. Every route
// family counts its requests and can be forced to a fixed status code, so
// tests can assert retry counts, deduplication and auth behaviour.
type MockLMSServer struct {
	Server *httptest.Server

	mu             sync.Mutex
	requestCounts  map[string]int
	statusOverride map[string]int
	lastAuthHeader string

	// LoginToken is returned from a successful login.
	LoginToken string
}

// SetupMockLMSServer starts a mock backend serving the endpoint families the
// client exercises. Responses use the backend's snake_case convention.
func SetupMockLMSServer(t *testing.T) *MockLMSServer {
	t.Helper()

	mock := &MockLMSServer{
		requestCounts:  make(map[string]int),
		statusOverride: make(map[string]int),
		LoginToken:     "test-session-token",
	}

	router := http.NewServeMux()

	router.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		if mock.begin(w, r, "/auth/login") {
			return
		}
		WriteJSON(w, map[string]any{
			"token": mock.LoginToken,
			"user": map[string]any{
				"id":         "u-1",
				"first_name": "Test",
				"last_name":  "Admin",
				"email":      "admin@example.edu",
				"role":       "admin",
				"active":     true,
			},
		})
	})

	router.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		if mock.begin(w, r, "/users") {
			return
		}
		WriteJSON(w, map[string]any{
			"data": []map[string]any{
				{"id": "u-2", "first_name": "Ann", "last_name": "Lee", "email": "ann@example.edu", "role": "student", "active": true},
			},
			"total": 1,
			"page":  1,
		})
	})

	router.HandleFunc("GET /users/{id}", func(w http.ResponseWriter, r *http.Request) {
		if mock.begin(w, r, "/users/detail") {
			return
		}
		WriteJSON(w, map[string]any{
			"id": r.PathValue("id"), "first_name": "Ann", "last_name": "Lee",
			"email": "ann@example.edu", "role": "student", "active": true,
		})
	})

	router.HandleFunc("POST /users", func(w http.ResponseWriter, r *http.Request) {
		if mock.begin(w, r, "POST /users") {
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		WriteJSON(w, map[string]any{
			"id":         "u-new",
			"first_name": body["first_name"],
			"last_name":  body["last_name"],
			"email":      body["email"],
			"role":       body["role"],
			"active":     true,
		})
	})

	router.HandleFunc("PUT /users/{id}", func(w http.ResponseWriter, r *http.Request) {
		if mock.begin(w, r, "PUT /users") {
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		updated := map[string]any{
			"id": r.PathValue("id"), "first_name": "Ann", "last_name": "Lee",
			"email": "ann@example.edu", "role": "student", "active": true,
		}
		for key, value := range body {
			updated[key] = value
		}
		WriteJSON(w, updated)
	})

	router.HandleFunc("DELETE /users/{id}", func(w http.ResponseWriter, r *http.Request) {
		if mock.begin(w, r, "DELETE /users") {
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	router.HandleFunc("GET /dashboard/admin/stats", func(w http.ResponseWriter, r *http.Request) {
		if mock.begin(w, r, "/dashboard/admin/stats") {
			return
		}
		WriteJSON(w, map[string]any{
			"total_users": 120, "total_colleges": 4,
			"total_departments": 16, "total_resources": 300, "active_students": 95,
		})
	})

	router.HandleFunc("GET /dashboard/college-ranking", func(w http.ResponseWriter, r *http.Request) {
		if mock.begin(w, r, "/dashboard/college-ranking") {
			return
		}
		WriteJSON(w, map[string]any{
			"data": []map[string]any{
				{"college_id": "c-1", "college_name": "North College", "score": 91.5, "rank": 1},
			},
		})
	})

	router.HandleFunc("GET /locations/states", func(w http.ResponseWriter, r *http.Request) {
		if mock.begin(w, r, "/locations/states") {
			return
		}
		WriteJSON(w, map[string]any{
			"data": []map[string]any{{"id": "s-1", "name": "Kerala"}},
		})
	})

	router.HandleFunc("GET /dashboard/{role}", func(w http.ResponseWriter, r *http.Request) {
		if mock.begin(w, r, "/dashboard/role") {
			return
		}
		WriteJSON(w, map[string]any{
			"role":    r.PathValue("role"),
			"widgets": map[string]any{"pending_items": 3},
		})
	})

	router.HandleFunc("GET /learning-resources", func(w http.ResponseWriter, r *http.Request) {
		if mock.begin(w, r, "/learning-resources") {
			return
		}
		WriteJSON(w, map[string]any{
			"data": []map[string]any{
				{"id": "r-1", "title": "Intro to Botany", "type": "video", "course_id": "co-1"},
			},
		})
	})

	mock.Server = httptest.NewServer(router)
	t.Cleanup(mock.Server.Close)
	return mock
}

// begin records the request and applies any status override; it reports
// whether the handler should stop (a non-2xx was written).
func (m *MockLMSServer) begin(w http.ResponseWriter, r *http.Request, family string) bool {
	m.mu.Lock()
	m.requestCounts[family]++
	m.lastAuthHeader = r.Header.Get("Authorization")
	status := m.statusOverride[family]
	m.mu.Unlock()

	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
		return true
	}
	return false
}

// URL returns the base URL of the mock backend.
func (m *MockLMSServer) URL() string {
	return m.Server.URL
}

// RequestCount returns how many requests the route family has received.
func (m *MockLMSServer) RequestCount(family string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestCounts[family]
}

// SetStatus forces a route family to respond with the given status code.
func (m *MockLMSServer) SetStatus(family string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusOverride[family] = status
}

// LastAuthHeader returns the Authorization header captured from the most
// recent request.
func (m *MockLMSServer) LastAuthHeader() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastAuthHeader
}

// WriteJSON is a helper function that writes a JSON response.
func WriteJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal JSON: %v", err), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(data)
}
