package classroom

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
)

var (
	// ErrNotEnrolled maps the provider's 404 on a roster probe: the user
	// has no such role in the course. Not an API failure.
	ErrNotEnrolled = errors.New("classroom: user not enrolled in course")

	sleepFunc = time.Sleep // mockable
)

type (
	// TokenProvider yields a valid provider access token for a user,
	// refreshing it first if needed. Satisfied by *token.Manager.
	TokenProvider interface {
		GetValidAccessToken(ctx context.Context, userID string) (string, error)
	}

	// Client is the classroom provider API scoped to one authenticated user.
	// List calls take a page token and return the next one; an empty next
	// token ends the listing.
	Client interface {
		ListCourses(ctx context.Context, pageToken string) ([]Course, string, error)
		ListCourseWork(ctx context.Context, courseID, pageToken string) ([]CourseWork, string, error)
		ListSubmissions(ctx context.Context, courseID, courseWorkID, pageToken string) ([]StudentSubmission, string, error)
		GetStudent(ctx context.Context, courseID string) (Student, error)
		GetTeacher(ctx context.Context, courseID string) (Teacher, error)
	}

	httpClient struct {
		baseURL    string
		userID     string
		tokens     TokenProvider
		http       *http.Client
		pageSize   int
		maxRetries int
	}
)

var _ Client = (*httpClient)(nil)

// NewHTTPClient returns a Client calling the provider on behalf of userID.
// Every request is preceded by a token validity check through tokens.
func NewHTTPClient(conf *core.Config, tokens TokenProvider, userID string) Client {
	return &httpClient{
		baseURL:    conf.Classroom.BaseURL,
		userID:     userID,
		tokens:     tokens,
		http:       &http.Client{Timeout: 30 * time.Second},
		pageSize:   conf.Classroom.PageSize,
		maxRetries: conf.Classroom.MaxRetries,
	}
}

func (c *httpClient) ListCourses(ctx context.Context, pageToken string) ([]Course, string, error) {
	// unfiltered by role: the listing returns every course visible to the
	// authenticated caller, whether they study or teach it
	q := c.listQuery(pageToken)
	q["courseStates"] = []string{"ACTIVE", "ARCHIVED"}
	var out struct {
		Courses       []Course `json:"courses"`
		NextPageToken string   `json:"nextPageToken"`
	}
	if err := c.get(ctx, "listing courses", "/courses", q, &out); err != nil {
		return nil, "", err
	}
	return out.Courses, out.NextPageToken, nil
}

func (c *httpClient) ListCourseWork(ctx context.Context, courseID, pageToken string) ([]CourseWork, string, error) {
	var out struct {
		CourseWork    []CourseWork `json:"courseWork"`
		NextPageToken string       `json:"nextPageToken"`
	}
	path := "/courses/" + url.PathEscape(courseID) + "/courseWork"
	if err := c.get(ctx, "listing coursework", path, c.listQuery(pageToken), &out); err != nil {
		return nil, "", err
	}
	return out.CourseWork, out.NextPageToken, nil
}

func (c *httpClient) ListSubmissions(ctx context.Context, courseID, courseWorkID, pageToken string) ([]StudentSubmission, string, error) {
	q := c.listQuery(pageToken)
	q.Set("userId", "me") // submissions scoped to the authenticated user
	var out struct {
		StudentSubmissions []StudentSubmission `json:"studentSubmissions"`
		NextPageToken      string              `json:"nextPageToken"`
	}
	path := "/courses/" + url.PathEscape(courseID) + "/courseWork/" + url.PathEscape(courseWorkID) + "/studentSubmissions"
	if err := c.get(ctx, "listing submissions", path, q, &out); err != nil {
		return nil, "", err
	}
	return out.StudentSubmissions, out.NextPageToken, nil
}

func (c *httpClient) GetStudent(ctx context.Context, courseID string) (Student, error) {
	var out Student
	path := "/courses/" + url.PathEscape(courseID) + "/students/me"
	err := c.get(ctx, "getting student", path, nil, &out)
	return out, probeErr(err)
}

func (c *httpClient) GetTeacher(ctx context.Context, courseID string) (Teacher, error) {
	var out Teacher
	path := "/courses/" + url.PathEscape(courseID) + "/teachers/me"
	err := c.get(ctx, "getting teacher", path, nil, &out)
	return out, probeErr(err)
}

// probeErr maps a clean 404 on a roster probe to ErrNotEnrolled; any other
// provider error stays a real API failure.
func probeErr(err error) error {
	if apiErr, ok := err.(*APIError); ok && apiErr.Status == http.StatusNotFound {
		return ErrNotEnrolled
	}
	return err
}

func (c *httpClient) listQuery(pageToken string) url.Values {
	q := make(url.Values)
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	return q
}

// get performs an authenticated GET with bounded exponential backoff on
// transport errors and 5xx responses. 4xx responses are terminal.
func (c *httpClient) get(ctx context.Context, op, path string, q url.Values, out interface{}) error {
	accessToken, err := c.tokens.GetValidAccessToken(ctx, c.userID)
	if err != nil {
		return err
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			sleepFunc(backoffDelay(attempt))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return pkgerrors.Wrap(err, op)
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)
		req.Header.Set("Accept", "application/json")

		res, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = pkgerrors.Wrap(err, op)
			continue // transport error; retry
		}

		lastErr = c.handleResponse(op, res, out)
		if apiErr, ok := lastErr.(*APIError); ok && apiErr.Temporary() {
			continue
		}
		return lastErr
	}
	return lastErr
}

func (c *httpClient) handleResponse(op string, res *http.Response, out interface{}) error {
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= http.StatusBadRequest {
		body, _ := ioutil.ReadAll(io.LimitReader(res.Body, 1<<10))
		return &APIError{Op: op, Status: res.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(err, op+": decoding response")
	}
	return nil
}

func backoffDelay(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * 250 * time.Millisecond // 250ms, 500ms, 1s, ...
}
