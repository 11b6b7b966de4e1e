package classroom

import "fmt"

// Wire representations of the classroom provider's entities. Read-only;
// owned by the remote service.

type (
	Course struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Section     string `json:"section"`
		Description string `json:"description"`
		CourseState string `json:"courseState"` // ACTIVE|ARCHIVED|PROVISIONED|DECLINED|SUSPENDED
		OwnerID     string `json:"ownerId"`
	}

	// Date carries the provider's split due date parts. A zero part means
	// the part is absent.
	Date struct {
		Year  int `json:"year"`
		Month int `json:"month"`
		Day   int `json:"day"`
	}

	CourseWork struct {
		ID          string   `json:"id"`
		CourseID    string   `json:"courseId"`
		Title       string   `json:"title"`
		Description string   `json:"description"`
		DueDate     *Date    `json:"dueDate"`
		MaxPoints   *float64 `json:"maxPoints"`
		State       string   `json:"state"`
		TopicID     string   `json:"topicId"`
	}

	StudentSubmission struct {
		ID            string   `json:"id"`
		UserID        string   `json:"userId"`
		CourseID      string   `json:"courseId"`
		CourseWorkID  string   `json:"courseWorkId"`
		State         string   `json:"state"` // NEW|CREATED|TURNED_IN|RETURNED|RECLAIMED_BY_STUDENT
		Late          bool     `json:"late"`
		DraftGrade    *float64 `json:"draftGrade"`
		AssignedGrade *float64 `json:"assignedGrade"`
	}

	Student struct {
		CourseID string `json:"courseId"`
		UserID   string `json:"userId"`
	}

	Teacher struct {
		CourseID string `json:"courseId"`
		UserID   string `json:"userId"`
	}
)

// APIError is a non-2xx response from the provider.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("classroom: %s: status %d: %s", e.Op, e.Status, e.Body)
}

// Temporary reports whether retrying the call may succeed.
func (e *APIError) Temporary() bool {
	return e.Status >= 500
}
