package model

import "time"

// Role is the legacy single role carried on every user record
type Role string

const (
	RoleGuest    Role = "guest"
	RoleCustomer Role = "customer"
	RoleWorker   Role = "worker"
	RoleManager  Role = "manager"
	RoleTester   Role = "tester"
	RoleDev      Role = "dev"
)

// AllRoles lists every known role in display order
var AllRoles = []Role{RoleGuest, RoleCustomer, RoleWorker, RoleManager, RoleTester, RoleDev}

func (r Role) IsValid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// Capabilities are boolean tags granting operational capabilities independent of the legacy role
type Capabilities struct {
	Worker         bool `json:"workerTag" yaml:"workerTag"`
	Manager        bool `json:"managerTag" yaml:"managerTag"`
	Instructor     bool `json:"instructorTag" yaml:"instructorTag"`
	RentalApproved bool `json:"rentalApprovedTag" yaml:"rentalApprovedTag"`
	Staff          bool `json:"isStaff" yaml:"isStaff"`
	Dev            bool `json:"isDev" yaml:"isDev"`
	Pro            bool `json:"proTag" yaml:"proTag"`
}

// User is an identity record, created on first authenticated contact
type User struct {
	ID            string       `json:"id"`
	Subject       string       `json:"subject"` // Stable identity key from the identity provider
	Name          string       `json:"name"`
	Email         string       `json:"email,omitempty"`
	Role          Role         `json:"role"`
	EmulatingRole *Role        `json:"emulatingRole,omitempty"` // Only meaningful for testers
	Tags          Capabilities `json:"tags"`
	CreatedAt     time.Time    `json:"createdAt"`
}

type SuggestionStatus string

const (
	SuggestionPending     SuggestionStatus = "pending"
	SuggestionReviewed    SuggestionStatus = "reviewed"
	SuggestionImplemented SuggestionStatus = "implemented"
	SuggestionRejected    SuggestionStatus = "rejected"
)

func (s SuggestionStatus) IsValid() bool {
	switch s {
	case SuggestionPending, SuggestionReviewed, SuggestionImplemented, SuggestionRejected:
		return true
	}
	return false
}

// Suggestion is a free-text feedback item
type Suggestion struct {
	ID                 string           `json:"id"`
	Seq                int64            `json:"seq"` // Creation order, assigned by the store
	AuthorID           string           `json:"authorId"`
	Location           string           `json:"location"`
	PageContext        string           `json:"pageContext"`
	Problem            string           `json:"problem"`
	Solution           string           `json:"solution"`
	Status             SuggestionStatus `json:"status"`
	SimilarityHash     string           `json:"similarityHash"`
	RelatedSuggestions []string         `json:"relatedSuggestions"`
	ReviewedBy         string           `json:"reviewedBy,omitempty"`
	ReviewNotes        string           `json:"reviewNotes,omitempty"`
	ImplementationDate string           `json:"implementationDate,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
}

// HourRequirement is the staffing requirement for one hour of a shift template
type HourRequirement struct {
	Hour           int `json:"hour" validate:"min=0,max=23"`
	MinWorkers     int `json:"minWorkers" validate:"min=0"`
	OptimalWorkers int `json:"optimalWorkers" validate:"gtefield=MinWorkers"`
}

// ShiftTemplate is a recurring staffing pattern
type ShiftTemplate struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	StartTime          string            `json:"startTime"` // 15:04
	EndTime            string            `json:"endTime"`   // 15:04, same day
	Weekdays           []time.Weekday    `json:"weekdays"`
	HourlyRequirements []HourRequirement `json:"hourlyRequirements"`
	Active             bool              `json:"active"`
	OwnerID            string            `json:"ownerId"`
	CreatedAt          time.Time         `json:"createdAt"`
}

// HourRange is a same-day wall-clock range, both ends formatted as 15:04
type HourRange struct {
	Start string `json:"startTime" validate:"required,datetime=15:04"`
	End   string `json:"endTime" validate:"required,datetime=15:04"`
}

type AssignmentStatus string

const (
	AssignmentPendingWorker  AssignmentStatus = "pending_worker_approval"
	AssignmentPendingManager AssignmentStatus = "pending_manager_approval"
	AssignmentConfirmed      AssignmentStatus = "confirmed"
	AssignmentRejected       AssignmentStatus = "rejected"
)

// IsTerminal reports whether no further transition is possible
func (s AssignmentStatus) IsTerminal() bool {
	return s == AssignmentConfirmed || s == AssignmentRejected
}

// ShiftAssignment binds one worker to one shift template on one date
type ShiftAssignment struct {
	ID                string           `json:"id"`
	TemplateID        string           `json:"templateId"`
	WorkerID          string           `json:"workerId"`
	Date              string           `json:"date"` // 2006-01-02
	Hours             []HourRange      `json:"hours"`
	AssignedBy        string           `json:"assignedBy"`
	Status            AssignmentStatus `json:"status"`
	ManagerApprovedAt *time.Time       `json:"managerApprovedAt,omitempty"`
	WorkerApprovedAt  *time.Time       `json:"workerApprovedAt,omitempty"`
	Notes             string           `json:"notes,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
}

type RequestType string

const (
	RequestJoinShift   RequestType = "join_shift"
	RequestLeaveShift  RequestType = "leave_shift"
	RequestSwapShift   RequestType = "swap_shift"
	RequestExtendHours RequestType = "extend_hours"
)

func (t RequestType) IsValid() bool {
	switch t {
	case RequestJoinShift, RequestLeaveShift, RequestSwapShift, RequestExtendHours:
		return true
	}
	return false
}

type RequestPriority string

const (
	PriorityLow    RequestPriority = "low"
	PriorityNormal RequestPriority = "normal"
	PriorityUrgent RequestPriority = "urgent"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// WorkerHourRequest is a worker-initiated ask to join, drop or swap hours on a shift
type WorkerHourRequest struct {
	ID                  string          `json:"id"`
	RequesterID         string          `json:"requesterId"`
	TemplateID          string          `json:"templateId"`
	Date                string          `json:"date"`
	Type                RequestType     `json:"requestType"`
	Hours               []HourRange     `json:"requestedHours,omitempty"`
	Reason              string          `json:"reason"`
	Priority            RequestPriority `json:"priority"`
	Status              RequestStatus   `json:"status"`
	ReviewedBy          string          `json:"reviewedBy,omitempty"`
	ReviewedAt          *time.Time      `json:"reviewedAt,omitempty"`
	ReviewNotes         string          `json:"reviewNotes,omitempty"`
	CreatedAssignmentID string          `json:"createdAssignmentId,omitempty"` // Set only on approval that created an assignment
	CreatedAt           time.Time       `json:"createdAt"`
}
