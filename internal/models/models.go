package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles
const (
	RoleJobSeeker = "job_seeker"
	RoleEmployer  = "employer"
	RoleAdmin     = "admin"
)

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Name         string `gorm:"not null" json:"name"`
	Role         string `gorm:"index;not null" json:"role"`
	Phone        string `json:"phone"`
	AvatarURL    string `json:"avatar_url"`
	ResumeURL    string `json:"resume_url"`

	PrefectureID *uint       `json:"prefecture_id"`
	Prefecture   *Prefecture `json:"prefecture,omitempty"`

	Suspended   bool       `gorm:"default:false" json:"suspended"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

type Company struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// One company per employer account
	OwnerID uint `gorm:"uniqueIndex;not null" json:"owner_id"`

	Name        string `gorm:"not null" json:"company_name"`
	Description string `gorm:"type:text" json:"description"`
	Website     string `json:"website"`
	LogoURL     string `json:"logo_url"`
	Address     string `json:"address"`

	PrefectureID *uint       `json:"prefecture_id"`
	Prefecture   *Prefecture `json:"prefecture,omitempty"`

	// 'omitempty' prevents infinite loops when fetching a Job -> Company -> Jobs -> ...
	Jobs []Job `json:"jobs,omitempty"`
}

// Job statuses
const (
	JobDraft  = "draft"
	JobOpen   = "open"
	JobClosed = "closed"
)

// Employment types
const (
	EmploymentFullTime   = "full_time"
	EmploymentPartTime   = "part_time"
	EmploymentContract   = "contract"
	EmploymentInternship = "internship"
)

type Job struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Foreign Key
	CompanyID uint `gorm:"index;not null" json:"company_id"`
	// Association: GORM needs Preload() to fill this
	Company Company `json:"company"`

	Title          string `gorm:"not null" json:"title"`
	Description    string `gorm:"type:text" json:"description"`
	EmploymentType string `gorm:"index" json:"employment_type"`
	SalaryMin      *int   `json:"salary_min"`
	SalaryMax      *int   `json:"salary_max"`
	Status         string `gorm:"index;default:'draft'" json:"status"`
	Featured       bool   `gorm:"default:false" json:"featured"`

	PublishedAt *time.Time `gorm:"index" json:"published_at"`
	ClosesAt    *time.Time `json:"closes_at"`

	ViewCount        int64 `gorm:"default:0" json:"view_count"`
	ApplicationCount int64 `gorm:"default:0" json:"application_count"`

	Features    []Feature    `gorm:"many2many:job_features;" json:"features"`
	Prefectures []Prefecture `gorm:"many2many:job_prefectures;" json:"prefectures"`
}

// IsOpen reports whether the posting takes applications at now. A passed
// closes_at counts as closed before the stats worker flips the status.
func (j *Job) IsOpen(now time.Time) bool {
	return j.Status == JobOpen && (j.ClosesAt == nil || j.ClosesAt.After(now))
}

type Feature struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Slug     string `gorm:"uniqueIndex;not null" json:"slug"`
	Name     string `gorm:"not null" json:"name"`
	Category string `json:"category"`
}

type Prefecture struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Code   string `gorm:"uniqueIndex;not null" json:"code"`
	Name   string `gorm:"not null" json:"name"`
	Region string `json:"region"`
}

type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"uniqueIndex:idx_favorite_user_job;not null" json:"user_id"`
	JobID     uint      `gorm:"uniqueIndex:idx_favorite_user_job;not null" json:"job_id"`
	Job       Job       `json:"job"`
}

// Application statuses
const (
	AppApplied   = "applied"
	AppScreening = "screening"
	AppInterview = "interview"
	AppOffered   = "offered"
	AppHired     = "hired"
	AppRejected  = "rejected"
	AppWithdrawn = "withdrawn"
)

type Application struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	JobID uint `gorm:"uniqueIndex:idx_application_job_user;not null" json:"job_id"`
	Job   Job  `json:"job"`

	UserID uint `gorm:"uniqueIndex:idx_application_job_user;not null" json:"user_id"`
	User   User `json:"applicant"`

	CoverLetter string `gorm:"type:text" json:"cover_letter"`
	ResumeURL   string `json:"resume_url"`
	Status      string `gorm:"index;default:'applied'" json:"status"`

	Events []ApplicationEvent `json:"events,omitempty"`
}

type ApplicationEvent struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	ApplicationID uint      `gorm:"index" json:"application_id"`
	ActorID       uint      `json:"actor_id"`
	EventType     string    `json:"event_type"`
	Details       string    `gorm:"type:text" json:"details"`
}

type ChatRoom struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SeekerID   uint `gorm:"uniqueIndex:idx_chat_room_members;not null" json:"seeker_id"`
	Seeker     User `json:"seeker"`
	EmployerID uint `gorm:"uniqueIndex:idx_chat_room_members;not null" json:"employer_id"`
	Employer   User `json:"employer"`
	// 0 means the room is not tied to a posting
	JobID uint `gorm:"uniqueIndex:idx_chat_room_members;not null;default:0" json:"job_id"`

	LastMessageAt *time.Time `gorm:"index" json:"last_message_at"`
}

type ChatMessage struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	RoomID        uint       `gorm:"index;not null" json:"room_id"`
	SenderID      uint       `gorm:"not null" json:"sender_id"`
	Body          string     `gorm:"type:text" json:"body"`
	AttachmentURL string     `json:"attachment_url"`
	ReadAt        *time.Time `json:"read_at"`
}

type Column struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Title        string     `gorm:"not null" json:"title"`
	Slug         string     `gorm:"uniqueIndex;not null" json:"slug"`
	Body         string     `gorm:"type:text" json:"body"`
	Excerpt      string     `json:"excerpt"`
	ThumbnailURL string     `json:"thumbnail_url"`
	Category     string     `gorm:"index" json:"category"`
	Published    bool       `gorm:"index;default:false" json:"published"`
	PublishedAt  *time.Time `json:"published_at"`
	AuthorID     uint       `json:"author_id"`
	ViewCount    int64      `gorm:"default:0" json:"view_count"`
}

type Interview struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CompanyID       *uint    `gorm:"index" json:"company_id"`
	Company         *Company `json:"company,omitempty"`
	Title           string   `gorm:"not null" json:"title"`
	IntervieweeName string   `json:"interviewee_name"`
	IntervieweeRole string   `json:"interviewee_role"`
	Body            string   `gorm:"type:text" json:"body"`
	ThumbnailURL    string   `json:"thumbnail_url"`

	Published   bool       `gorm:"index;default:false" json:"published"`
	PublishedAt *time.Time `json:"published_at"`
}

type Upload struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	OwnerID     uint      `gorm:"index" json:"owner_id"`
	Key         string    `gorm:"uniqueIndex;not null" json:"key"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Purpose     string    `json:"purpose"`
}

type JobView struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	JobID     uint      `gorm:"index" json:"job_id"`
	UserID    *uint     `json:"user_id"`
}

type DailyStat struct {
	Date          string    `gorm:"primaryKey;size:10" json:"date"` // YYYY-MM-DD
	UpdatedAt     time.Time `json:"updated_at"`
	Views         int64     `json:"views"`
	Applications  int64     `json:"applications"`
	Registrations int64     `json:"registrations"`
	Messages      int64     `json:"messages"`
	NewJobs       int64     `json:"new_jobs"`
}

// All lists every model for AutoMigrate
func All() []any {
	return []any{
		&Prefecture{}, &Feature{}, &User{}, &Company{}, &Job{},
		&Favorite{}, &Application{}, &ApplicationEvent{},
		&ChatRoom{}, &ChatMessage{}, &Column{}, &Interview{},
		&Upload{}, &JobView{}, &DailyStat{},
	}
}
