package models

import "time"

// Kind tags a category of user-generated content. All kinds share the same
// CRUD contract; ordering and a few payload fields vary per kind.
type Kind string

const (
	KindChat         Kind = "chat"
	KindHomework     Kind = "homework"
	KindMaterial     Kind = "material"
	KindEssay        Kind = "essay"
	KindRating       Kind = "rating"
	KindArticle      Kind = "article"
	KindAnnouncement Kind = "announcement"
	KindSchedule     Kind = "schedule"
)

// ValidKind reports whether k is a known content kind.
func ValidKind(k Kind) bool {
	switch k {
	case KindChat, KindHomework, KindMaterial, KindEssay,
		KindRating, KindArticle, KindAnnouncement, KindSchedule:
		return true
	}
	return false
}

// ContentItem is one user-generated item of any kind. Rating is only set for
// the rating kind, EventDate only for the schedule kind, AttachmentID only
// when a file upload is linked.
type ContentItem struct {
	ID           string     `json:"id"`
	Kind         Kind       `json:"kind"`
	Owner        string     `json:"owner"`
	Title        string     `json:"title,omitempty"`
	Body         string     `json:"body"`
	Rating       int        `json:"rating,omitempty"`
	AttachmentID *string    `json:"attachmentId,omitempty"`
	EventDate    *time.Time `json:"eventDate,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Singleton is a shared key/value item such as the current book of the week,
// the site settings blob, or one word-of-the-day per date.
type Singleton struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedBy string    `json:"updatedBy"`
	UpdatedAt time.Time `json:"updatedAt"`
}
