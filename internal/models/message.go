package models

import "time"

// PreviewLength is the number of characters shown in list previews
const PreviewLength = 50

// Message is a free-text note from one user to another
type Message struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID    uint      `gorm:"not null;index" json:"sender_id"`
	RecipientID uint      `gorm:"not null;index" json:"recipient_id"`
	Subject     string    `gorm:"type:varchar(200)" json:"subject"`
	Body        string    `gorm:"type:text;not null" json:"body"`
	IsRead      bool      `gorm:"not null;default:false" json:"is_read"`
	SentAt      time.Time `gorm:"not null;autoCreateTime;index" json:"sent_at"`
}

// TableName specifies the table name
func (Message) TableName() string {
	return "messages"
}

// Preview returns the body truncated for list views
func (m *Message) Preview() string {
	return Preview(m.Body)
}

// Complaint is a report filed by a user, optionally against an inspector
type Complaint struct {
	ID                 uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	ReporterID         uint       `gorm:"not null;index" json:"reporter_id"`
	AgainstInspectorID *uint      `gorm:"index" json:"against_inspector_id,omitempty"`
	Message            string     `gorm:"type:text;not null" json:"message"`
	AdminResponse      string     `gorm:"type:text" json:"admin_response,omitempty"`
	Resolved           bool       `gorm:"not null;default:false;index" json:"resolved"`
	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`
	CreatedAt          time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (Complaint) TableName() string {
	return "complaints"
}

// Preview truncates text to PreviewLength runes, appending "..." when cut
func Preview(text string) string {
	r := []rune(text)
	if len(r) <= PreviewLength {
		return text
	}
	return string(r[:PreviewLength]) + "..."
}
