package models

import "time"

type Role string

const (
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
	RoleDoctor Role = "doctor"
	RolePolice Role = "police"
)

// Staff reports whether the role may read threads it does not participate in.
func (r Role) Staff() bool {
	return r == RoleAdmin || r == RoleDoctor || r == RolePolice
}

// User is created by the registration flow and read-only here.
type User struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Role      Role      `bson:"role" json:"role"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Message is immutable once appended. At least one of Text/ImageURL is set.
type Message struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	SenderID   string    `bson:"sender_id" json:"sender_id"`
	ReceiverID string    `bson:"receiver_id" json:"receiver_id"`
	Text       string    `bson:"text,omitempty" json:"text,omitempty"`
	ImageURL   string    `bson:"image_url,omitempty" json:"image_url,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// Conversation is derived from the message store, never persisted.
// Messages are most-recent-first so Messages[0] doubles as the preview.
type Conversation struct {
	CounterpartID   string     `json:"counterpart_id"`
	CounterpartName string     `json:"counterpart_name,omitempty"`
	LastAt          time.Time  `json:"last_at"`
	Messages        []*Message `json:"messages"`
}

type Report struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	ReporterID  string    `bson:"reporter_id" json:"reporter_id"`
	Category    string    `bson:"category" json:"category"`
	Urgency     string    `bson:"urgency" json:"urgency"`
	Description string    `bson:"description" json:"description"`
	PhotoURL    string    `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	Lat         float64   `bson:"lat" json:"lat"`
	Lng         float64   `bson:"lng" json:"lng"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

type Notification struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Title     string    `bson:"title" json:"title"`
	Body      string    `bson:"body" json:"body"`
	Type      string    `bson:"type" json:"type"`
	Read      bool      `bson:"read" json:"read"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
