package domain

import "time"

// Department is a municipal unit that owns one report category.
type Department struct {
	ID        int64     `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	Category  string    `db:"category"   json:"category"`
	Email     string    `db:"email"      json:"email"`
	Active    bool      `db:"active"     json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Notification is an in-app message for a department admin about a newly
// routed report.
type Notification struct {
	ID        int64     `db:"id"         json:"id"`
	UserID    int64     `db:"user_id"    json:"user_id"`
	ReportID  string    `db:"report_id"  json:"report_id"`
	Title     string    `db:"title"      json:"title"`
	Message   string    `db:"message"    json:"message"`
	Read      bool      `db:"read"       json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
