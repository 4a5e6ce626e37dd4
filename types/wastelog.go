package types

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day serialized as "YYYY-MM-DD" in API payloads.
type Date struct {
	time.Time
}

// Today returns the current calendar day in UTC.
func Today() Date {
	return Date{time.Now().UTC().Truncate(24 * time.Hour)}
}

// NewDate builds a Date from a point in time.
func NewDate(t time.Time) Date {
	return Date{t}
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		d.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return errors.New("invalid date, expected YYYY-MM-DD")
	}
	d.Time = parsed
	return nil
}

// IsZero reports whether the date was left unset.
func (d Date) IsZero() bool {
	return d.Time.IsZero()
}

// WasteLog represents one waste event recorded by a user.
// Entries are append-only: once stored they are never updated or deleted.
type WasteLog struct {
	// ID is the unique identifier of the entry.
	ID string `json:"id" db:"id"`

	// UserID identifies the owning user. It is always taken from the
	// authenticated token subject, never from client-supplied fields.
	UserID int `json:"user_id" db:"user_id"`

	// Points is the score awarded for this event.
	Points int `json:"points" db:"points"`

	// Category is the waste category, e.g. "plastic" or "organic".
	// It is serialized as "type" for compatibility with the mobile client.
	Category string `json:"type" db:"category"`

	// Date is the calendar day the waste was logged for.
	Date Date `json:"date" db:"logged_for"`

	// CreatedAt is the append timestamp; it defines insertion order.
	CreatedAt time.Time `json:"-" db:"created_at"`
}

// UserScore is an aggregated per-user point total maintained by the
// score worker from waste-log events.
type UserScore struct {
	UserID      int    `json:"user_id" db:"user_id"`
	Username    string `json:"username" db:"username"`
	TotalPoints int    `json:"total_points" db:"total_points"`
	Entries     int    `json:"entries" db:"entries"`
}
