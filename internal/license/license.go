// Package license manages the company's published permits and their scans.
package license

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
	ErrConflict = errors.New("conflict")
)

type Category string

const (
	Surveying    Category = "surveying"
	Construction Category = "construction"
	Other        Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case Surveying, Construction, Other:
		return true
	}
	return false
}

const dateLayout = "2006-01-02"

// Date is a calendar day encoded as YYYY-MM-DD.
type Date struct{ time.Time }

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalid, s)
	}
	return Date{t}, nil
}

func (d Date) String() string { return d.Format(dateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	v, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

type License struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Number      string    `json:"number"`
	Category    Category  `json:"category"`
	Description string    `json:"description"`
	FileKey     string    `json:"file_key,omitempty"`
	IssuedDate  Date      `json:"issued_date"`
	ValidUntil  *Date     `json:"valid_until"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewLicense() License {
	return License{Category: Other, IsActive: true}
}

// Expired reports whether the license lapsed before day.
func (l License) Expired(day time.Time) bool {
	return l.ValidUntil != nil && !l.ValidUntil.IsZero() && l.ValidUntil.Before(day.Truncate(24*time.Hour))
}

// FileKey is where the scan for this license lives in the blob store.
func FileKey(c Category, filename string) string {
	return "licenses/" + string(c) + "/" + filename
}

func (l License) Validate() error {
	var p []string
	if strings.TrimSpace(l.Title) == "" {
		p = append(p, "title is required")
	}
	if strings.TrimSpace(l.Number) == "" {
		p = append(p, "number is required")
	}
	if !l.Category.Valid() {
		p = append(p, fmt.Sprintf("unknown category %q", l.Category))
	}
	if l.IssuedDate.IsZero() {
		p = append(p, "issued_date is required")
	}
	if l.ValidUntil != nil && !l.ValidUntil.IsZero() && l.ValidUntil.Before(l.IssuedDate.Time) {
		p = append(p, "valid_until is before issued_date")
	}
	if len(p) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(p, "; "))
}
