// Package contact handles messages left through the public contact form.
package contact

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
)

type Direction string

const (
	Construction Direction = "construction"
	Engineering  Direction = "engineering"
	Education    Direction = "education"
	Safety       Direction = "safety"
	Other        Direction = "other"
)

// label is the Russian caption shown to staff in notifications.
func (d Direction) label() string {
	switch d {
	case Construction:
		return "Строительство"
	case Engineering:
		return "Инженерия"
	case Education:
		return "Обучение"
	case Safety:
		return "Промышленная безопасность"
	case Other:
		return "Другое"
	}
	return "не указано"
}

type Status string

const (
	StatusNew      Status = "new"
	StatusRead     Status = "read"
	StatusReplied  Status = "replied"
	StatusArchived Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusRead, StatusReplied, StatusArchived:
		return true
	}
	return false
}

type Message struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Company   string    `json:"company"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Direction Direction `json:"direction"`
	Message   string    `json:"message"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var phoneRe = regexp.MustCompile(`^\+?[0-9 ()\-]{6,20}$`)

// Normalize trims user input in place.
func (m *Message) Normalize() {
	m.Name = strings.TrimSpace(m.Name)
	m.Company = strings.TrimSpace(m.Company)
	m.Email = strings.TrimSpace(m.Email)
	m.Phone = strings.TrimSpace(m.Phone)
	m.Message = strings.TrimSpace(m.Message)
	m.Direction = Direction(strings.ToLower(strings.TrimSpace(string(m.Direction))))
}

func (m Message) Validate() error {
	var p []string
	if m.Name == "" {
		p = append(p, "name is required")
	}
	if m.Email == "" {
		p = append(p, "email is required")
	} else if a, err := mail.ParseAddress(m.Email); err != nil || a.Address != m.Email {
		p = append(p, "email is not valid")
	}
	if m.Phone == "" {
		p = append(p, "phone is required")
	} else if !phoneRe.MatchString(m.Phone) {
		p = append(p, "phone is not valid")
	}
	if m.Message == "" {
		p = append(p, "message is required")
	}
	switch m.Direction {
	case "", Construction, Engineering, Education, Safety, Other:
	default:
		p = append(p, fmt.Sprintf("unknown direction %q", m.Direction))
	}
	if len(p) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(p, "; "))
}
