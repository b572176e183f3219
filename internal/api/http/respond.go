package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/unicover/unicover-lms/internal/attempt"
	authmw "github.com/unicover/unicover-lms/internal/auth/middleware"
	"github.com/unicover/unicover-lms/internal/contact"
	"github.com/unicover/unicover-lms/internal/course"
	"github.com/unicover/unicover-lms/internal/license"
	"github.com/unicover/unicover-lms/internal/storage"
	"github.com/unicover/unicover-lms/internal/testbank"
)

const maxBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail sends a DRF-style {"detail": ...} body.
func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// decode reads a JSON body into v, which may already hold defaults.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, "bad json: "+err.Error())
		return false
	}
	return true
}

// writeErr maps the domain sentinels onto status codes. Anything else is
// logged and reported as a 500.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, testbank.ErrNotFound), errors.Is(err, course.ErrNotFound),
		errors.Is(err, contact.ErrNotFound), errors.Is(err, license.ErrNotFound),
		errors.Is(err, storage.ErrNotFound), errors.Is(err, authmw.ErrUserNotFound),
		errors.Is(err, attempt.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, testbank.ErrInvalid), errors.Is(err, course.ErrInvalid),
		errors.Is(err, contact.ErrInvalid), errors.Is(err, license.ErrInvalid),
		errors.Is(err, attempt.ErrInvalid):
		writeDetail(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), "invalid: "))
	case errors.Is(err, testbank.ErrConflict), errors.Is(err, course.ErrConflict),
		errors.Is(err, license.ErrConflict), errors.Is(err, attempt.ErrConflict):
		writeDetail(w, http.StatusConflict, strings.TrimPrefix(err.Error(), "conflict: "))
	case errors.Is(err, attempt.ErrLimitReached), errors.Is(err, attempt.ErrCompleted):
		writeDetail(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("api: %s %s: %v", r.Method, r.URL.Path, err)
		http.Error(w, "db error", http.StatusInternalServerError)
	}
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "bad id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// queryID parses an optional numeric filter; 0 means absent.
func queryID(r *http.Request, name string) int64 {
	v, _ := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if v < 0 {
		return 0
	}
	return v
}

func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

func pageParams(r *http.Request) (page, size int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	size, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > 200 {
		size = 200
	}
	return page, size
}

// Page is the paginated list envelope.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func paginate[T any](r *http.Request, base string, count, page, size int, results []T) Page[T] {
	if results == nil {
		results = []T{}
	}
	p := Page[T]{Count: count, Results: results}
	link := func(n int) *string {
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(n))
		u := url.URL{Path: r.URL.Path, RawQuery: q.Encode()}
		s := base + u.String()
		return &s
	}
	if page*size < count {
		p.Next = link(page + 1)
	}
	if page > 1 {
		p.Previous = link(page - 1)
	}
	return p
}

func actor(r *http.Request) string {
	if s := authmw.SubjectFromContext(r.Context()); s != "" {
		return s
	}
	return "anonymous"
}
