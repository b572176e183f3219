package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/unicover/unicover-lms/internal/cache"
	"github.com/unicover/unicover-lms/internal/course"
	"github.com/unicover/unicover-lms/internal/lang"
	"github.com/unicover/unicover-lms/internal/testbank"
)

// cached serves the body stored under the request's catalog key, or builds,
// stores and serves it. Cache errors degrade to an uncached response.
func cached(d *Deps, w http.ResponseWriter, r *http.Request, l lang.Code, build func() (any, error)) {
	k := cache.CatalogKey(r.URL.Path, r.URL.Query(), string(l))
	if b, ok, err := d.Cache.Get(r.Context(), k); err != nil {
		log.Printf("cache: get %s: %v", k, err)
	} else if ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		_, _ = w.Write(b)
		return
	}
	v, err := build()
	if err != nil {
		writeErr(w, r, err)
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	b = append(b, '\n')
	if err := d.Cache.Set(r.Context(), k, b, d.CacheTTL); err != nil {
		log.Printf("cache: set %s: %v", k, err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	_, _ = w.Write(b)
}

type catalogCourse struct {
	ID               int64         `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	CategoryID       *int64        `json:"category"`
	Duration         int           `json:"duration"`
	Format           course.Format `json:"format"`
	Language         lang.Code     `json:"language"`
	HasTimer         bool          `json:"has_timer"`
	TimerMinutes     *int          `json:"timer_minutes"`
	IsStandaloneTest bool          `json:"is_standalone_test"`
}

type catalogTest struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	CategoryID     *int64    `json:"category_id"`
	Language       lang.Code `json:"language"`
	PassingScore   int       `json:"passing_score"`
	TimeLimit      *int      `json:"time_limit"`
	QuestionsCount int       `json:"questions_count"`
}

type catalogCategory struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Order       int    `json:"order"`
}

// GET /api/catalog/courses?lang=&category=&search=&page=&page_size=
// Published courses with titles in the requested language. ?lang= also
// filters by the course language; Accept-Language only localizes.
func CatalogCoursesHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := lang.FromRequest(r, d.DefaultLang)
		cached(d, w, r, l, func() (any, error) {
			o := course.ListOpts{
				Q:          strings.TrimSpace(r.URL.Query().Get("search")),
				Status:     course.Published,
				CategoryID: queryID(r, "category"),
			}
			if fl, ok := lang.Parse(r.URL.Query().Get("lang")); ok {
				o.Language = fl
			}
			o.Page, o.PageSize = pageParams(r)
			cs, total, err := d.Courses.ListCourses(r.Context(), o)
			if err != nil {
				return nil, err
			}
			out := make([]catalogCourse, 0, len(cs))
			for _, c := range cs {
				out = append(out, catalogCourse{
					ID: c.ID, Title: c.LocalizedTitle(l), Description: c.LocalizedDescription(l),
					CategoryID: c.CategoryID, Duration: c.Duration, Format: c.Format, Language: c.Language,
					HasTimer: c.HasTimer, TimerMinutes: c.TimerMinutes, IsStandaloneTest: c.IsStandaloneTest,
				})
			}
			return paginate(r, d.PublicURL, total, o.Page, o.PageSize, out), nil
		})
	}
}

// GET /api/catalog/tests?lang=&category=&page=&page_size=
func CatalogTestsHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := lang.FromRequest(r, d.DefaultLang)
		cached(d, w, r, l, func() (any, error) {
			o := testbank.ListOpts{
				CategoryID: queryID(r, "category"),
				Standalone: true,
				ActiveOnly: true,
			}
			if fl, ok := lang.Parse(r.URL.Query().Get("lang")); ok {
				o.Language = fl
			}
			o.Page, o.PageSize = pageParams(r)
			ts, total, err := d.Tests.ListTests(r.Context(), o)
			if err != nil {
				return nil, err
			}
			out := make([]catalogTest, 0, len(ts))
			for _, t := range ts {
				out = append(out, catalogTest{
					ID: t.ID, Title: t.LocalizedTitle(l), CategoryID: t.CategoryID, Language: t.Language,
					PassingScore: t.PassingScore, TimeLimit: t.TimeLimit, QuestionsCount: t.QuestionsCount,
				})
			}
			return paginate(r, d.PublicURL, total, o.Page, o.PageSize, out), nil
		})
	}
}

// GET /api/catalog/categories
func CatalogCategoriesHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := lang.FromRequest(r, d.DefaultLang)
		cached(d, w, r, l, func() (any, error) {
			cs, err := d.Courses.ListCategories(r.Context(), true)
			if err != nil {
				return nil, err
			}
			out := make([]catalogCategory, 0, len(cs))
			for _, c := range cs {
				out = append(out, catalogCategory{ID: c.ID, Name: c.LocalizedName(l), Description: c.Description, Icon: c.Icon, Order: c.Order})
			}
			return out, nil
		})
	}
}
