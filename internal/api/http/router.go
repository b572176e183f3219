package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/unicover/unicover-lms/internal/attempt"
	"github.com/unicover/unicover-lms/internal/audit"
	authmw "github.com/unicover/unicover-lms/internal/auth/middleware"
	"github.com/unicover/unicover-lms/internal/cache"
	"github.com/unicover/unicover-lms/internal/contact"
	"github.com/unicover/unicover-lms/internal/course"
	"github.com/unicover/unicover-lms/internal/grading"
	"github.com/unicover/unicover-lms/internal/lang"
	"github.com/unicover/unicover-lms/internal/license"
	"github.com/unicover/unicover-lms/internal/rbac"
	"github.com/unicover/unicover-lms/internal/testbank"
)

// Deps is everything the handlers need. Cache and Grader may be nil.
type Deps struct {
	Auth     *authmw.AuthService
	Users    *authmw.UserStore
	Tests    testbank.Store
	Courses  course.Store
	Contacts *contact.Service
	Licenses *license.Service
	Attempts *attempt.Service
	Audit    *audit.EventRepo

	Cache    cache.Cache
	CacheTTL time.Duration
	Grader   grading.Grader

	DefaultLang lang.Code
	PublicURL   string // prefix for next/previous links
	CORSOrigins []string
}

func (d *Deps) defaults() {
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	if d.CacheTTL <= 0 {
		d.CacheTTL = 5 * time.Minute
	}
	if d.Grader == nil {
		d.Grader = grading.NewDefaultGrader()
	}
	if !d.DefaultLang.Valid() {
		d.DefaultLang = lang.Russian
	}
}

// record appends an audit event. Failures are logged; the write itself
// already succeeded.
func (d *Deps) record(r *http.Request, typ, key string, data any) {
	if d.Audit == nil {
		return
	}
	if err := d.Audit.Record(context.WithoutCancel(r.Context()), actor(r), typ, key, data); err != nil {
		log.Printf("audit: %s %s: %v", typ, key, err)
	}
}

// changed records a content write and drops cached catalog pages.
func (d *Deps) changed(r *http.Request, typ, key string, data any) {
	d.record(r, typ, key, data)
	if err := d.Cache.DeletePrefix(context.WithoutCancel(r.Context()), cache.CatalogPrefix); err != nil {
		log.Printf("cache: invalidate: %v", err)
	}
}

// NewRouter wires the public site API and the admin API. Paths are
// registered without trailing slashes; StripSlashes makes the DRF style
// "/api/tests/" resolve to the same routes.
func NewRouter(d Deps) http.Handler {
	d.defaults()

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.StripSlashes)
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Accept-Language"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authmw.LoginHandler(d.Auth, d.Users))

		// Public site.
		r.Get("/catalog/courses", CatalogCoursesHandler(&d))
		r.Get("/catalog/tests", CatalogTestsHandler(&d))
		r.Get("/catalog/categories", CatalogCategoriesHandler(&d))
		r.Post("/contacts", SubmitContactHandler(&d))
		r.Get("/licenses", PublicLicensesHandler(&d))
		r.Get("/licenses/{id}/file", LicenseFileHandler(&d))
		r.Post("/tests/{id}/score", ScoreTestHandler(&d))

		// Reads by id are public; editors additionally see answer keys and drafts.
		r.Group(func(pr chi.Router) {
			pr.Use(authmw.OptionalJWT(d.Auth))
			pr.Get("/tests/{id}", GetTestHandler(&d))
			pr.Get("/courses/{id}", GetCourseHandler(&d))
		})

		r.Group(func(pr chi.Router) {
			pr.Use(authmw.JWTMiddleware(d.Auth))
			pr.Use(authmw.AttachRoleFromDB(d.Users))

			pr.With(rbac.Require(rbac.PermOwnPassword)).
				Post("/auth/password", ChangePasswordHandler(&d))

			// Tests and their questions.
			pr.Group(func(tr chi.Router) {
				tr.Use(rbac.Require(rbac.PermTestsWrite))
				tr.Get("/tests", ListTestsHandler(&d))
				tr.Post("/tests", CreateTestHandler(&d))
				tr.Put("/tests/{id}", UpdateTestHandler(&d))
				tr.Patch("/tests/{id}", UpdateTestHandler(&d))
				tr.Delete("/tests/{id}", DeleteTestHandler(&d))

				tr.Get("/tests/{testID}/questions", ListQuestionsHandler(&d))
				tr.Post("/tests/{testID}/questions", CreateQuestionHandler(&d))
				tr.Get("/tests/{testID}/questions/{id}", GetQuestionHandler(&d))
				tr.Put("/tests/{testID}/questions/{id}", UpdateQuestionHandler(&d))
				tr.Delete("/tests/{testID}/questions/{id}", DeleteQuestionHandler(&d))
			})

			// Courses, their structure and categories.
			pr.Group(func(cr chi.Router) {
				cr.Use(rbac.Require(rbac.PermContentWrite))
				cr.Get("/courses", ListCoursesHandler(&d))
				cr.Post("/courses", CreateCourseHandler(&d))
				cr.Put("/courses/{id}", UpdateCourseHandler(&d))
				cr.Patch("/courses/{id}", UpdateCourseHandler(&d))
				cr.Delete("/courses/{id}", DeleteCourseHandler(&d))

				cr.Get("/courses/categories", ListCategoriesHandler(&d))
				cr.Post("/courses/categories", CreateCategoryHandler(&d))
				cr.Get("/courses/categories/{id}", GetCategoryHandler(&d))
				cr.Put("/courses/categories/{id}", UpdateCategoryHandler(&d))
				cr.Delete("/courses/categories/{id}", DeleteCategoryHandler(&d))

				cr.Get("/courses/{courseID}/modules", ListModulesHandler(&d))
				cr.Post("/courses/{courseID}/modules", CreateModuleHandler(&d))
				cr.Get("/courses/{courseID}/modules/{id}", GetModuleHandler(&d))
				cr.Put("/courses/{courseID}/modules/{id}", UpdateModuleHandler(&d))
				cr.Delete("/courses/{courseID}/modules/{id}", DeleteModuleHandler(&d))

				cr.Get("/modules/{moduleID}/lessons", ListLessonsHandler(&d))
				cr.Post("/modules/{moduleID}/lessons", CreateLessonHandler(&d))
				cr.Get("/modules/{moduleID}/lessons/{id}", GetLessonHandler(&d))
				cr.Put("/modules/{moduleID}/lessons/{id}", UpdateLessonHandler(&d))
				cr.Delete("/modules/{moduleID}/lessons/{id}", DeleteLessonHandler(&d))
			})

			// Taking tests. Reads of a single attempt are checked per owner.
			pr.Route("/exams", func(er chi.Router) {
				er.Use(rbac.Require(rbac.PermAttemptsTake))
				er.With(rbac.Require(rbac.PermAttemptsView)).Get("/", ListAttemptsHandler(&d))
				er.Post("/start", StartAttemptHandler(&d))
				er.Get("/my_attempts", MyAttemptsHandler(&d))
				er.Get("/test_attempts", TestAttemptsHandler(&d))
				er.Get("/extra-requests", MyExtraRequestsHandler(&d))
				er.Post("/extra-requests", CreateExtraRequestHandler(&d))
				er.Get("/{id}", GetAttemptHandler(&d))
				er.Post("/{id}/save", SaveAnswersHandler(&d))
				er.Post("/{id}/submit", SubmitAttemptHandler(&d))
			})

			pr.Route("/admin", func(ar chi.Router) {
				ar.With(rbac.Require(rbac.PermContactsView)).Get("/contacts", ListContactsHandler(&d))
				ar.With(rbac.Require(rbac.PermContactsView)).Get("/contacts/{id}", GetContactHandler(&d))
				ar.With(rbac.Require(rbac.PermContactsManage)).Patch("/contacts/{id}", UpdateContactStatusHandler(&d))

				ar.Group(func(lr chi.Router) {
					lr.Use(rbac.Require(rbac.PermLicensesManage))
					lr.Get("/licenses", AdminLicensesHandler(&d))
					lr.Post("/licenses", CreateLicenseHandler(&d))
					lr.Get("/licenses/{id}", GetLicenseHandler(&d))
					lr.Put("/licenses/{id}", UpdateLicenseHandler(&d))
					lr.Delete("/licenses/{id}", DeleteLicenseHandler(&d))
					lr.Post("/licenses/{id}/file", UploadLicenseFileHandler(&d))
				})

				ar.With(rbac.Require(rbac.PermAttemptsManage)).Get("/extra-requests", ListExtraRequestsHandler(&d))
				ar.With(rbac.Require(rbac.PermAttemptsManage)).Patch("/extra-requests/{id}", DecideExtraRequestHandler(&d))

				ar.With(rbac.Require(rbac.PermAuditView)).Get("/audit", ListAuditHandler(&d))

				ar.With(rbac.Require(rbac.PermUsersManage)).Get("/users", ListUsersHandler(&d))
				ar.With(rbac.Require(rbac.PermUsersManage)).Post("/users", CreateUserHandler(&d))
			})
		})
	})
	return r
}
