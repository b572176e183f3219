package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/unicover/unicover-lms/internal/course"
	"github.com/unicover/unicover-lms/internal/lang"
	"github.com/unicover/unicover-lms/internal/rbac"
)

func key(ids ...int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, "/")
}

// GET /api/courses?search=&status=&category=&language=&page=&page_size=
func ListCoursesHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		o := course.ListOpts{
			Q:          strings.TrimSpace(q.Get("search")),
			Status:     course.Status(q.Get("status")),
			CategoryID: queryID(r, "category"),
		}
		if l, ok := lang.Parse(q.Get("language")); ok {
			o.Language = l
		}
		o.Page, o.PageSize = pageParams(r)
		cs, total, err := d.Courses.ListCourses(r.Context(), o)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, paginate(r, d.PublicURL, total, o.Page, o.PageSize, cs))
	}
}

// GET /api/courses/{id}
// Returns the full module/lesson tree. Unpublished courses are visible to
// content editors only.
func GetCourseHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		c, err := d.Courses.GetCourse(r.Context(), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if c.Status != course.Published && !rbac.Can(r.Context(), rbac.PermContentWrite) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func CreateCourseHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := course.NewCourse()
		if !decode(w, r, &c) {
			return
		}
		c.Modules = nil
		out, err := d.Courses.CreateCourse(r.Context(), c)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		d.changed(r, "course.created", key(out.ID), out)
		writeJSON(w, http.StatusCreated, out)
	}
}

func UpdateCourseHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		c, err := d.Courses.GetCourse(r.Context(), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if !decode(w, r, &c) {
			return
		}
		c.ID = id
		c.Modules = nil
		out, err := d.Courses.UpdateCourse(r.Context(), c)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		d.changed(r, "course.updated", key(id), out)
		writeJSON(w, http.StatusOK, out)
	}
}

func DeleteCourseHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		if err := d.Courses.DeleteCourse(r.Context(), id); err != nil {
			writeErr(w, r, err)
			return
		}
		d.changed(r, "course.deleted", key(id), nil)
		w.WriteHeader(http.StatusNoContent)
	}
}

/* -------------------------------- categories -------------------------------- */

func ListCategoriesHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cs, err := d.Courses.ListCategories(r.Context(), queryBool(r, "is_active"))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cs)
	}
}

func GetCategoryHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		c, err := d.Courses.GetCategory(r.Context(), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func CreateCategoryHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := course.Category{IsActive: true}
		if !decode(w, r, &c) {
			return
		}
		out, err := d.Courses.CreateCategory(r.Context(), c)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		d.changed(r, "category.created", key(out.ID), out)
		writeJSON(w, http.StatusCreated, out)
	}
}

func UpdateCategoryHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		c, err := d.Courses.GetCategory(r.Context(), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if !decode(w, r, &c) {
			return
		}
		c.ID = id
		out, err := d.Courses.UpdateCategory(r.Context(), c)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		d.changed(r, "category.updated", key(id), out)
		writeJSON(w, http.StatusOK, out)
	}
}

func DeleteCategoryHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		if err := d.Courses.DeleteCategory(r.Context(), id); err != nil {
			writeErr(w, r, err)
			return
		}
		d.changed(r, "category.deleted", key(id), nil)
		w.WriteHeader(http.StatusNoContent)
	}
}

/* ---------------------------------- modules --------------------------------- */

func ListModulesHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, ok := idParam(w, r, "courseID")
		if !ok {
			return
		}
		ms, err := d.Courses.ListModules(r.Context(), courseID)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if ms == nil {
			ms = []course.Module{}
		}
		writeJSON(w, http.StatusOK, ms)
	}
}

func GetModuleHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, ok := idParam(w, r, "courseID")
		if !ok {
			return
		}
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		m, err := d.Courses.GetModule(r.Context(), courseID, id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func CreateModuleHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, ok := idParam(w, r, "courseID")
		if !ok {
			return
		}
		m := course.NewModule()
		if !decode(w, r, &m) {
			return
		}
		out, err := d.Courses.CreateModule(r.Context(), courseID, m)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		d.changed(r, "module.created", key(courseID, out.ID), out)
		writeJSON(w, http.StatusCreated, out)
	}
}

func UpdateModuleHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, ok := idParam(w, r, "courseID")
		if !ok {
			return
		}
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		m, err := d.Courses.GetModule(r.Context(), courseID, id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if !decode(w, r, &m) {
			return
		}
		m.ID = id
		out, err := d.Courses.UpdateModule(r.Context(), courseID, m)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		d.changed(r, "module.updated", key(courseID, id), out)
		writeJSON(w, http.StatusOK, out)
	}
}

func DeleteModuleHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, ok := idParam(w, r, "courseID")
		if !ok {
			return
		}
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		if err := d.Courses.DeleteModule(r.Context(), courseID, id); err != nil {
			writeErr(w, r, err)
			return
		}
		d.changed(r, "module.deleted", key(courseID, id), nil)
		w.WriteHeader(http.StatusNoContent)
	}
}

/* ---------------------------------- lessons --------------------------------- */

func ListLessonsHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		moduleID, ok := idParam(w, r, "moduleID")
		if !ok {
			return
		}
		ls, err := d.Courses.ListLessons(r.Context(), moduleID)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if ls == nil {
			ls = []course.Lesson{}
		}
		writeJSON(w, http.StatusOK, ls)
	}
}

func GetLessonHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		moduleID, ok := idParam(w, r, "moduleID")
		if !ok {
			return
		}
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		l, err := d.Courses.GetLesson(r.Context(), moduleID, id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func CreateLessonHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		moduleID, ok := idParam(w, r, "moduleID")
		if !ok {
			return
		}
		l := course.NewLesson()
		if !decode(w, r, &l) {
			return
		}
		out, err := d.Courses.CreateLesson(r.Context(), moduleID, l)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		d.changed(r, "lesson.created", key(moduleID, out.ID), out)
		writeJSON(w, http.StatusCreated, out)
	}
}

func UpdateLessonHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		moduleID, ok := idParam(w, r, "moduleID")
		if !ok {
			return
		}
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		l, err := d.Courses.GetLesson(r.Context(), moduleID, id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if !decode(w, r, &l) {
			return
		}
		l.ID = id
		out, err := d.Courses.UpdateLesson(r.Context(), moduleID, l)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		d.changed(r, "lesson.updated", key(moduleID, id), out)
		writeJSON(w, http.StatusOK, out)
	}
}

func DeleteLessonHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		moduleID, ok := idParam(w, r, "moduleID")
		if !ok {
			return
		}
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		if err := d.Courses.DeleteLesson(r.Context(), moduleID, id); err != nil {
			writeErr(w, r, err)
			return
		}
		d.changed(r, "lesson.deleted", key(moduleID, id), nil)
		w.WriteHeader(http.StatusNoContent)
	}
}
