package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/unicover/unicover-lms/internal/grading"
	"github.com/unicover/unicover-lms/internal/lang"
	"github.com/unicover/unicover-lms/internal/question"
	"github.com/unicover/unicover-lms/internal/rbac"
	"github.com/unicover/unicover-lms/internal/testbank"
)

func canEditTests(r *http.Request) bool {
	return rbac.Can(r.Context(), rbac.PermTestsWrite)
}

// Public question shapes never carry answer keys.
type publicOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type publicQuestion struct {
	ID      string         `json:"id"`
	Type    question.Type  `json:"type"`
	Text    string         `json:"text"`
	Order   int            `json:"order"`
	Weight  int            `json:"weight"`
	Options []publicOption `json:"options"`
}

type publicTest struct {
	testbank.Test
	Questions []publicQuestion `json:"questions"`
}

func stripKeys(t testbank.Test) publicTest {
	out := publicTest{Test: t, Questions: make([]publicQuestion, 0, len(t.Questions))}
	for _, q := range t.Questions {
		pq := publicQuestion{ID: q.ID, Type: q.Type, Text: q.Text, Order: q.Order, Weight: q.Weight,
			Options: make([]publicOption, 0, len(q.Options))}
		for _, o := range q.Options {
			pq.Options = append(pq.Options, publicOption{ID: o.ID, Text: o.Text})
		}
		out.Questions = append(out.Questions, pq)
	}
	return out
}

func testListOpts(r *http.Request) testbank.ListOpts {
	q := r.URL.Query()
	o := testbank.ListOpts{
		Q:          strings.TrimSpace(q.Get("search")),
		CategoryID: queryID(r, "category"),
		CourseID:   queryID(r, "course"),
		Standalone: queryBool(r, "is_standalone"),
		ActiveOnly: queryBool(r, "is_active"),
	}
	if o.Q == "" {
		o.Q = strings.TrimSpace(q.Get("q"))
	}
	if l, ok := lang.Parse(q.Get("language")); ok {
		o.Language = l
	}
	o.Page, o.PageSize = pageParams(r)
	return o
}

// GET /api/tests?search=&language=&category=&course=&is_standalone=&is_active=&page=&page_size=
func ListTestsHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o := testListOpts(r)
		tests, total, err := d.Tests.ListTests(r.Context(), o)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, paginate(r, d.PublicURL, total, o.Page, o.PageSize, tests))
	}
}

// GET /api/tests/{id}
// Anonymous and student callers get active tests only, without answer keys.
func GetTestHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		t, err := d.Tests.GetTest(r.Context(), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if canEditTests(r) {
			writeJSON(w, http.StatusOK, t)
			return
		}
		if !t.IsActive {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, stripKeys(t))
	}
}

func CreateTestHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := testbank.NewTest()
		if !decode(w, r, &t) {
			return
		}
		t.Questions = nil
		out, err := d.Tests.CreateTest(r.Context(), t)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		d.changed(r, "test.created", strconv.FormatInt(out.ID, 10), out)
		writeJSON(w, http.StatusCreated, out)
	}
}

// PUT/PATCH /api/tests/{id}
// The body is decoded over the stored record, so omitted fields keep their
// values. Questions are managed through their own endpoints.
func UpdateTestHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		t, err := d.Tests.GetTest(r.Context(), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if !decode(w, r, &t) {
			return
		}
		t.ID = id
		t.Questions = nil
		out, err := d.Tests.UpdateTest(r.Context(), t)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		d.changed(r, "test.updated", strconv.FormatInt(id, 10), out)
		writeJSON(w, http.StatusOK, out)
	}
}

func DeleteTestHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		if err := d.Tests.DeleteTest(r.Context(), id); err != nil {
			writeErr(w, r, err)
			return
		}
		d.changed(r, "test.deleted", strconv.FormatInt(id, 10), nil)
		w.WriteHeader(http.StatusNoContent)
	}
}

func ListQuestionsHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testID, ok := idParam(w, r, "testID")
		if !ok {
			return
		}
		// 404 for a missing test rather than an empty list.
		if _, err := d.Tests.GetTest(r.Context(), testID); err != nil {
			writeErr(w, r, err)
			return
		}
		qs, err := d.Tests.ListQuestions(r.Context(), testID)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if qs == nil {
			qs = []question.APIQuestion{}
		}
		writeJSON(w, http.StatusOK, qs)
	}
}

func GetQuestionHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testID, ok := idParam(w, r, "testID")
		if !ok {
			return
		}
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		q, err := d.Tests.GetQuestion(r.Context(), testID, id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

func CreateQuestionHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testID, ok := idParam(w, r, "testID")
		if !ok {
			return
		}
		var q question.APIQuestion
		if !decode(w, r, &q) {
			return
		}
		out, err := d.Tests.CreateQuestion(r.Context(), testID, q)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		d.changed(r, "question.created", strconv.FormatInt(testID, 10)+"/"+out.ID, out)
		writeJSON(w, http.StatusCreated, out)
	}
}

func UpdateQuestionHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testID, ok := idParam(w, r, "testID")
		if !ok {
			return
		}
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		var q question.APIQuestion
		if !decode(w, r, &q) {
			return
		}
		out, err := d.Tests.UpdateQuestion(r.Context(), testID, id, q)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		d.changed(r, "question.updated", strconv.FormatInt(testID, 10)+"/"+out.ID, out)
		writeJSON(w, http.StatusOK, out)
	}
}

func DeleteQuestionHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testID, ok := idParam(w, r, "testID")
		if !ok {
			return
		}
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		if err := d.Tests.DeleteQuestion(r.Context(), testID, id); err != nil {
			writeErr(w, r, err)
			return
		}
		d.changed(r, "question.deleted", strconv.FormatInt(testID, 10)+"/"+strconv.FormatInt(id, 10), nil)
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /api/tests/{id}/score  {"responses": {"<question id>": <answer>}}
// Self-check only: nothing is stored.
func ScoreTestHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		var req struct {
			Responses map[string]any `json:"responses"`
		}
		if !decode(w, r, &req) {
			return
		}
		t, err := d.Tests.GetTest(r.Context(), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if !t.IsActive {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		res := grading.ScoreTest(r.Context(), d.Grader, t.Questions, t.PassingScore, req.Responses)
		writeJSON(w, http.StatusOK, res)
	}
}
