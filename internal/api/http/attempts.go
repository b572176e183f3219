package http

import (
	"net"
	"net/http"

	"github.com/unicover/unicover-lms/internal/attempt"
	authmw "github.com/unicover/unicover-lms/internal/auth/middleware"
	"github.com/unicover/unicover-lms/internal/rbac"
)

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// ownAttempt loads an attempt the caller may see: their own, or anyone's
// with attempts:view. Other users' attempts are reported as missing.
func ownAttempt(d *Deps, w http.ResponseWriter, r *http.Request, writable bool) (attempt.Attempt, bool) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return attempt.Attempt{}, false
	}
	a, err := d.Attempts.Store.Get(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return attempt.Attempt{}, false
	}
	mine := a.UserID == authmw.SubjectFromContext(r.Context())
	if !mine && (writable || !rbac.Can(r.Context(), rbac.PermAttemptsView)) {
		http.Error(w, "not found", http.StatusNotFound)
		return attempt.Attempt{}, false
	}
	return a, true
}

func writeAttempts(w http.ResponseWriter, r *http.Request, as []attempt.Attempt, err error) {
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if as == nil {
		as = []attempt.Attempt{}
	}
	writeJSON(w, http.StatusOK, as)
}

// POST /api/exams/start  {"test_id": 1}
func StartAttemptHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TestID int64 `json:"test_id"`
		}
		if !decode(w, r, &req) {
			return
		}
		if req.TestID <= 0 {
			writeDetail(w, http.StatusBadRequest, "test_id is required")
			return
		}
		a, err := d.Attempts.Start(r.Context(), req.TestID, authmw.SubjectFromContext(r.Context()), clientIP(r), r.UserAgent())
		if err != nil {
			writeErr(w, r, err)
			return
		}
		d.record(r, "attempt.started", key(a.ID), map[string]int64{"test_id": a.TestID})
		writeJSON(w, http.StatusCreated, a)
	}
}

// GET /api/exams/my_attempts?test_id=
func MyAttemptsHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		as, err := d.Attempts.Store.List(r.Context(), attempt.ListOpts{
			UserID: authmw.SubjectFromContext(r.Context()),
			TestID: queryID(r, "test_id"),
		})
		writeAttempts(w, r, as, err)
	}
}

// GET /api/exams/test_attempts?test_id=  the caller's attempts on one test
func TestAttemptsHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testID := queryID(r, "test_id")
		if testID == 0 {
			writeDetail(w, http.StatusBadRequest, "test_id is required")
			return
		}
		as, err := d.Attempts.Store.List(r.Context(), attempt.ListOpts{
			UserID: authmw.SubjectFromContext(r.Context()),
			TestID: testID,
		})
		writeAttempts(w, r, as, err)
	}
}

// GET /api/exams?user=&test_id=
func ListAttemptsHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		as, err := d.Attempts.Store.List(r.Context(), attempt.ListOpts{
			UserID: r.URL.Query().Get("user"),
			TestID: queryID(r, "test_id"),
		})
		writeAttempts(w, r, as, err)
	}
}

func GetAttemptHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := ownAttempt(d, w, r, false)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// POST /api/exams/{id}/save  {"answers": {...}}
func SaveAnswersHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := ownAttempt(d, w, r, true)
		if !ok {
			return
		}
		var req struct {
			Answers map[string]any `json:"answers"`
		}
		if !decode(w, r, &req) {
			return
		}
		out, err := d.Attempts.Store.SaveAnswers(r.Context(), a.ID, req.Answers)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// POST /api/exams/{id}/submit  {"answers": {...}}; an empty body submits the
// saved answers.
func SubmitAttemptHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := ownAttempt(d, w, r, true)
		if !ok {
			return
		}
		var req struct {
			Answers map[string]any `json:"answers"`
		}
		if r.ContentLength != 0 && !decode(w, r, &req) {
			return
		}
		out, err := d.Attempts.Submit(r.Context(), a.ID, req.Answers)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if out.Result != nil {
			d.record(r, "attempt.submitted", key(a.ID), map[string]any{
				"test_id": a.TestID, "score": out.Result.Percent, "passed": out.Result.Passed,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// POST /api/exams/extra-requests  {"test_id": 1, "reason": "..."}
func CreateExtraRequestHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req attempt.ExtraRequest
		if !decode(w, r, &req) {
			return
		}
		req.UserID = authmw.SubjectFromContext(r.Context())
		out, err := d.Attempts.RequestExtra(r.Context(), req)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		d.record(r, "extra_request.created", key(out.ID), map[string]int64{"test_id": out.TestID})
		writeJSON(w, http.StatusCreated, out)
	}
}

// GET /api/exams/extra-requests  the caller's own requests
func MyExtraRequestsHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs, err := d.Attempts.Store.ListRequests(r.Context(), "", authmw.SubjectFromContext(r.Context()))
		writeRequests(w, r, rs, err)
	}
}

// GET /api/admin/extra-requests?status=
func ListExtraRequestsHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := attempt.RequestStatus(r.URL.Query().Get("status"))
		if st != "" && !st.Valid() {
			writeDetail(w, http.StatusBadRequest, "unknown status")
			return
		}
		rs, err := d.Attempts.Store.ListRequests(r.Context(), st, "")
		writeRequests(w, r, rs, err)
	}
}

func writeRequests(w http.ResponseWriter, r *http.Request, rs []attempt.ExtraRequest, err error) {
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if rs == nil {
		rs = []attempt.ExtraRequest{}
	}
	writeJSON(w, http.StatusOK, rs)
}

// PATCH /api/admin/extra-requests/{id}  {"status": "approved", "admin_response": "..."}
func DecideExtraRequestHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		var req struct {
			Status        attempt.RequestStatus `json:"status"`
			AdminResponse string                `json:"admin_response"`
		}
		if !decode(w, r, &req) {
			return
		}
		out, err := d.Attempts.Store.DecideRequest(r.Context(), id, req.Status, req.AdminResponse, actor(r))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		d.record(r, "extra_request.decided", key(id), map[string]string{"status": string(out.Status)})
		writeJSON(w, http.StatusOK, out)
	}
}
