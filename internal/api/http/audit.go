package http

import (
	"net/http"
	"strconv"
)

// GET /api/admin/audit?since=<seq>&type=&limit=
func ListAuditHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		since, _ := strconv.ParseInt(q.Get("since"), 10, 64)
		limit, _ := strconv.Atoi(q.Get("limit"))
		evs, err := d.Audit.List(r.Context(), since, q.Get("type"), limit)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, evs)
	}
}
