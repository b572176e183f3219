package http

import (
	"net/http"

	"github.com/unicover/unicover-lms/internal/contact"
)

// POST /api/contacts
func SubmitContactHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m contact.Message
		if !decode(w, r, &m) {
			return
		}
		out, err := d.Contacts.Submit(r.Context(), m)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

// GET /api/admin/contacts?status=
func ListContactsHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := contact.Status(r.URL.Query().Get("status"))
		if st != "" && !st.Valid() {
			writeDetail(w, http.StatusBadRequest, "unknown status")
			return
		}
		ms, err := d.Contacts.Store.List(r.Context(), st)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if ms == nil {
			ms = []contact.Message{}
		}
		writeJSON(w, http.StatusOK, ms)
	}
}

func GetContactHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		m, err := d.Contacts.Store.Get(r.Context(), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

// PATCH /api/admin/contacts/{id}  {"status": "read"}
func UpdateContactStatusHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		var req struct {
			Status contact.Status `json:"status"`
		}
		if !decode(w, r, &req) {
			return
		}
		if !req.Status.Valid() {
			writeDetail(w, http.StatusBadRequest, "unknown status")
			return
		}
		m, err := d.Contacts.Store.SetStatus(r.Context(), id, req.Status)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		d.record(r, "contact.status", key(id), map[string]string{"status": string(m.Status)})
		writeJSON(w, http.StatusOK, m)
	}
}
