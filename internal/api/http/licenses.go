package http

import (
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/unicover/unicover-lms/internal/license"
)

const maxUpload = 32 << 20

func listLicenses(d *Deps, w http.ResponseWriter, r *http.Request, activeOnly bool) {
	c := license.Category(r.URL.Query().Get("category"))
	if c != "" && !c.Valid() {
		writeDetail(w, http.StatusBadRequest, "unknown category")
		return
	}
	ls, err := d.Licenses.Store.List(r.Context(), c, activeOnly)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if ls == nil {
		ls = []license.License{}
	}
	writeJSON(w, http.StatusOK, ls)
}

// GET /api/licenses?category=  active licenses only
func PublicLicensesHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { listLicenses(d, w, r, true) }
}

func AdminLicensesHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { listLicenses(d, w, r, queryBool(r, "is_active")) }
}

// GET /api/licenses/{id}/file streams the scan of an active license.
func LicenseFileHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		l, err := d.Licenses.Store.Get(r.Context(), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if !l.IsActive || l.FileKey == "" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		rc, name, err := d.Licenses.Open(r.Context(), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		defer rc.Close()
		ct := mime.TypeByExtension(path.Ext(name))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": name}))
		_, _ = io.Copy(w, rc)
	}
}

func GetLicenseHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		l, err := d.Licenses.Store.Get(r.Context(), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func CreateLicenseHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := license.NewLicense()
		if !decode(w, r, &l) {
			return
		}
		l.FileKey = ""
		out, err := d.Licenses.Store.Create(r.Context(), l)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		d.changed(r, "license.created", key(out.ID), out)
		writeJSON(w, http.StatusCreated, out)
	}
}

func UpdateLicenseHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		l, err := d.Licenses.Store.Get(r.Context(), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if !decode(w, r, &l) {
			return
		}
		l.ID = id
		out, err := d.Licenses.Store.Update(r.Context(), l)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		d.changed(r, "license.updated", key(id), out)
		writeJSON(w, http.StatusOK, out)
	}
}

func DeleteLicenseHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		if err := d.Licenses.Delete(r.Context(), id); err != nil {
			writeErr(w, r, err)
			return
		}
		d.changed(r, "license.deleted", key(id), nil)
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /api/admin/licenses/{id}/file  multipart, field "file"
func UploadLicenseFileHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()
		out, err := d.Licenses.Upload(r.Context(), id, hdr.Filename, f)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		d.changed(r, "license.file", key(id), map[string]string{"file_key": out.FileKey})
		writeJSON(w, http.StatusOK, out)
	}
}
