package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/artpar/zacre/app"
	"github.com/artpar/zacre/domain/apperr"
	"github.com/artpar/zacre/domain/layout"
	"github.com/artpar/zacre/domain/page"
	"github.com/artpar/zacre/pkg/envelope"
	"github.com/artpar/zacre/web"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperr.Validation("Failed to read request body")
	}
	if len(body) == 0 {
		return apperr.Validation("Request body is required")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apperr.Validation("Invalid request: " + err.Error())
	}
	return nil
}

func writeUnauthorized(w http.ResponseWriter) {
	envelope.WriteErrorMessage(w, http.StatusUnauthorized, "Unauthorized")
}

// queryBool parses an optional boolean filter.
func queryBool(q url.Values, key string) *bool {
	v := q.Get(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

// -----------------------------------------------------------------------------
// Layouts
// -----------------------------------------------------------------------------

func (h *handlers) listLayouts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := layout.Filter{
		ID:          q.Get("id"),
		Title:       q.Get("title"),
		Description: q.Get("description"),
		IsActive:    queryBool(q, "isActive"),
	}
	for _, m := range q["modules"] {
		for _, name := range strings.Split(m, ",") {
			if name = strings.TrimSpace(name); name != "" {
				f.Modules = append(f.Modules, name)
			}
		}
	}

	res, err := h.svc.Layouts.List(r.Context(), f, envelope.ParseParams(q, layout.SortFields, app.DefaultLayoutOrder))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	envelope.WriteList(w, res)
}

func (h *handlers) createLayout(w http.ResponseWriter, r *http.Request) {
	var in layout.CreateInput
	if err := decodeBody(r, &in); err != nil {
		envelope.WriteError(w, err)
		return
	}
	l, err := h.svc.Layouts.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	envelope.WriteItem(w, http.StatusCreated, l)
}

func (h *handlers) getLayout(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.Layouts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	envelope.WriteItem(w, http.StatusOK, l)
}

func (h *handlers) updateLayout(w http.ResponseWriter, r *http.Request) {
	var in layout.UpdateInput
	if err := decodeBody(r, &in); err != nil {
		envelope.WriteError(w, err)
		return
	}
	l, err := h.svc.Layouts.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	envelope.WriteItem(w, http.StatusOK, l)
}

func (h *handlers) deleteLayout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Layouts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	envelope.WriteMessage(w, "Layout deleted successfully")
}

// -----------------------------------------------------------------------------
// Pages
// -----------------------------------------------------------------------------

func (h *handlers) listPages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := page.Filter{
		ID:              q.Get("id"),
		URL:             q.Get("url"),
		Title:           q.Get("name"),
		Description:     q.Get("description"),
		LayoutID:        q.Get("layoutId"),
		CreatedByID:     q.Get("createdById"),
		UpdatedByID:     q.Get("updatedById"),
		Role:            q.Get("role"),
		AssignedFeature: q.Get("assignedFeature"),
		IsActive:        queryBool(q, "isActive"),
		IsLocked:        queryBool(q, "isLocked"),
	}

	res, err := h.svc.Pages.List(r.Context(), f, envelope.ParseParams(q, page.SortFields, app.DefaultPageOrder))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	envelope.WriteList(w, res)
}

func (h *handlers) createPage(w http.ResponseWriter, r *http.Request) {
	var in page.CreateInput
	if err := decodeBody(r, &in); err != nil {
		envelope.WriteError(w, err)
		return
	}
	in.CreatedByID = web.SessionFrom(r.Context()).UserID

	p, err := h.svc.Pages.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	envelope.WriteItem(w, http.StatusCreated, p)
}

func (h *handlers) getPage(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Pages.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	envelope.WriteItem(w, http.StatusOK, p)
}

func (h *handlers) updatePage(w http.ResponseWriter, r *http.Request) {
	var in page.UpdateInput
	if err := decodeBody(r, &in); err != nil {
		envelope.WriteError(w, err)
		return
	}
	in.UpdatedByID = web.SessionFrom(r.Context()).UserID

	p, err := h.svc.Pages.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	envelope.WriteItem(w, http.StatusOK, p)
}

func (h *handlers) deletePage(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Pages.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	envelope.WriteMessage(w, "Page deleted successfully")
}

// fail writes the error envelope, logging unclassified errors.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.StatusOf(err) >= http.StatusInternalServerError {
		h.logger.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	envelope.WriteError(w, err)
}
