package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/artpar/zacre/core/registry"
	"github.com/artpar/zacre/pkg/envelope"
	"github.com/artpar/zacre/web"
	"github.com/go-chi/chi/v5"
)

// moduleRequest builds the module request context for r.
func moduleRequest(r *http.Request) registry.Request {
	return registry.Request{
		Query: r.URL.Query(),
		User:  web.SessionFrom(r.Context()),
		Path:  r.URL.Path,
	}
}

// elementIDs reads the elementIds query, repeated or comma separated.
func elementIDs(r *http.Request) []string {
	var ids []string
	for _, v := range r.URL.Query()["elementIds"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func (h *handlers) moduleData(w http.ResponseWriter, r *http.Request) {
	ids := elementIDs(r)
	if len(ids) == 0 {
		envelope.WriteErrorMessage(w, http.StatusBadRequest, "Invalid request: elementIds is required")
		return
	}
	items, err := h.svc.Dispatcher.GetData(r.Context(), ids, moduleRequest(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	envelope.WriteItems(w, items)
}

func (h *handlers) moduleRender(w http.ResponseWriter, r *http.Request) {
	html, err := h.svc.Dispatcher.RenderSingle(r.Context(), chi.URLParam(r, "elementId"), r.Referer(), moduleRequest(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

func (h *handlers) moduleAction(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		envelope.WriteErrorMessage(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			envelope.WriteErrorMessage(w, http.StatusBadRequest, "Invalid request: "+err.Error())
			return
		}
	}

	res, err := h.svc.Dispatcher.ExecuteAction(r.Context(), chi.URLParam(r, "elementId"), payload, moduleRequest(r))
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("element_id", chi.URLParam(r, "elementId")).
			Msg("module action failed")
		envelope.WriteError(w, err)
		return
	}

	switch {
	case res.Redirect != nil:
		envelope.WriteRedirect(w, res.Redirect.URL, res.Redirect.Message)
	case res.Value != nil:
		envelope.WriteJSON(w, http.StatusOK, res.Value)
	default:
		envelope.WriteJSON(w, http.StatusOK, map[string]string{"status": envelope.StatusSuccess})
	}
}
