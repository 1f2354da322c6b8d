package handlers

import "net/http"

type CatalogHandler struct {
	service CatalogService
}

func NewCatalogHandler(s CatalogService) *CatalogHandler {
	return &CatalogHandler{service: s}
}

// Search handles GET /api/catalog/search?q=&limit=
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Search(r.Context(), r.URL.Query().Get("q"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Suggestions handles GET /api/catalog/suggestions?q=&limit=
func (h *CatalogHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Suggestions(r.Context(), r.URL.Query().Get("q"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// BestSellers handles GET /api/catalog/bestsellers?limit=
func (h *CatalogHandler) BestSellers(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.BestSellers(r.Context(), queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
