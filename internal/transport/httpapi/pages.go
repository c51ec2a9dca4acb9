package httpapi

import (
	"errors"
	"html"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"SiteForge/internal/usecase"
)

type synthesizeRequest struct {
	Site         string `json:"site"`
	PageName     string `json:"pageName"`
	Template     string `json:"template"`
	BusinessName string `json:"businessName"`
	BrandContext string `json:"brandContext"`
	Industry     string `json:"industry"`
}

type synthesizeResponse struct {
	OK         bool   `json:"ok"`
	PageName   string `json:"pageName"`
	Score      int    `json:"score"`
	VersionTag string `json:"versionTag"`
	Attempts   int    `json:"attempts"`
}

func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.synth.Synthesize(r.Context(), usecase.SynthesisRequest{
		Site:         req.Site,
		PageName:     req.PageName,
		Template:     req.Template,
		BusinessName: s.clean(req.BusinessName),
		BrandContext: s.clean(req.BrandContext),
		Industry:     req.Industry,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSynthesizeResponse(res))
}

func toSynthesizeResponse(res usecase.SynthesisResult) synthesizeResponse {
	return synthesizeResponse{OK: true, PageName: res.PageName, Score: res.Score, VersionTag: res.VersionTag, Attempts: res.Attempts}
}

type createSiteRequest struct {
	Site         string `json:"site"`
	BusinessName string `json:"businessName"`
	BrandContext string `json:"brandContext"`
	Industry     string `json:"industry"`
	Pages        []struct {
		PageName string `json:"pageName"`
		Template string `json:"template"`
	} `json:"pages"`
}

type pageFailure struct {
	PageName string `json:"pageName"`
	Error    string `json:"error"`
	Message  string `json:"message"`
}

type createSiteResponse struct {
	OK      bool                 `json:"ok"`
	Created []synthesizeResponse `json:"created"`
	Failed  []pageFailure        `json:"failed"`
}

func (s *Server) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	var req createSiteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	bulk := usecase.BulkRequest{
		Site:         req.Site,
		BusinessName: s.clean(req.BusinessName),
		BrandContext: s.clean(req.BrandContext),
		Industry:     req.Industry,
	}
	for _, p := range req.Pages {
		bulk.Pages = append(bulk.Pages, usecase.BulkPage{PageName: p.PageName, Template: p.Template})
	}

	res, err := s.synth.CreateSite(r.Context(), bulk)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := createSiteResponse{OK: len(res.Failed) == 0, Created: []synthesizeResponse{}, Failed: []pageFailure{}}
	for _, c := range res.Created {
		out.Created = append(out.Created, toSynthesizeResponse(c))
	}
	for _, f := range res.Failed {
		_, body := errorBody(f.Err)
		out.Failed = append(out.Failed, pageFailure{PageName: f.PageName, Error: body.Error, Message: body.Message})
	}
	writeJSON(w, http.StatusOK, out)
}

type saveRequest struct {
	Site               string `json:"site"`
	Page               string `json:"page"`
	HTML               string `json:"html"`
	ExpectedVersionTag string `json:"expectedVersionTag"`
}

type saveResponse struct {
	OK         bool     `json:"ok"`
	VersionTag string   `json:"versionTag"`
	Enhanced   bool     `json:"enhanced"`
	SchemaType string   `json:"schemaType,omitempty"`
	Changes    []string `json:"changes"`
	HTML       string   `json:"html,omitempty"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.pages.Save(r.Context(), usecase.SaveRequest{
		Site:               req.Site,
		Page:               req.Page,
		HTML:               req.HTML,
		ExpectedVersionTag: strings.Trim(req.ExpectedVersionTag, `"`),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := saveResponse{
		OK:         true,
		VersionTag: res.VersionTag,
		Enhanced:   res.Enhanced,
		SchemaType: res.SchemaType,
		Changes:    res.Changes,
	}
	if res.Enhanced {
		out.HTML = res.HTML
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	art, err := s.pages.Fetch(r.Context(), chi.URLParam(r, "site"), chi.URLParam(r, "env"), chi.URLParam(r, "page"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	etag := `"` + art.VersionTag + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", art.ContentType)
	if !art.UpdatedAt.IsZero() {
		w.Header().Set("Last-Modified", art.UpdatedAt.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(art.Body); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		s.logger.Debug("write page body", "error", err)
	}
}

// clean strips markup from free text before it reaches a prompt.
func (s *Server) clean(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.text.Sanitize(text)))
}
