package rewrite

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/redraft/budget"
)

// rewriteRequest is the JSON body accepted by POST /rewrite.
type rewriteRequest struct {
	Document string `json:"document"`
}

// rewriteResponse is the JSON response from POST /rewrite.
type rewriteResponse struct {
	Document string  `json:"document"`
	Report   *Report `json:"report"`
}

// Handler returns an http.Handler exposing the pipeline to hosts that hand
// over document text via HTTP instead of the file system. Each request gets
// a fresh budget from the pipeline configuration.
func (p *Pipeline) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Post("/rewrite", func(w http.ResponseWriter, req *http.Request) {
		var in rewriteRequest
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			http.Error(w, "decode request: "+err.Error(), http.StatusBadRequest)
			return
		}

		b := budget.New(p.cfg.TextLimit, p.cfg.ImageLimit)
		out, rep, err := p.Process(req.Context(), in.Document, b)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rewriteResponse{Document: out, Report: rep})
	})

	return r
}
