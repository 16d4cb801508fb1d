package httpapi

import (
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/postsearch"
	"github.com/letmevibethatforyou/postsearch/service"
	"github.com/segmentio/ksuid"
)

// HandleSearch dispatches a form-encoded action request. Only the search
// action is known; any other action is rejected.
func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		s.metrics.SearchDuration.Observe(time.Since(start).Seconds())
	}()

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.metrics.SearchesTotal.WithLabelValues(outcomeBadRequest).Inc()
		s.writeFailure(w, r, http.StatusBadRequest, CodeBadRequest, "malformed form body")
		return
	}

	if action := r.PostForm.Get(postsearch.FormAction); action != postsearch.ActionSearch {
		s.metrics.SearchesTotal.WithLabelValues(outcomeBadRequest).Inc()
		s.writeFailure(w, r, http.StatusBadRequest, CodeUnknownAction, "unknown action")
		return
	}

	payload, err := s.service.Handle(r.Context(), service.RequestFromForm(r.PostForm, session(r)))
	switch {
	case errors.Is(err, postsearch.ErrInvalidNonce):
		s.metrics.SearchesTotal.WithLabelValues(outcomeInvalidNonce).Inc()
		s.logger.WarnContext(r.Context(), "rejected search with invalid nonce", "remote_addr", r.RemoteAddr)
		s.writeFailure(w, r, http.StatusForbidden, CodeInvalidNonce, "security check failed")
		return
	case err != nil:
		s.metrics.SearchesTotal.WithLabelValues(outcomeBackendFailed).Inc()
		s.writeFailure(w, r, http.StatusInternalServerError, CodeSearchFailed, "search failed")
		return
	}

	env, err := postsearch.NewSuccessEnvelope(payload)
	if err != nil {
		s.metrics.SearchesTotal.WithLabelValues(outcomeBackendFailed).Inc()
		s.logger.ErrorContext(r.Context(), "failed to build response", "error", err)
		s.writeFailure(w, r, http.StatusInternalServerError, CodeSearchFailed, "search failed")
		return
	}

	s.metrics.SearchesTotal.WithLabelValues(outcomeOK).Inc()
	s.metrics.ResultsServed.Observe(float64(len(payload.Posts)))
	s.writeJSON(w, r, http.StatusOK, env)
}

// HandleWidget returns the initial context of a new widget instance. The
// posts_per_page and post_type query parameters override the defaults.
// Visitors without a session cookie are issued one, and the widget's nonce is
// bound to it.
func (s *Server) HandleWidget(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sess := session(r)
	if sess == "" {
		sess = ksuid.New().String()
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sess,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
	}

	wc := s.service.NewWidgetContext(service.WidgetOptions{
		PostsPerPage: service.ParsePageSize(q.Get(postsearch.FormPostsPerPage), s.defaults.PostsPerPage, 0),
		PostType:     firstNonEmpty(q.Get(postsearch.FormPostType), s.defaults.PostType),
		Endpoint:     s.searchURL(r),
		Session:      sess,
	})
	s.metrics.WidgetsIssued.Inc()

	s.writeJSON(w, r, http.StatusOK, wc)
}

// HandleHealth reports liveness.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) searchURL(r *http.Request) string {
	if s.endpoint != "" {
		return s.endpoint
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/search"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
