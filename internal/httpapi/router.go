package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"vagahunter-engine/internal/secrets"
)

func NewRouter(d Deps) http.Handler {
	if d.SetAPIKey == nil {
		d.SetAPIKey = secrets.SetAPIKey
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog)
	r.Use(Recover)

	co := cors.Options{
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}
	if len(d.AllowedOrigins) > 0 {
		co.AllowedOrigins = d.AllowedOrigins
	} else {
		co.AllowOriginFunc = func(*http.Request, string) bool { return true }
	}
	r.Use(cors.Handler(co))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	r.Get("/health", HealthHandler{}.Health)

	jh := JobsHandler{Search: d.Search, Jobs: d.Jobs}
	r.Get("/jobs", jh.List)
	r.Post("/jobs/search", jh.SearchJobs)

	sch := ScrapeHandler{Poller: d.Poller, BaseCtx: d.BaseCtx}
	r.Get("/scrape/status", sch.Status)
	r.Post("/scrape/run", sch.Run)

	r.Get("/events", EventsHandler{Hub: d.Hub}.ServeSSE)

	ch := ConfigHandler{CfgVal: d.CfgVal, UserCfgPath: d.UserCfgPath, LoadCfg: d.LoadCfg, Reload: d.Reload}
	r.Get("/config", ch.Get)
	r.Put("/config", ch.Put)
	r.Get("/config/path", ch.Path)
	r.Get("/config/validate", ch.Validate)

	sh := SecretsHandler{CfgVal: d.CfgVal, SetAPIKey: d.SetAPIKey, Reload: d.Reload}
	r.Post("/api/secrets/ai", sh.SetAIKey)

	return r
}
