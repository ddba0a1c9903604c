package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"vagahunter-engine/internal/config"
)

type SecretsHandler struct {
	CfgVal    *atomic.Value // stores config.Config
	SetAPIKey func(provider, key string) error
	Reload    func(config.Config) error
}

type setAIKeyReq struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
}

// SetAIKey stores a model provider key. Provider defaults to ai.provider.
func (h SecretsHandler) SetAIKey(w http.ResponseWriter, r *http.Request) {
	var req setAIKeyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	if provider == "" {
		provider = cfg.AI.Provider
	}
	switch provider {
	case "gemini", "anthropic":
	default:
		WriteError(w, r, http.StatusBadRequest, "invalid_provider", "provider must be gemini or anthropic")
		return
	}

	if err := h.SetAPIKey(provider, req.APIKey); err != nil {
		WriteError(w, r, http.StatusBadRequest, "store_failed", "failed to store api key: "+err.Error())
		return
	}
	if h.Reload != nil {
		if err := h.Reload(cfg); err != nil {
			zap.L().Error("pipeline reload failed", zap.Error(err))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
