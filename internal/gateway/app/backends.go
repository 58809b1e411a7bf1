package app

import (
	"github.com/apex/log"

	"modelarena/internal/catalog"
	"modelarena/internal/gateway/config"
	"modelarena/internal/provider"
)

// buildBackends creates one decorated Backend per catalog backend. A backend
// without credentials is still registered; its calls fail with a
// configuration error per model.
func buildBackends(cfg config.UpstreamConfig, logger log.Interface, obs provider.Observer) map[catalog.Backend]provider.Backend {
	raw := map[catalog.Backend]provider.Backend{
		catalog.BackendHuggingFace: provider.NewHuggingFace(cfg.HuggingFaceToken, cfg.HuggingFaceBaseURL, cfg.Timeout),
		catalog.BackendGroq:        provider.NewGroq(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.Timeout),
		catalog.BackendGemini:      provider.NewGemini(cfg.GeminiAPIKey),
	}

	out := make(map[catalog.Backend]provider.Backend, len(raw))
	for name, b := range raw {
		var throttle provider.Middleware
		if t, ok := cfg.Throttle[name]; ok {
			throttle = provider.Throttle(t.RPS, t.Burst)
		}
		out[name] = provider.Wrap(b,
			provider.WithLogging(logger),
			provider.Observe(obs),
			throttle,
		)
	}
	return out
}
