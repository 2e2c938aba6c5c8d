package ai

import (
	"context"
	"net/http"

	"github.com/edubridge/tutor/backend/internal/config"
	"github.com/edubridge/tutor/backend/internal/metrics"
	"github.com/edubridge/tutor/backend/pkg/log"
)

// BuildResponder prefers the hosted tutoring model, then the Ark chat model.
// Either one falls back to static; with neither configured static answers
// directly.
func BuildResponder(ctx context.Context, cfg *config.Config, static *StaticResponder, m *metrics.Metrics) Responder {
	if cfg.Model.Enabled() {
		log.Infow("using hosted tutoring model", "endpoint", cfg.Model.Endpoint)
		client := NewModelClient(ModelClientConfig{
			Endpoint:    cfg.Model.Endpoint,
			APIKey:      cfg.Model.APIKey,
			MaxTokens:   cfg.Model.MaxTokens,
			Temperature: cfg.Model.Temperature,
			Timeout:     cfg.Model.Timeout,
		}, nil)
		return NewFallbackResponder(client, static, m)
	}

	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Warnw("ark chat model unavailable, using static replies", "error", err)
			return static
		}
		responder, err := NewChatModelResponder(ctx, chatModel)
		if err != nil {
			log.Warnw("tutor chain unavailable, using static replies", "error", err)
			return static
		}
		log.Infow("using ark chat model", "model", cfg.AI.Model)
		return NewFallbackResponder(responder, static, m)
	}

	log.Info("no reply model configured, using static replies")
	return static
}

// BuildTranslator returns the translator for cfg; it is disabled when no
// endpoint is set.
func BuildTranslator(cfg config.ModelConfig) *Translator {
	return NewTranslator(cfg.TranslationEndpoint, cfg.APIKey, &http.Client{Timeout: cfg.Timeout})
}
