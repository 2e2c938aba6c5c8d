package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/edubridge/tutor/backend/internal/analysis/tone"
	"github.com/edubridge/tutor/backend/internal/analysis/topic"
	"github.com/edubridge/tutor/backend/internal/config"
	"github.com/edubridge/tutor/backend/internal/model/chat"
	speechmodel "github.com/edubridge/tutor/backend/internal/model/speech"
	"github.com/edubridge/tutor/backend/internal/service/ai"
	"github.com/edubridge/tutor/backend/pkg/log"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := log.Init(cfg.Log.Level, "console"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	if envErr != nil {
		log.Warnf("no .env file loaded, using system environment variables: %v", envErr)
	}

	mode := flag.String("mode", "reply", "test mode: reply or translate")
	text := flag.String("text", "", "question to ask, or text to translate")
	lang := flag.String("lang", "en", "language code (en, hi, ta, te)")
	target := flag.String("to", "", "translate mode: target language code")
	static := flag.Bool("static", false, "reply mode: skip configured models and use the canned table")
	timeout := flag.Duration("timeout", 45*time.Second, "request timeout")

	flag.Parse()

	if strings.TrimSpace(*text) == "" {
		flag.Usage()
		log.Fatal("missing input", fmt.Errorf("-text is required"))
	}

	language, ok := chat.ParseLanguage(*lang)
	if !ok {
		log.Fatal("unsupported language", fmt.Errorf("%q", *lang))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *mode {
	case "reply":
		runReply(ctx, cfg, *text, language, *static)
	case "translate":
		runTranslate(ctx, cfg, *text, language, *target)
	default:
		flag.Usage()
		log.Fatal("unknown mode", fmt.Errorf("%q, use -mode=reply or -mode=translate", *mode))
	}
}

func runReply(ctx context.Context, cfg *config.Config, text string, lang chat.Language, staticOnly bool) {
	static := ai.NewStaticResponder(topic.DefaultSelector(), 0, 0)

	var responder ai.Responder = static
	if !staticOnly {
		responder = ai.BuildResponder(ctx, cfg, static, nil)
	}

	log.Infow("asking", "language", lang, "text", text)
	start := time.Now()
	reply, err := ai.NewService(responder, nil).Respond(ctx, ai.NewQuery(text, lang))
	if err != nil {
		log.Fatal("reply failed", err)
	}

	printJSON(map[string]any{
		"reply":   reply,
		"elapsed": time.Since(start).String(),
		"voice":   speechmodel.ResolveProfile(lang),
		"tone":    tone.Analyze(text, reply.Text),
	})
}

func runTranslate(ctx context.Context, cfg *config.Config, text string, from chat.Language, rawTarget string) {
	to, ok := chat.ParseLanguage(rawTarget)
	if !ok {
		log.Fatal("unsupported target language", fmt.Errorf("%q", rawTarget))
	}

	translator := ai.BuildTranslator(cfg.Model)
	if !translator.Enabled() {
		log.Warnf("TRANSLATION_ENDPOINT is not set, text will be echoed back")
	}

	out, translated := translator.Translate(ctx, text, from, to)
	printJSON(map[string]any{
		"text":       out,
		"from":       from,
		"to":         to,
		"translated": translated,
	})
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal("failed to write output", err)
	}
}
