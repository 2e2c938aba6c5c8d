package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/edubridge/tutor/backend/pkg/log"
)

// ChatModelResponder answers through an eino chain: the tutor prompt
// template followed by a chat model.
type ChatModelResponder struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewChatModelResponder compiles the chain around chatModel.
func NewChatModelResponder(ctx context.Context, chatModel model.BaseChatModel) (*ChatModelResponder, error) {
	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile tutor chain: %w", err)
	}
	return &ChatModelResponder{chain: runnable}, nil
}

// Respond runs the chain once. Model errors wrap ErrNetworkFailure so the
// fallback can take over.
func (r *ChatModelResponder) Respond(ctx context.Context, q Query) (*Reply, error) {
	q = q.withDefaults()

	msg, err := r.chain.Invoke(ctx, map[string]any{
		"system": BuildSystemPrompt(q),
		"query":  q.Utterance,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: run tutor chain: %v", ErrNetworkFailure, err)
	}

	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return nil, fmt.Errorf("%w: empty chat model reply", ErrNetworkFailure)
	}

	log.Infow("chat model reply", "language", q.Language, "subject", q.Subject, "length", len(text))
	return newReply(q, text, defaultModelConfidence, SourceChat), nil
}
