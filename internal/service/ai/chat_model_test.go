package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubridge/tutor/backend/internal/model/chat"
	"github.com/edubridge/tutor/backend/internal/service/ai"
)

type fakeChatModel struct {
	reply string
	err   error
	input []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func TestChatModelResponderBuildsTutorPrompt(t *testing.T) {
	fake := &fakeChatModel{reply: "Verbs are Action words!"}
	responder, err := ai.NewChatModelResponder(context.Background(), fake)
	require.NoError(t, err)

	reply, err := responder.Respond(context.Background(), ai.NewQuery("what is a verb", chat.Telugu))
	require.NoError(t, err)

	assert.Equal(t, "Verbs are Action words!", reply.Text)
	assert.Equal(t, ai.SourceChat, reply.Source)
	assert.Equal(t, []string{"Verbs", "Action"}, reply.Concepts)

	require.Len(t, fake.input, 2)
	assert.Equal(t, schema.System, fake.input[0].Role)
	assert.Contains(t, fake.input[0].Content, "You are EduBridge")
	assert.Contains(t, fake.input[0].Content, "- Subject: language")
	assert.Contains(t, fake.input[0].Content, "Telugu")
	assert.Equal(t, schema.User, fake.input[1].Role)
	assert.Equal(t, "what is a verb", fake.input[1].Content)
}

func TestChatModelResponderWrapsModelErrors(t *testing.T) {
	responder, err := ai.NewChatModelResponder(context.Background(), &fakeChatModel{err: errors.New("quota exceeded")})
	require.NoError(t, err)

	_, err = responder.Respond(context.Background(), ai.NewQuery("hello", chat.English))
	require.ErrorIs(t, err, ai.ErrNetworkFailure)
}
