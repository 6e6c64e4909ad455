package ark

import (
	"context"
	"errors"
	"testing"

	"bouquet-recommender/internal/core/ai/provider"
	"bouquet-recommender/internal/pkg/common"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatModel struct {
	got   []*schema.Message
	reply *schema.Message
	err   error
	calls int
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.calls++
	f.got = input
	return f.reply, f.err
}

func TestClient_Generate(t *testing.T) {
	fake := &fakeChatModel{reply: &schema.Message{
		Role:    schema.Assistant,
		Content: `{"title":"화해"}`,
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		},
	}}
	c := &Client{model: fake, name: "doubao"}

	resp, err := c.Generate(context.Background(), &provider.Request{Messages: []provider.Message{
		{Role: provider.RoleSystem, Content: "sys"},
		{Role: provider.RoleUser, Content: "user"},
	}})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"화해"}`, resp.Content)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	require.Len(t, fake.got, 2)
	assert.Equal(t, schema.System, fake.got[0].Role)
	assert.Equal(t, schema.User, fake.got[1].Role)
}

func TestClient_Generate_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantQuota bool
	}{
		{"rate limited", errors.New("Error code: 429, RateLimitExceeded.EndpointRPMExceeded"), true},
		{"quota", errors.New("QuotaExceeded: account quota exhausted"), true},
		{"generic", errors.New("context deadline exceeded"), false},
		{"id containing 429", errors.New("Error code: 500, request_id=20251742981429abc"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeChatModel{err: tt.err}
			c := &Client{model: fake}

			_, err := c.Generate(context.Background(), &provider.Request{})
			require.Error(t, err)
			assert.Equal(t, tt.wantQuota, common.IsQuotaError(err))
			assert.Equal(t, 1, fake.calls)
		})
	}
}

func TestClient_Generate_NilReply(t *testing.T) {
	c := &Client{model: &fakeChatModel{}}
	_, err := c.Generate(context.Background(), &provider.Request{})
	assert.ErrorIs(t, err, common.ErrGenerationFailed)
}
