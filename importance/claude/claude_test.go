package claude_test

import (
	"context"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m-mizutani/gt"

	"github.com/becomeliminal/nim-recall/importance/claude"
)

type fakeMessages struct {
	answer string
	err    error
	params anthropic.MessageNewParams
}

func (f *fakeMessages) New(_ context.Context, body anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.params = body
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{{Type: "text", Text: f.answer}},
	}, nil
}

func TestRate(t *testing.T) {
	testCases := map[string]struct {
		answer string
		want   float64
	}{
		"bare":    {answer: "7", want: 0.7},
		"wordy":   {answer: "I would rate this a 3.", want: 0.3},
		"maximum": {answer: "10", want: 1.0},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			fake := &fakeMessages{answer: tc.answer}
			r, err := claude.New("", claude.WithMessageClient(fake), claude.WithModel("test-model"))
			gt.NoError(t, err)

			got, err := r.Rate(context.Background(), "got the job offer")
			gt.NoError(t, err)
			gt.Equal(t, got, tc.want)
			gt.Equal(t, string(fake.params.Model), "test-model")
		})
	}
}

func TestRateErrors(t *testing.T) {
	ctx := context.Background()

	r, err := claude.New("", claude.WithMessageClient(&fakeMessages{answer: "no idea"}))
	gt.NoError(t, err)
	_, err = r.Rate(ctx, "made tea")
	gt.Error(t, err)

	r, err = claude.New("", claude.WithMessageClient(&fakeMessages{err: errors.New("overloaded")}))
	gt.NoError(t, err)
	_, err = r.Rate(ctx, "made tea")
	gt.Error(t, err)
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := claude.New("")
	gt.Error(t, err)
}
