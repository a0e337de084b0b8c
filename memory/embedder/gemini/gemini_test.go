package gemini_test

import (
	"context"
	"os"
	"testing"

	"github.com/becomeliminal/nim-recall/memory/embedder/gemini"
	"github.com/m-mizutani/gt"
)

func TestNewValidates(t *testing.T) {
	_, err := gemini.New(context.Background(), "", 8)
	gt.Error(t, err)

	_, err = gemini.New(context.Background(), "key", 0)
	gt.Error(t, err)
}

func TestWithModel(t *testing.T) {
	ctx := context.Background()
	e, err := gemini.New(ctx, "key", 8)
	gt.NoError(t, err)
	gt.Equal(t, e.Model(), gemini.DefaultModel)

	e, err = gemini.New(ctx, "key", 8, gemini.WithModel("text-embedding-004"))
	gt.NoError(t, err)
	gt.Equal(t, e.Model(), "text-embedding-004")
}

func TestEmbed(t *testing.T) {
	apiKey, ok := os.LookupEnv("TEST_GEMINI_API_KEY")
	if !ok {
		t.Skip("TEST_GEMINI_API_KEY is not set")
	}

	ctx := context.Background()
	e, err := gemini.New(ctx, apiKey, 256)
	gt.NoError(t, err)

	vec, err := e.Embed(ctx, "I left the keys on the kitchen table")
	gt.NoError(t, err)
	gt.A(t, vec).Length(256)
}
