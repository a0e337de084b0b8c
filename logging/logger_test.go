package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/becomeliminal/nim-recall/logging"
	"github.com/m-mizutani/gt"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := logging.ParseLevel(tc.input)
			if tc.wantErr {
				gt.Error(t, err)
			} else {
				gt.NoError(t, err)
			}
			gt.Equal(t, got, tc.want)
		})
	}
}

func TestNewRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New(slog.LevelWarn, buf)

	logger.Info("quiet message")
	logger.Warn("loud message")

	gt.S(t, buf.String()).NotContains("quiet message")
	gt.S(t, buf.String()).Contains("loud message")
}

func TestWithAndFrom(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New(slog.LevelDebug, buf)

	ctx := logging.With(context.Background(), logger)
	logging.From(ctx).Debug("from context")
	gt.S(t, buf.String()).Contains("from context")

	logging.Component(ctx, "store").Info("tagged")
	gt.S(t, buf.String()).Contains("store")
}

func TestFromWithoutLogger(t *testing.T) {
	gt.True(t, logging.From(context.Background()) == logging.Default())
}
