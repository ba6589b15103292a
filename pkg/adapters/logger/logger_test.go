// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-credstore.
//
// go-credstore is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-credstore/pkg/correlation"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"trace", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestNew_Drivers(t *testing.T) {
	for _, driver := range []Driver{DriverSlog, DriverZap} {
		t.Run(string(driver), func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(&Config{Driver: driver, Level: LevelInfo, Format: "json", Output: &buf})
			require.NoError(t, err)

			l.Info("opened", String("backend", "local"))
			l.Debug("hidden at info level")

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			require.Len(t, lines, 1)

			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
			assert.Equal(t, "opened", entry["msg"])
			assert.Equal(t, "local", entry["backend"])
		})
	}
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(&Config{Driver: "logrus"})
	assert.Error(t, err)

	_, err = New(&Config{Format: "xml"})
	assert.Error(t, err)

	l, err := New(nil)
	require.NoError(t, err)
	assert.IsType(t, &SlogAdapter{}, l)
}

func TestContextLogging_AddsCorrelationID(t *testing.T) {
	for _, driver := range []Driver{DriverSlog, DriverZap} {
		t.Run(string(driver), func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(&Config{Driver: driver, Format: "json", Level: LevelDebug, Output: &buf})
			require.NoError(t, err)

			ctx := correlation.WithCorrelationID(context.Background(), "req-1")
			l.WarnContext(ctx, "falling back")

			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, "req-1", entry["correlation_id"])
		})
	}
}

func TestWith_CarriesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogAdapter(&SlogConfig{Format: "json", Output: &buf})

	l.With(String("component", "credstore")).WithError(errors.New("boom")).Error("failed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "credstore", entry["component"])
	assert.Equal(t, "boom", entry["error"])
}

func TestZap_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewZapAdapter(&ZapConfig{Format: "text", Output: &buf, Level: LevelWarn})
	l.Info("dropped")
	l.Warn("kept", Int("count", 2))
	require.NoError(t, l.Sync())

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}

func TestNopLogger(t *testing.T) {
	l := NewNop()
	l.Info("x")
	l.ErrorContext(context.Background(), "y")
	assert.Equal(t, l, l.With(String("a", "b")))
	assert.Equal(t, l, l.WithError(errors.New("z")))
}
