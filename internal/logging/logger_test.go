package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"codementor/internal/config"
	"codementor/internal/logging/adapters"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T, format string) (*MultiLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := NewMultiLogger()
	require.NoError(t, l.AddAdapter(adapters.NewStdoutAdapter("buf", adapters.StdoutConfig{Format: format, Writer: &buf})))
	return l, &buf
}

func TestMultiLogger_JSONFields(t *testing.T) {
	l, buf := newBufferLogger(t, "json")

	l.WithField("platform", "leetcode").Info("scraped", map[string]interface{}{"solutions": 2})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "scraped", line["message"])
	assert.Equal(t, "leetcode", line["platform"])
	assert.EqualValues(t, 2, line["solutions"])
}

func TestMultiLogger_LevelFilterIsShared(t *testing.T) {
	l, buf := newBufferLogger(t, "text")
	child := l.WithField("component", "router")

	l.SetLevel(WarnLevel)
	child.Info("dropped")
	child.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "[WARN] kept component=router")
}

func TestMultiLogger_DerivedLoggersDoNotLeakFields(t *testing.T) {
	l, buf := newBufferLogger(t, "text")

	_ = l.WithField("a", 1)
	l.Info("plain")

	assert.True(t, strings.HasSuffix(strings.TrimSpace(buf.String()), "[INFO] plain"))
}

func TestMultiLogger_DuplicateAdapter(t *testing.T) {
	l, _ := newBufferLogger(t, "json")
	err := l.AddAdapter(adapters.NewStdoutAdapter("buf", adapters.StdoutConfig{}))
	assert.Error(t, err)

	assert.NoError(t, l.RemoveAdapter("buf"))
	assert.Error(t, l.RemoveAdapter("buf"))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLogLevel("DEBUG"))
	assert.Equal(t, WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, InfoLevel, ParseLogLevel("bogus"))

	var lvl LogLevel
	require.NoError(t, lvl.UnmarshalText([]byte(" Error ")))
	assert.Equal(t, ErrorLevel, lvl)
	assert.Equal(t, "info", LogLevel(42).String())
}

func TestManager_FileAdapter(t *testing.T) {
	path := t.TempDir() + "/logs/app.log"

	cfg := config.Default()
	cfg.Logging.Adapters = append(cfg.Logging.Adapters, struct {
		Name    string                 `yaml:"name"`
		Type    string                 `yaml:"type"`
		Enabled bool                   `yaml:"enabled"`
		Options map[string]interface{} `yaml:"options"`
	}{Name: "file", Type: "file", Enabled: true, Options: map[string]interface{}{"file_path": path}})

	m := NewManager()
	require.NoError(t, m.Initialize(cfg))
	m.GetLogger().Error("boom")
	require.NoError(t, m.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"boom"`)
}

func TestFactory_UnknownAdapter(t *testing.T) {
	_, err := NewAdapterFactory().CreateAdapter(AdapterConfig{Name: "x", Type: "carrier-pigeon"})
	assert.Error(t, err)
}
