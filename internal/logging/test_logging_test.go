package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"storyboarder/internal/tester"
)

func TestNew_JSONAtDebug(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "JSON", "debug")
	l.Debug("hello", "k", 1)

	var rec map[string]any
	tester.NoErr(t, json.Unmarshal(buf.Bytes(), &rec))
	tester.Eq(t, rec["msg"], any("hello"))
	tester.Eq(t, rec["level"], any("DEBUG"))
}

func TestNew_FallsBackToTextInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "", "loud")
	l.Debug("hidden")
	l.Info("shown")
	tester.False(t, strings.Contains(buf.String(), "hidden"))
	tester.True(t, strings.Contains(buf.String(), "msg=shown"))
}
