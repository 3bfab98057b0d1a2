package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ookam/view-values/internal/analyzer"
	"github.com/ookam/view-values/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failingResult() *analyzer.ScanResult {
	return &analyzer.ScanResult{
		Entries: []analyzer.ReportEntry{
			{
				Controller: "PostsController",
				Action:     "edit",
				Missing:    []string{"unknown_key"},
				Unused:     []string{},
				Views:      []string{"app/views/posts/edit.html.erb"},
			},
			{
				Controller: "PostsController",
				Action:     "index",
				Missing:    []string{},
				Unused:     []string{"a", "b"},
				Views:      []string{},
			},
		},
		Stats: analyzer.RunStats{
			ControllerFiles: 1,
			ViewFiles:       1,
			ActionsChecked:  2,
			TotalMissing:    1,
			TotalUnused:     2,
		},
		ControllerFiles: []string{"app/controllers/posts_controller.rb"},
		ViewFiles:       []string{"app/views/posts/edit.html.erb"},
	}
}

func render(t *testing.T, result *analyzer.ScanResult, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Format(&buf, result, opts))
	return buf.String()
}

func TestFormatText_OK(t *testing.T) {
	result := &analyzer.ScanResult{Stats: analyzer.RunStats{ActionsChecked: 3}}
	assert.Equal(t, "view_values check: OK\n", render(t, result, Options{}))
	assert.False(t, HasIssues(result))
}

func TestFormatText_Skip(t *testing.T) {
	result := &analyzer.ScanResult{Stats: analyzer.RunStats{ActionsSkipped: 1}}
	assert.Equal(t, "view_values check: *SKIP*\n", render(t, result, Options{}))
}

func TestFormatText_Entries(t *testing.T) {
	want := `NG: PostsController#edit
  views: app/views/posts/edit.html.erb
  missing (used but not declared): unknown_key
NG: PostsController#index
  views: (none)
  unused (declared but not used): a, b

Summary: 1 controllers, 1 views, 2 actions checked
Totals: 1 missing, 2 unused
`
	result := failingResult()
	assert.Equal(t, want, render(t, result, Options{Format: config.FormatText}))
	assert.True(t, HasIssues(result))
}

func TestFormatText_Verbose(t *testing.T) {
	result := &analyzer.ScanResult{
		Stats:           analyzer.RunStats{ControllerFiles: 1, ViewFiles: 1, ActionsChecked: 1},
		ControllerFiles: []string{"app/controllers/posts_controller.rb"},
		ViewFiles:       []string{"app/views/posts/new.html.erb"},
	}
	want := `Controllers (1):
  app/controllers/posts_controller.rb
Views (1):
  app/views/posts/new.html.erb

view_values check: OK

Summary: 1 controllers, 1 views, 1 actions checked
`
	assert.Equal(t, want, render(t, result, Options{Verbose: true}))
}

func TestFormatText_Color(t *testing.T) {
	out := render(t, failingResult(), Options{Color: true})
	assert.Contains(t, out, colorRed)
	assert.Contains(t, out, colorReset)

	plain := render(t, failingResult(), Options{})
	assert.NotContains(t, plain, "\033[")
}

func TestFormatJSON(t *testing.T) {
	out := render(t, failingResult(), Options{Format: config.FormatJSON})
	assert.True(t, strings.HasPrefix(out, "{\n  \"reports\": ["))
	assert.NotContains(t, out, `"stats"`)

	var decoded JSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded.Reports, 2)
	assert.Equal(t, "edit", decoded.Reports[0].Action)
	assert.Equal(t, []string{"unknown_key"}, decoded.Reports[0].Missing)
	assert.Equal(t, []string{}, decoded.Reports[1].Views)
	assert.Nil(t, decoded.Stats)
}

func TestFormatJSON_NeverNull(t *testing.T) {
	result := &analyzer.ScanResult{Entries: []analyzer.ReportEntry{
		{Controller: "PostsController", Action: "show", Missing: []string{"user"}},
	}}
	out := render(t, result, Options{Format: config.FormatJSON})
	assert.NotContains(t, out, "null")

	empty := render(t, &analyzer.ScanResult{}, Options{Format: config.FormatJSON})
	assert.Equal(t, "{\n  \"reports\": []\n}\n", empty)
}

func TestFormatJSON_VerboseStats(t *testing.T) {
	out := render(t, failingResult(), Options{Format: config.FormatJSON, Verbose: true})

	var decoded JSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.NotNil(t, decoded.Stats)
	assert.Equal(t, 2, decoded.Stats.ActionsChecked)
	assert.Equal(t, 2, decoded.Stats.TotalUnused)
}

func TestFormatError(t *testing.T) {
	assert.Equal(t, "Error: boom\n", FormatError(errors.New("boom")))
}
