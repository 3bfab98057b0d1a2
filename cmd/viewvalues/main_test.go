package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ookam/view-values/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureRoot = "../../e2e/testdata/project"

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCheck_Fixture(t *testing.T) {
	code, stdout, stderr := execute(t, "check", "--root", fixtureRoot)

	want := `NG: CliMatrix::MatrixController#a4
  views: spec/app/views/cli_matrix/matrix/a4.html.erb
  missing (used but not declared): a
NG: CliMatrix::MatrixController#h4
  views: spec/app/views/cli_matrix/matrix/h4.html.erb
  missing (used but not declared): missing_helper
NG: PostsController#edit
  views: spec/app/views/posts/edit.html.erb
  missing (used but not declared): unknown_key

Summary: 4 controllers, 24 views, 24 actions checked
Totals: 3 missing, 0 unused
`
	assert.Equal(t, 1, code)
	assert.Equal(t, want, stdout)
	assert.Empty(t, stderr)
}

func TestCheck_Matrix(t *testing.T) {
	tests := []struct {
		action string
		extra  []string
		ok     bool
		lines  []string
	}{
		{action: "a0", ok: true},
		{action: "a1", lines: []string{"unused (declared but not used): a"}},
		{action: "a2", ok: true},
		{action: "a3", lines: []string{"unused (declared but not used): b"}},
		{action: "a4", lines: []string{"missing (used but not declared): a"}},
		{action: "a5", ok: true},
		{action: "h1", lines: []string{"unused (declared but not used): is_login?"}},
		{action: "h2", lines: []string{"unused (declared but not used): h2"}},
		{action: "h3", ok: true},
		{action: "h4", lines: []string{"missing (used but not declared): missing_helper"}},
		{action: "m1", ok: true},
		{action: "m2", lines: []string{"unused (declared but not used): a"}},
		{action: "m3", lines: []string{"unused (declared but not used): b, h2"}},
		{action: "f1", ok: true},
		{action: "f2", ok: true},
		{action: "f3", ok: true},
		{action: "v1", extra: []string{"--instance-var", "vv"}, ok: true},
		{action: "v1", extra: []string{"--instance-var", "@vv"}, ok: true},
		{action: "v1", lines: []string{"unused (declared but not used): a"}},
		{action: "c1", ok: true},
		{action: "x1", lines: []string{"unused (declared but not used): a"}},
		{action: "n1", lines: []string{"views: (none)", "unused (declared but not used): a"}},
	}

	for _, tt := range tests {
		name := tt.action + strings.Join(tt.extra, "_")
		t.Run(name, func(t *testing.T) {
			args := []string{
				"check",
				"--root", fixtureRoot,
				"--include", "cli_matrix/matrix_controller.rb",
				"--only-action", tt.action,
				"--check-unused",
			}
			code, stdout, _ := execute(t, append(args, tt.extra...)...)

			if tt.ok {
				assert.Equal(t, 0, code)
				assert.Equal(t, "view_values check: OK\n", stdout)
				return
			}
			assert.Equal(t, 1, code)
			assert.Contains(t, stdout, "NG: CliMatrix::MatrixController#"+tt.action+"\n")
			for _, line := range tt.lines {
				assert.Contains(t, stdout, "  "+line+"\n")
			}
		})
	}
}

func TestCheck_UnusedIgnoredWithoutFlag(t *testing.T) {
	code, stdout, _ := execute(t, "check", "--root", fixtureRoot,
		"--include", "cli_matrix/matrix_controller.rb", "--only-action", "a1")
	assert.Equal(t, 0, code)
	assert.Equal(t, "view_values check: OK\n", stdout)
}

func TestCheck_Posts(t *testing.T) {
	for action, wantCode := range map[string]int{"show": 0, "edit": 1, "new": 0} {
		t.Run(action, func(t *testing.T) {
			code, _, _ := execute(t, "check", "--root", fixtureRoot,
				"--include", "posts_controller", "--only-action", action, "--check-unused")
			assert.Equal(t, wantCode, code)
		})
	}
}

func TestCheck_NamespacedController(t *testing.T) {
	code, stdout, _ := execute(t, "check", "--root", fixtureRoot,
		"--include", "member/*_controller.rb", "--check-unused")
	assert.Equal(t, 0, code)
	assert.Equal(t, "view_values check: OK\n", stdout)
}

func TestCheck_Skip(t *testing.T) {
	for _, action := range []string{"flagged", "view_only"} {
		t.Run(action, func(t *testing.T) {
			code, stdout, _ := execute(t, "check", "--root", fixtureRoot,
				"--include", "skip_controller.rb", "--only-action", action, "--check-unused")
			assert.Equal(t, 0, code)
			assert.Equal(t, "view_values check: *SKIP*\n", stdout)
		})
	}
}

func TestCheck_JSON(t *testing.T) {
	code, stdout, _ := execute(t, "check", "--root", fixtureRoot,
		"--include", "posts_controller", "--format", "json")
	assert.Equal(t, 1, code)

	var decoded struct {
		Reports []struct {
			Controller string   `json:"controller"`
			Action     string   `json:"action"`
			Missing    []string `json:"missing"`
			Unused     []string `json:"unused"`
			Views      []string `json:"views"`
		} `json:"reports"`
		Stats json.RawMessage `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &decoded))
	require.Len(t, decoded.Reports, 1)
	assert.Equal(t, "PostsController", decoded.Reports[0].Controller)
	assert.Equal(t, "edit", decoded.Reports[0].Action)
	assert.Equal(t, []string{"unknown_key"}, decoded.Reports[0].Missing)
	assert.Equal(t, []string{}, decoded.Reports[0].Unused)
	assert.Equal(t, []string{"spec/app/views/posts/edit.html.erb"}, decoded.Reports[0].Views)
	assert.Nil(t, decoded.Stats)
}

func TestCheck_Verbose(t *testing.T) {
	code, stdout, _ := execute(t, "check", "--root", fixtureRoot,
		"--include", "member/", "--verbose")
	assert.Equal(t, 0, code)

	want := `Controllers (1):
  spec/app/controllers/member/homes_controller.rb
Views (1):
  spec/app/views/member/homes/show.html.erb

view_values check: OK

Summary: 1 controllers, 1 views, 1 actions checked
`
	assert.Equal(t, want, stdout)
}

func TestCheck_ConfigErrors(t *testing.T) {
	code, stdout, stderr := execute(t, "check", "--root", fixtureRoot, "--format", "xml")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Error: invalid format")

	code, stdout, stderr = execute(t, "check", "--root", filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Error: invalid root")
}

func TestCheck_ConfigFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/controllers/posts_controller.rb", "class PostsController\n  def edit\n    build_view_values({ a: 1 })\n  end\nend\n")
	writeFile(t, root, config.FileName, "check_unused: true\n")

	code, stdout, _ := execute(t, "check", "--root", root)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "unused (declared but not used): a")

	code, _, _ = execute(t, "check", "--root", root, "--check-unused=false")
	assert.Equal(t, 0, code)

	writeFile(t, root, config.FileName, "check_unused: true\nignores:\n  actions:\n    - PostsController#edit\n")
	code, stdout, _ = execute(t, "check", "--root", root)
	assert.Equal(t, 0, code)
	assert.Equal(t, "view_values check: *SKIP*\n", stdout)
}

func TestRoot_NoCommand(t *testing.T) {
	code, stdout, stderr := execute(t)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Usage:")
	assert.NotContains(t, stderr, "Error:")
}

func TestRoot_UnknownCommand(t *testing.T) {
	code, _, stderr := execute(t, "nope")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Error:")
}

func TestVersion(t *testing.T) {
	code, stdout, _ := execute(t, "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, Version+"\n", stdout)
}

func TestInitConfig(t *testing.T) {
	root := t.TempDir()

	code, stdout, _ := execute(t, "init-config", "--root", root)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Created "+config.FileName)

	content, err := os.ReadFile(filepath.Join(root, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultContent, string(content))

	code, _, stderr := execute(t, "init-config", "--root", root)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "already exists")
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

// syncBuffer is a bytes.Buffer safe for the watcher goroutine and the test
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatch_RechecksOnChange(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/controllers/posts_controller.rb", "class PostsController\n  def show\n    build_view_values({ user: :u })\n  end\nend\n")
	writeFile(t, root, "app/views/posts/show.html.erb", "<%= @view_values.user %>")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr syncBuffer
	done := make(chan int, 1)
	go func() {
		done <- run(ctx, []string{"watch", "--root", root}, &stdout, &stderr)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "view_values check: OK")
	}, 5*time.Second, 20*time.Millisecond)

	writeFile(t, root, "app/views/posts/show.html.erb", "<%= @view_values.user %> <%= @view_values.title %>")

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "missing (used but not declared): title")
	}, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, stderr.String(), "Change detected")

	cancel()
	select {
	case code := <-done:
		assert.Equal(t, 0, code)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/controllers/posts_controller.rb", "")
	writeFile(t, root, "spec/app/views/posts/show.html.erb", "")

	assert.Equal(t, []string{
		filepath.Join(root, "app", "controllers"),
		filepath.Join(root, "spec", "app", "views"),
	}, watchDirs(root))
}

func TestWatch_ReloadsConfigFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/controllers/posts_controller.rb", "class PostsController\n  def edit\n    build_view_values({ a: 1 })\n  end\nend\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr syncBuffer
	done := make(chan int, 1)
	go func() {
		done <- run(ctx, []string{"watch", "--root", root}, &stdout, &stderr)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "view_values check: OK")
	}, 5*time.Second, 20*time.Millisecond)

	writeFile(t, root, config.FileName, "check_unused: true\n")

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "unused (declared but not used): a")
	}, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, stderr.String(), config.FileName+" changed, reloading")

	cancel()
	select {
	case code := <-done:
		assert.Equal(t, 0, code)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
