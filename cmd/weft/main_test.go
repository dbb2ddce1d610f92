package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/weft/internal/config"
	wefterrors "github.com/vango-dev/weft/internal/errors"
	"github.com/vango-dev/weft/pkg/markup"
	"github.com/vango-dev/weft/pkg/scheduler"
	"github.com/vango-dev/weft/pkg/tree"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func compile(t *testing.T, src string) *tree.Node {
	t.Helper()
	root, err := markup.Compile(src, markup.Options{})
	if err != nil {
		t.Fatalf("Compile(%q) error = %v", src, err)
	}
	return root
}

func TestRunDiff(t *testing.T) {
	tests := []struct {
		name  string
		old   string
		next  string
		want  []string
		count int
	}{
		{
			name:  "identical",
			old:   `<p class="a">hi</p>`,
			next:  `<p class="a">hi</p>`,
			count: 0,
		},
		{
			name:  "text and attribute",
			old:   `<p class="a">hi</p>`,
			next:  `<p class="b">bye</p>`,
			want:  []string{`SetAttr <p> class="b"`, `SetText "hi" -> "bye"`},
			count: 2,
		},
		{
			name:  "keyed move",
			old:   `<ul><li key="a">A</li><li key="b">B</li></ul>`,
			next:  `<ul><li key="b">B</li><li key="a">A</li></ul>`,
			want:  []string{"MoveChild <li #b>"},
			count: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := runDiff(&buf, compile(t, tt.old), compile(t, tt.next), diffOptions{})
			if err != nil {
				t.Fatalf("runDiff() error = %v", err)
			}
			out := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
			if !strings.Contains(out, fmt.Sprintf("%d mutations", tt.count)) {
				t.Errorf("output should report %d mutations:\n%s", tt.count, out)
			}
		})
	}
}

func TestRunDiffJSON(t *testing.T) {
	var buf bytes.Buffer
	old := compile(t, `<p>one</p>`)
	next := compile(t, `<p>one</p><p>two</p>`)

	if err := runDiff(&buf, old, next, diffOptions{json: true}); err != nil {
		t.Fatalf("runDiff() error = %v", err)
	}

	var out []mutationJSON
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v\n%s", err, buf.String())
	}
	if len(out) != 1 {
		t.Fatalf("mutations = %d, want 1", len(out))
	}
	if out[0].Op != "InsertChild" || out[0].Index != 1 {
		t.Errorf("mutation = %+v", out[0])
	}
}

func TestRunDiffResult(t *testing.T) {
	var buf bytes.Buffer
	old := compile(t, `<ul><li key="a">A</li></ul>`)
	next := compile(t, `<ul><li key="b">B</li><li key="a">A</li></ul>`)

	if err := runDiff(&buf, old, next, diffOptions{result: true}); err != nil {
		t.Fatalf("runDiff() error = %v", err)
	}
	want := `<ul><li key="b">B</li><li key="a">A</li></ul>`
	if !strings.Contains(buf.String(), want) {
		t.Errorf("output missing patched markup %q:\n%s", want, buf.String())
	}
}

func TestDiffCommand(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.html")
	newPath := filepath.Join(dir, "new.html")
	os.WriteFile(oldPath, []byte(`<p>a</p>`), 0644)
	os.WriteFile(newPath, []byte(`<p>b</p>`), 0644)

	var buf bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"diff", oldPath, newPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), `SetText "a" -> "b"`) {
		t.Errorf("output = %s", buf.String())
	}

	cmd = rootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"diff", oldPath, filepath.Join(dir, "missing.html")})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestVersionShort(t *testing.T) {
	var buf bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"version", "--short"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != version {
		t.Errorf("version = %q, want %q", got, version)
	}
}

func TestDemoApp(t *testing.T) {
	loop := scheduler.NewLoop()
	app := newDemoApp(loop, quiet, config.New())
	if err := app.start(time.Hour); err != nil {
		t.Fatalf("start() error = %v", err)
	}
	defer app.root.Destroy()

	html := app.root.HTML()
	for _, want := range []string{"0 ticks", "even", "data-weft-child"} {
		if !strings.Contains(html, want) {
			t.Errorf("initial html missing %q: %s", want, html)
		}
	}
	if app.root.ActiveTimers() != 1 {
		t.Errorf("ActiveTimers() = %d, want 1", app.root.ActiveTimers())
	}

	if err := app.root.Set("count", 1); err != nil {
		t.Fatal(err)
	}
	loop.Flush()

	if got := app.root.Ref("value").TextContent(); got != "1 ticks" {
		t.Errorf("value = %q, want %q", got, "1 ticks")
	}
	if got := app.badge.Element().TextContent(); got != "odd" {
		t.Errorf("badge = %q, want odd", got)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Devtools.Addr != config.DefaultDevtoolsAddr {
		t.Errorf("Addr = %q", cfg.Devtools.Addr)
	}

	os.WriteFile("weft.yaml", []byte("devtools:\n  addr: \":9999\"\n"), 0644)
	cfg, err = loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Devtools.Addr != ":9999" {
		t.Errorf("Addr = %q, want :9999", cfg.Devtools.Addr)
	}
}

func TestPrintError(t *testing.T) {
	wefterrors.DisableColors()
	defer wefterrors.EnableColors()

	_, err := loadConfig(t.TempDir())
	if err == nil {
		t.Fatal("loadConfig(empty dir) error = nil")
	}
	var buf bytes.Buffer
	printError(&buf, err)
	out := buf.String()
	for _, want := range []string{"ERROR " + wefterrors.CodeConfigInvalid, "Hint: "} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	printError(&buf, fmt.Errorf("plain failure"))
	if !strings.Contains(buf.String(), "Error:") || !strings.Contains(buf.String(), "plain failure") {
		t.Errorf("plain output = %q", buf.String())
	}
}
