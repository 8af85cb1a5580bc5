package palette

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/dayblocks/internal/testutil"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNew_DefaultsWhenMissing(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "absent.yaml")} {
		p, err := New(path, testutil.Logger())
		if err != nil {
			t.Fatal(err)
		}
		if got := p.Labels(); len(got) != 3 || got[2].Color != "#52c41a" {
			t.Errorf("path %q: labels = %+v", path, got)
		}
	}
}

func TestNew_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yaml")
	writeFile(t, path, "labels:\n  - name: Deep work\n    color: \"#1677ff\"\n  - name: Rest\n    color: \"#722ed1\"\n")

	p, err := New(path, testutil.Logger())
	if err != nil {
		t.Fatal(err)
	}
	got := p.Labels()
	if len(got) != 2 || got[0].Name != "Deep work" || got[1].Color != "#722ed1" {
		t.Errorf("labels = %+v", got)
	}
}

func TestNew_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yaml")
	writeFile(t, path, "labels:\n  - name: \"\"\n    color: \"#fff\"\n")
	if _, err := New(path, testutil.Logger()); err == nil {
		t.Error("expected error for unnamed label")
	}

	writeFile(t, path, "labels: [")
	if _, err := New(path, testutil.Logger()); err == nil {
		t.Error("expected parse error")
	}
}

func TestLabelsReturnsCopy(t *testing.T) {
	p, _ := New("", testutil.Logger())
	got := p.Labels()
	got[0].Name = "changed"
	if p.Labels()[0].Name == "changed" {
		t.Error("caller mutated palette state")
	}
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yaml")
	writeFile(t, path, "labels:\n  - name: A\n    color: red\n")

	p, err := New(path, testutil.Logger())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Watch(ctx) }()
	time.Sleep(100 * time.Millisecond)

	writeFile(t, path, "labels:\n  - name: B\n    color: blue\n")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if p.Labels()[0].Name == "B" {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if got := p.Labels()[0].Name; got != "B" {
		t.Errorf("label after change = %q, want B", got)
	}

	// A broken file keeps the last good palette.
	writeFile(t, path, "labels: [")
	time.Sleep(400 * time.Millisecond)
	if got := p.Labels()[0].Name; got != "B" {
		t.Errorf("label after bad write = %q, want B", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}
