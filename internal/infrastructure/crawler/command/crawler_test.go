package command

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/civic-digest/internal/core/domain"
)

func shellScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not available")
	}
	path := filepath.Join(t.TempDir(), "crawl.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestCrawlPassesMaxPages(t *testing.T) {
	dir := t.TempDir()
	script := shellScript(t, `echo "$@" > args.txt
echo crawling
`)
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	if err := New(script, []string{"--out", "pdfs"}, dir, logger).Crawl(context.Background(), 2); err != nil {
		t.Fatalf("crawl: %v", err)
	}

	args, err := os.ReadFile(filepath.Join(dir, "args.txt"))
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	if strings.TrimSpace(string(args)) != "--out pdfs --max-pages 2" {
		t.Fatalf("unexpected args: %q", args)
	}
	if !strings.Contains(logs.String(), "line=crawling") {
		t.Fatalf("crawler output must be logged:\n%s", logs.String())
	}
}

func TestCrawlDrainsOutputAfterOverlongLine(t *testing.T) {
	script := shellScript(t, `head -c 300000 /dev/zero | tr '\0' x
echo
head -c 300000 /dev/zero | tr '\0' y
echo
echo done
`)
	var logs bytes.Buffer
	crawler := New(script, nil, t.TempDir(), slog.New(slog.NewTextHandler(&logs, nil)))
	crawler.maxLine = 1024

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := crawler.Crawl(ctx, 0); err != nil {
		t.Fatalf("crawl must finish once the output is drained: %v", err)
	}
	if !strings.Contains(logs.String(), "crawler_output_dropped") {
		t.Fatalf("dropped output must be logged:\n%s", logs.String())
	}
}

func TestCrawlFailure(t *testing.T) {
	script := shellScript(t, "echo boom >&2\nexit 3\n")

	err := New(script, nil, t.TempDir(), nil).Crawl(context.Background(), 0)
	if !domain.IsKind(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestCrawlNotConfigured(t *testing.T) {
	if err := New("", nil, "", nil).Crawl(context.Background(), 1); !domain.IsKind(err, domain.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}
