// Package command runs the external crawler as a child process.
package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"

	"github.com/kirillkom/civic-digest/internal/core/domain"
)

// Crawler invokes Command followed by Args and "--max-pages N". Its
// output is forwarded line by line to the logger.
type Crawler struct {
	command string
	args    []string
	dir     string
	maxLine int
	logger  *slog.Logger
}

func New(command string, args []string, dir string, logger *slog.Logger) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{command: command, args: args, dir: dir, maxLine: 1024 * 1024, logger: logger}
}

func (c *Crawler) Crawl(ctx context.Context, maxPages int) error {
	if c.command == "" {
		return domain.WrapError(domain.ErrConfig, "crawl", errors.New("crawler command is not configured"))
	}
	args := append([]string{}, c.args...)
	if maxPages > 0 {
		args = append(args, "--max-pages", strconv.Itoa(maxPages))
	}

	cmd := exec.CommandContext(ctx, c.command, args...)
	cmd.Dir = c.dir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("crawler stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("crawler stderr: %w", err)
	}

	c.logger.Info("crawl_started", "command", c.command, "args", args)
	if err := cmd.Start(); err != nil {
		return domain.WrapError(domain.ErrConfig, "start crawler", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go c.forward(&wg, stdout, slog.LevelInfo)
	go c.forward(&wg, stderr, slog.LevelWarn)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return domain.WrapError(domain.ErrUpstream, "crawl", err)
	}
	c.logger.Info("crawl_completed", "max_pages", maxPages)
	return nil
}

func (c *Crawler) forward(wg *sync.WaitGroup, r io.Reader, level slog.Level) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(64*1024, c.maxLine)), c.maxLine)
	for scanner.Scan() {
		c.logger.Log(context.Background(), level, "crawler_output", "line", scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		c.logger.Warn("crawler_output_dropped", "error", err)
		// keep the pipe drained so the child never blocks on write
		_, _ = io.Copy(io.Discard, r)
	}
}
