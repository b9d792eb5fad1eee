package downloader

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os/exec"

	"ytclip-server/internal/models"
	"ytclip-server/internal/proxy"
	"ytclip-server/internal/retry"
)

// Runner executes one subprocess, feeding stdout to onLine a line at a
// time. Split out so tests can count attempts and inspect argv without
// a yt-dlp binary on the machine.
type Runner interface {
	Run(ctx context.Context, name string, args []string, onLine func(string)) error
}

// ExecRunner runs real subprocesses.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, name, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	// stderr is diagnostics only; keep the tail for the error message.
	var lastStderr string
	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			lastStderr = scanner.Text()
			log.Printf("%s stderr: %s", name, lastStderr)
		}
	}()

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		onLine(scanner.Text())
	}
	<-done

	if err := cmd.Wait(); err != nil {
		if lastStderr != "" {
			return fmt.Errorf("%s: %w (stderr: %s)", name, err, lastStderr)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Engine wraps the download tool with bounded retries and per-attempt
// proxy and user-agent rotation. Attempts are strictly sequential; one
// subprocess at a time per call.
type Engine struct {
	runner   Runner
	selector *proxy.Selector
	policy   retry.Policy
	binary   string
}

func NewEngine(selector *proxy.Selector, policy retry.Policy) *Engine {
	return &Engine{
		runner:   ExecRunner{},
		selector: selector,
		policy:   policy,
		binary:   "yt-dlp",
	}
}

// CheckAvailable verifies the download tool is installed and runnable.
func (e *Engine) CheckAvailable(ctx context.Context) error {
	if err := e.runner.Run(ctx, e.binary, []string{"--version"}, func(string) {}); err != nil {
		return models.ErrToolUnavailable
	}
	return nil
}

// Download fetches url into destPath, streaming parsed progress to
// onProgress. It fails only after every attempt has failed, with the
// last attempt's error wrapped in a DownloadError.
func (e *Engine) Download(ctx context.Context, url, destPath string, onProgress ProgressFunc) error {
	var attempts int

	err := e.policy.Do(ctx, func(attempt int) error {
		attempts = attempt

		var selected *proxy.Candidate
		if e.selector != nil {
			selected = e.selector.Select(ctx)
		}
		if selected != nil {
			log.Printf("📡 Attempt %d using proxy %s", attempt, selected.Name)
		} else {
			log.Printf("📡 Attempt %d using direct connection", attempt)
		}

		args := buildArgs(url, destPath, RandomUserAgent(), selected)
		return e.runner.Run(ctx, e.binary, args, func(line string) {
			if update, ok := ParseProgressLine(line); ok {
				onProgress(update)
			}
		})
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &models.DownloadError{Attempts: attempts, Err: err}
	}
	return nil
}

// buildArgs assembles the yt-dlp argv: best muxed mp4 with fallbacks, a
// browser-like header set, conservative concurrency plus the tool's own
// retry/backoff flags, and the progress template the parser matches.
func buildArgs(url, destPath, userAgent string, p *proxy.Candidate) []string {
	args := []string{
		"-f", "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
		"--merge-output-format", "mp4",
		"--newline",
		"--progress-template", "download:%(progress.downloaded_bytes)s/%(progress.total_bytes)s/%(progress.speed)s/%(progress.eta)s",
		"--user-agent", userAgent,
		"--add-header", "Accept-Language:en-US,en;q=0.9",
		"--add-header", "Accept-Encoding:gzip, deflate, br",
		"--add-header", "Connection:keep-alive",
		"--add-header", "DNT:1",
		"--add-header", "Sec-Fetch-Dest:document",
		"--add-header", "Sec-Fetch-Mode:navigate",
		"--no-check-certificates",
		"--extractor-args", "youtube:player_client=android",
		"--concurrent-fragments", "1",
		"--retries", "3",
		"--fragment-retries", "3",
		"--sleep-interval", "1",
		"--max-sleep-interval", "3",
	}
	if p != nil {
		args = append(args, "--proxy", p.URL)
	}
	args = append(args, "-o", destPath, url)
	return args
}
