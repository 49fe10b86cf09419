package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/sung/internal/chords"
	"github.com/desertthunder/sung/internal/shared"
	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v3"
)

// ChordsRender renders a chord sheet to text or PDF, re-rendering on change with --watch.
func (r *Runner) ChordsRender(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: chord sheet path", shared.ErrMissingArgument)
	}

	format, err := chords.ParseFormat(cmd.String("to"))
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if format == chords.FormatPDF && output == "" {
		output = strings.TrimSuffix(path, filepath.Ext(path)) + ".pdf"
	}

	opts := chords.Options{
		Format:          format,
		FilterNonLyrics: cmd.Bool("filter"),
		KeepMetadata:    cmd.Bool("keep-metadata"),
		Pack:            cmd.Bool("pack"),
		MaxLineLength:   cmd.Int("max-length"),
		PDF:             chords.PDFOptionsFromConfig(r.config.Render),
	}
	if size := cmd.String("page-size"); size != "" {
		opts.PDF.PageSize = size
	}
	opts.PDF.Title = cmd.String("title")

	if err := r.renderChords(path, output, opts); err != nil {
		return err
	}
	if !cmd.Bool("watch") {
		return nil
	}
	return r.watchChords(ctx, path, output, opts)
}

// renderChords renders the file at path to output, or to the runner's output when output is empty.
// Files are only written once rendering succeeded.
func (r *Runner) renderChords(path, output string, opts chords.Options) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read chord sheet: %w", err)
	}

	if output == "" {
		return chords.Render(r.output, string(raw), opts)
	}

	var buf bytes.Buffer
	if err := chords.Render(&buf, string(raw), opts); err != nil {
		return err
	}
	if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	r.logger.Debug("chord sheet rendered", "input", path, "output", output, "bytes", buf.Len())
	return r.writePlain("✓ Rendered %s to %s\n", path, output)
}

// watchChords re-renders path whenever it is written until ctx is done or the process is interrupted.
//
// The parent directory is watched since editors often save by replacing the file.
func (r *Runner) watchChords(ctx context.Context, path, output string, opts chords.Options) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	r.writePlain("→ Watching %s (Ctrl+C to stop)\n", path)
	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// Let writes settle before reading.
			time.Sleep(100 * time.Millisecond)
			if err := r.renderChords(path, output, opts); err != nil {
				r.logger.Error("render failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("file watcher error", "error", err)
		}
	}
}
