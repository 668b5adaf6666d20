package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"quill/internal/astio"
	"quill/internal/builtins"
	"quill/internal/evaluator"
	"quill/internal/journal"
	"quill/internal/object"
	"quill/internal/util"
	"runtime/pprof"
	"time"
)

// Runner loads AST documents and evaluates them in a fresh global
// environment per run.
type Runner struct {
	Config  util.Configuration
	Out     io.Writer
	Journal *journal.Journal // optional
}

// Run evaluates the document at path and returns the program's final value.
// When a journal is attached the run is recorded whether or not it failed.
func (r *Runner) Run(ctx context.Context, path string) (object.Object, error) {
	started := time.Now()
	result, err := r.evaluate(path)

	if r.Journal != nil {
		run := journal.Run{
			Source:    path,
			StartedAt: started,
			Duration:  time.Since(started),
		}
		if err != nil {
			run.Error = err.Error()
		} else {
			run.Result = result.Inspect()
		}
		if _, jerr := r.Journal.Record(ctx, run); jerr != nil {
			slog.Error("failed to record run",
				slog.String("source", path),
				slog.Any("error", jerr))
		}
	}

	return result, err
}

func (r *Runner) evaluate(path string) (object.Object, error) {
	// Optional profiling via env var: QUILL_CPU_PROFILE=<path>
	if profPath := os.Getenv("QUILL_CPU_PROFILE"); profPath != "" {
		profFile, err := os.Create(profPath)
		if err != nil {
			slog.Warn("could not create CPU profile", slog.String("path", profPath), slog.Any("error", err))
		} else if err := pprof.StartCPUProfile(profFile); err != nil {
			slog.Warn("could not start CPU profile", slog.Any("error", err))
			_ = profFile.Close()
		} else {
			defer func() {
				pprof.StopCPUProfile()
				_ = profFile.Close()
			}()
		}
	}

	program, err := astio.LoadFile(path)
	if err != nil {
		return nil, err
	}
	slog.Debug("program loaded",
		slog.String("source", path),
		slog.Int("statements", len(program.Body)))

	env := builtins.NewGlobalEnvironment(r.Out)
	return evaluator.New(r.Config.MaxDepth).Eval(program, env)
}

// Describe renders err for a terminal. Document decode errors get the
// offending lines of the source file appended.
func Describe(path string, err error) string {
	msg := fmt.Sprintf("error: %v", err)

	var decodeErr *astio.DecodeError
	if !errors.As(err, &decodeErr) {
		return msg
	}
	src, rerr := os.ReadFile(path)
	if rerr != nil {
		return msg
	}
	if lines := util.GetContextLines(string(src), decodeErr.Line, decodeErr.Column); lines != "" {
		msg += "\n" + lines
	}
	return msg
}
