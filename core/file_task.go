package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"

	"github.com/robertkrimen/otto"
)

// FileTask runs a JavaScript file inside the worker that dequeues it.
//
// The script sees its arguments as the global array args, deep-copied at
// construction like FunctionTask arguments, so shared containers such as a
// *MessageQueue are the way to report results:
//
//	args[0].Push("done " + args[1]);
//
// When the task runs on a worker the global worker holds its name and index.
// A script that fails to compile or throws panics the task with the error,
// which the worker recovers and reports to its PanicHandler.
type FileTask struct {
	path string
	args []any
}

// NewFileTask checks that path names a readable regular file and captures
// args. The file is read when the task runs, not here.
func NewFileTask(path string, args ...any) (*FileTask, error) {
	resolved, err := filepath.Abs(path)
	if err != nil {
		resolved = path
	}

	info, err := os.Stat(resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: file %q does not exist", ErrInvalidTask, resolved)
	case err != nil:
		return nil, fmt.Errorf("%w: file %q: %v", ErrInvalidTask, resolved, err)
	case !info.Mode().IsRegular():
		return nil, fmt.Errorf("%w: %q is not a regular file", ErrInvalidTask, resolved)
	}
	f, err := os.Open(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: file %q is not readable: %v", ErrInvalidTask, resolved, err)
	}
	_ = f.Close()

	captured := make([]any, len(args))
	for i, a := range args {
		if a != nil {
			captured[i] = copyValue(reflect.ValueOf(a)).Interface()
		}
	}
	return &FileTask{path: resolved, args: captured}, nil
}

// Path returns the resolved script path.
func (t *FileTask) Path() string {
	return t.path
}

// TaskName returns "file:" followed by the script path.
func (t *FileTask) TaskName() string {
	return "file:" + t.path
}

// Run compiles and executes the script in a fresh interpreter.
func (t *FileTask) Run(ctx context.Context) {
	if err := t.run(ctx); err != nil {
		panic(err)
	}
}

func (t *FileTask) run(ctx context.Context) error {
	src, err := os.ReadFile(t.path)
	if err != nil {
		return fmt.Errorf("file task: read %s: %w", t.path, err)
	}

	vm := otto.New()
	if err := vm.Set("args", t.args); err != nil {
		return fmt.Errorf("file task: bind args: %w", err)
	}
	if w := GetCurrentWorker(ctx); w != nil {
		if err := vm.Set("worker", map[string]any{"name": w.Name(), "index": w.Index()}); err != nil {
			return fmt.Errorf("file task: bind worker: %w", err)
		}
	}

	script, err := vm.Compile(t.path, src)
	if err != nil {
		return fmt.Errorf("file task: compile %s: %w", t.path, err)
	}
	if _, err := vm.Run(script); err != nil {
		return fmt.Errorf("file task: run %s: %w", t.path, err)
	}
	return nil
}
