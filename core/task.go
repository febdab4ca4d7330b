package core

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"time"
	"unsafe"

	"github.com/google/uuid"
)

// Task is the unit of work executed by a WorkerThread.
//
// A task is consumed exactly once by the worker that dequeues it. Results must
// leave the task through a Queue, MessageQueue or a disjoint slot of a Vector;
// the engine has no return-value channel.
type Task interface {
	Run(ctx context.Context)
}

// TaskFunc adapts a plain closure to the Task interface.
type TaskFunc func(ctx context.Context)

// Run calls f(ctx).
func (f TaskFunc) Run(ctx context.Context) {
	f(ctx)
}

// =============================================================================
// TaskID
// =============================================================================

// TaskID identifies one submitted task in execution records.
type TaskID uuid.UUID

// GenerateTaskID returns a new random TaskID.
func GenerateTaskID() TaskID {
	return TaskID(uuid.New())
}

// IsZero reports whether id is the zero value.
func (id TaskID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id TaskID) String() string {
	return uuid.UUID(id).String()
}

// =============================================================================
// FunctionTask: callable + captured argument list
// =============================================================================

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()

// FunctionTask binds an arbitrary func value to an argument list.
//
// If the func's first parameter is a context.Context, the worker context is
// passed there and args bind to the remaining parameters. Return values are
// discarded.
type FunctionTask struct {
	fn      reflect.Value
	args    []reflect.Value
	withCtx bool
	name    string
}

// NewFunctionTask validates fn against args and captures a copy of them.
//
// Only arity and assignability are checked. Arguments are deep-copied, so
// nothing the task receives aliases the submitter's memory, except
// *Queue, *MessageQueue, *Vector, *HashTable and *AtomicInteger, which are
// shared. Channels and funcs are shared as well.
func NewFunctionTask(fn any, args ...any) (*FunctionTask, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("%w: callable must be a non-nil func, got %T", ErrInvalidTask, fn)
	}

	t := v.Type()
	params := make([]reflect.Type, 0, t.NumIn())
	for i := range t.NumIn() {
		params = append(params, t.In(i))
	}

	withCtx := len(params) > 0 && params[0] == contextType
	if withCtx {
		params = params[1:]
	}

	variadic := t.IsVariadic()
	fixed := len(params)
	if variadic {
		fixed--
	}
	if len(args) < fixed || (!variadic && len(args) != fixed) {
		return nil, fmt.Errorf("%w: %s takes %d argument(s), got %d", ErrInvalidTask, t, fixed, len(args))
	}

	bound := make([]reflect.Value, len(args))
	for i, a := range args {
		var pt reflect.Type
		if i < fixed {
			pt = params[i]
		} else {
			pt = params[len(params)-1].Elem()
		}
		av, err := bindArg(a, pt)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d: %v", ErrInvalidTask, i+1, err)
		}
		bound[i] = av
	}

	return &FunctionTask{
		fn:      v,
		args:    bound,
		withCtx: withCtx,
		name:    funcName(v),
	}, nil
}

// Run invokes the bound function.
func (t *FunctionTask) Run(ctx context.Context) {
	in := t.args
	if t.withCtx {
		in = make([]reflect.Value, 0, len(t.args)+1)
		in = append(in, reflect.ValueOf(&ctx).Elem())
		in = append(in, t.args...)
	}
	// Call builds the variadic slice itself for variadic funcs.
	t.fn.Call(in)
}

// TaskName returns the bound function's name.
func (t *FunctionTask) TaskName() string {
	return t.name
}

// Arity returns the number of captured arguments.
func (t *FunctionTask) Arity() int {
	return len(t.args)
}

func bindArg(a any, pt reflect.Type) (reflect.Value, error) {
	if a == nil {
		switch pt.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
			return reflect.Zero(pt), nil
		}
		return reflect.Value{}, fmt.Errorf("nil is not assignable to %s", pt)
	}

	av := reflect.ValueOf(a)
	if !av.Type().AssignableTo(pt) {
		return reflect.Value{}, fmt.Errorf("%s is not assignable to %s", av.Type(), pt)
	}
	return copyValue(av), nil
}

// sharedArgument is implemented by the containers that tasks receive by
// reference instead of by copy.
type sharedArgument interface {
	sharedArgument()
}

var (
	sharedArgumentType = reflect.TypeOf((*sharedArgument)(nil)).Elem()

	// Locations are immutable and compared by identity (time.Local, time.UTC).
	locationType = reflect.TypeOf((*time.Location)(nil))
)

type visitedPointer struct {
	addr uintptr
	typ  reflect.Type
}

// argCopier deep-copies task arguments. Pointer cycles are preserved.
type argCopier struct {
	seen map[visitedPointer]reflect.Value
}

func copyValue(v reflect.Value) reflect.Value {
	if !needsDeepCopy(v.Type()) {
		return v
	}
	c := &argCopier{seen: make(map[visitedPointer]reflect.Value)}
	return c.copy(v)
}

func (c *argCopier) copy(v reflect.Value) reflect.Value {
	t := v.Type()
	if t.Implements(sharedArgumentType) || t == locationType || !needsDeepCopy(t) {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		key := visitedPointer{addr: v.Pointer(), typ: t}
		if p, ok := c.seen[key]; ok {
			return p
		}
		p := reflect.New(t.Elem())
		c.seen[key] = p
		p.Elem().Set(c.copy(v.Elem()))
		return p
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(t).Elem()
		out.Set(c.copy(v.Elem()))
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(t, v.Len(), v.Len())
		if !needsDeepCopy(t.Elem()) {
			reflect.Copy(out, v)
			return out
		}
		for i := range v.Len() {
			out.Index(i).Set(c.copy(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(t).Elem()
		for i := range v.Len() {
			out.Index(i).Set(c.copy(v.Index(i)))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(t, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), c.copy(iter.Value()))
		}
		return out
	case reflect.Struct:
		out := reflect.New(t).Elem()
		out.Set(v)
		for i := range out.NumField() {
			f := out.Field(i)
			// Unexported fields are reached through their address.
			f = reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
			f.Set(c.copy(f))
		}
		return out
	}
	return v
}

// needsDeepCopy reports whether a plain assignment of a t value could alias
// memory. Slices are included because their backing array is shared.
func needsDeepCopy(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return false
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		return true
	case reflect.Array:
		return needsDeepCopy(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if needsDeepCopy(t.Field(i).Type) {
				return true
			}
		}
		return false
	}
	return false
}

// =============================================================================
// Task naming
// =============================================================================

type namedTask interface {
	TaskName() string
}

// TaskName resolves a human-readable name for task, used in execution records.
func TaskName(task Task) string {
	switch t := task.(type) {
	case nil:
		return "anonymous"
	case namedTask:
		if n := t.TaskName(); n != "" {
			return n
		}
	case TaskFunc:
		return funcName(reflect.ValueOf(t))
	}
	return fmt.Sprintf("%T", task)
}

func funcName(v reflect.Value) string {
	if v.Kind() != reflect.Func || v.IsNil() {
		return "anonymous"
	}
	fn := runtime.FuncForPC(v.Pointer())
	if fn == nil || fn.Name() == "" {
		return "anonymous"
	}
	return fn.Name()
}

// =============================================================================
// Context Helper
// =============================================================================

type workerKeyType struct{}

var workerKey workerKeyType

// GetCurrentWorker returns the WorkerThread executing the task that owns ctx,
// or nil when ctx did not come from a worker.
func GetCurrentWorker(ctx context.Context) *WorkerThread {
	if v := ctx.Value(workerKey); v != nil {
		return v.(*WorkerThread)
	}
	return nil
}
