package agent

import (
	"fmt"
	"reflect"
)

// Binding declares one parameter of a callable: the pool name it draws from
// and whether the invocation may proceed without a value for it. Bindings are
// positional; the i-th binding feeds the i-th function parameter.
type Binding struct {
	Name     string
	Optional bool
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

// boundCallable pairs a reflected function with its parameter manifest so it
// can be invoked against a named value pool.
type boundCallable struct {
	fn       reflect.Value
	bindings []Binding
}

// bindCallable validates fn against its manifest. fn must be a func whose
// parameter count matches the bindings and whose results are one of:
// nothing, (T), (error), or (T, error).
func bindCallable(fn any, bindings []Binding) (*boundCallable, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return nil, fmt.Errorf("handler must be a function, got %T", fn)
	}

	t := v.Type()
	if t.IsVariadic() {
		return nil, fmt.Errorf("variadic handlers are not supported")
	}
	if t.NumIn() != len(bindings) {
		return nil, fmt.Errorf("handler takes %d parameters but %d are declared", t.NumIn(), len(bindings))
	}

	switch t.NumOut() {
	case 0, 1:
	case 2:
		if !t.Out(1).Implements(errType) {
			return nil, fmt.Errorf("handler's second result must be error, got %s", t.Out(1))
		}
	default:
		return nil, fmt.Errorf("handler returns %d values, want at most 2", t.NumOut())
	}

	return &boundCallable{fn: v, bindings: bindings}, nil
}

// resolve builds the argument list for one invocation. Each declared name is
// looked up in the pool; a missing required name aborts with
// MissingDependencyError, a missing optional name becomes the parameter's
// zero value. Names present in the pool but not declared are ignored.
func (c *boundCallable) resolve(pool map[string]any) ([]reflect.Value, error) {
	t := c.fn.Type()
	args := make([]reflect.Value, len(c.bindings))

	for i, b := range c.bindings {
		paramType := t.In(i)
		val, ok := pool[b.Name]
		if !ok {
			if !b.Optional {
				return nil, &MissingDependencyError{Param: b.Name}
			}
			args[i] = reflect.Zero(paramType)
			continue
		}
		arg, err := coerce(val, paramType)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", b.Name, err)
		}
		args[i] = arg
	}

	return args, nil
}

// coerce adapts a pool value to the parameter's static type. JSON decoding
// yields float64 for every number, so numeric conversions are applied when
// they do not change the value's meaning.
func coerce(val any, target reflect.Type) (reflect.Value, error) {
	if val == nil {
		return reflect.Zero(target), nil
	}

	v := reflect.ValueOf(val)
	if v.Type().AssignableTo(target) {
		return v, nil
	}
	if v.Type().ConvertibleTo(target) {
		switch target.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			if v.Kind() == reflect.Float64 || v.Kind() == reflect.Float32 || v.CanInt() || v.CanUint() {
				return v.Convert(target), nil
			}
		}
	}

	// []any -> []T and map[string]any -> map[string]T for homogeneous
	// payloads the model sends as JSON arrays and objects.
	switch target.Kind() {
	case reflect.Slice:
		if src, ok := val.([]any); ok {
			out := reflect.MakeSlice(target, len(src), len(src))
			for i, el := range src {
				ev, err := coerce(el, target.Elem())
				if err != nil {
					return reflect.Value{}, err
				}
				out.Index(i).Set(ev)
			}
			return out, nil
		}
	case reflect.Map:
		if src, ok := val.(map[string]any); ok && target.Key().Kind() == reflect.String {
			out := reflect.MakeMapWithSize(target, len(src))
			for k, el := range src {
				ev, err := coerce(el, target.Elem())
				if err != nil {
					return reflect.Value{}, err
				}
				out.SetMapIndex(reflect.ValueOf(k).Convert(target.Key()), ev)
			}
			return out, nil
		}
	}

	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", val, target)
}

// call resolves arguments from the pool and invokes the function. The first
// non-error result is returned as-is; a nil result with no error means the
// callable produced nothing.
func (c *boundCallable) call(pool map[string]any) (any, error) {
	args, err := c.resolve(pool)
	if err != nil {
		return nil, err
	}

	results := c.fn.Call(args)

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		if c.fn.Type().Out(0).Implements(errType) {
			if e, _ := results[0].Interface().(error); e != nil {
				return nil, e
			}
			return nil, nil
		}
		return results[0].Interface(), nil
	default:
		if e, _ := results[1].Interface().(error); e != nil {
			return nil, e
		}
		return results[0].Interface(), nil
	}
}
