package loader

import (
	"fmt"
	"reflect"

	"golang.org/x/xerrors"

	"github.com/curiostorage/alerthub/alertmanager/plugin"
	"github.com/curiostorage/alerthub/deps/config"
)

var (
	propsType = reflect.TypeOf((*config.Props)(nil))
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// Instantiate builds the alerter for m from the resolved entry type.
//
// The symbol must be a function taking the plugin configuration (*config.Props,
// or an interface it satisfies such as config.Source) and returning the
// alerter, optionally followed by an error. Shared modules export function
// variables as pointers; those are dereferenced first.
func Instantiate(m *Manifest, r *Resolved) (*plugin.Descriptor, error) {
	ctor, err := constructorOf(r.Symbol)
	if err != nil {
		return nil, xerrors.Errorf("%s: %s: %w", m.Dir, m.EntryType, err)
	}

	inst, err := construct(ctor, m.Props)
	if err != nil {
		return nil, xerrors.Errorf("%s: constructing %s: %w", m.Dir, m.EntryType, err)
	}

	alerter, ok := inst.(plugin.Plugin)
	if !ok || alerter == nil || isNilValue(inst) {
		return nil, xerrors.Errorf("%s: %s returned %T: %w", m.Dir, m.EntryType, inst, ErrCapabilityMismatch)
	}

	return &plugin.Descriptor{
		Name:    m.Name,
		Alerter: alerter,
		Origin:  r.Origin,
	}, nil
}

func constructorOf(sym interface{}) (reflect.Value, error) {
	v := reflect.ValueOf(sym)
	for v.IsValid() && v.Kind() == reflect.Ptr && !v.IsNil() && v.Elem().Kind() == reflect.Func {
		v = v.Elem()
	}
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return reflect.Value{}, xerrors.Errorf("symbol of type %T is not a function: %w", sym, ErrConstructorMissing)
	}

	t := v.Type()
	if t.NumIn() != 1 || t.IsVariadic() || !propsType.AssignableTo(t.In(0)) {
		return reflect.Value{}, xerrors.Errorf("%s does not take the plugin configuration as its only argument: %w", t, ErrConstructorMissing)
	}
	switch t.NumOut() {
	case 1:
	case 2:
		if t.Out(1) != errorType {
			return reflect.Value{}, xerrors.Errorf("%s: second result must be error: %w", t, ErrConstructorMissing)
		}
	default:
		return reflect.Value{}, xerrors.Errorf("%s must return the alerter and an optional error: %w", t, ErrConstructorMissing)
	}
	return v, nil
}

// construct calls ctor, turning a returned error or a panic into ErrInstantiationFailed.
func construct(ctor reflect.Value, props *config.Props) (inst interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = xerrors.Errorf("panic: %v: %w", r, ErrInstantiationFailed)
		}
	}()

	out := ctor.Call([]reflect.Value{reflect.ValueOf(props)})
	if len(out) == 2 && !out[1].IsNil() {
		cerr := out[1].Interface().(error)
		return nil, &instantiationError{cause: cerr}
	}
	return out[0].Interface(), nil
}

// instantiationError keeps the constructor's own error reachable through
// errors.Is/As next to ErrInstantiationFailed.
type instantiationError struct {
	cause error
}

func (e *instantiationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInstantiationFailed, e.cause)
}

func (e *instantiationError) Unwrap() []error {
	return []error{ErrInstantiationFailed, e.cause}
}

func isNilValue(i interface{}) bool {
	v := reflect.ValueOf(i)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}
