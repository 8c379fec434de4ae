// Package bridge converts values between the JSON data model produced by
// encoding/json and goja's native value model.
//
// Numbers are IEEE-754 doubles on both sides. Integers outside ±2^53 have
// already lost precision when the payload was decoded and are passed through
// as-is; the bridge does not try to recover them. Strings read back from the
// engine must be well-formed UTF-16: a lone surrogate has no UTF-8 encoding
// and is rejected.
package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"math/big"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dop251/goja"
)

const (
	// MaxDepth bounds nesting in both directions. It matches the nesting
	// limit of encoding/json's decoder.
	MaxDepth = 10000
	// MaxArrayLength bounds the length of arrays read back from the engine,
	// so that a sparse array such as `a.length = 1e9` cannot exhaust memory.
	MaxArrayLength = 1 << 24
	// MaxNodes bounds the number of values read back in one conversion. A
	// structure sharing references expands into a tree and can otherwise
	// grow exponentially.
	MaxNodes = 1 << 20
)

var (
	ErrCycle       = errors.New("cyclic structure")
	ErrTooDeep     = errors.New("nesting exceeds maximum depth")
	ErrTooLarge    = errors.New("value exceeds maximum size")
	ErrMalformed   = errors.New("string is not well-formed UTF-16")
	ErrUnsupported = errors.New("no JSON representation")
)

var proxyType = reflect.TypeOf(goja.Proxy{})

// ConversionError locates a conversion failure inside a value. Path uses
// JSONPath-like notation rooted at "$".
type ConversionError struct {
	Path string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

func conversionError(path string, err error) error {
	return &ConversionError{Path: path, Err: err}
}

// Bridge is bound to one runtime. It must be created before any untrusted
// code runs in that runtime so that the intrinsics it captures cannot be
// replaced by the script.
type Bridge struct {
	vm        *goja.Runtime
	describe  goja.Callable
	hasOwn    goja.Callable
	encodeURI goja.Callable
	valueKey  goja.Value
}

func New(vm *goja.Runtime) (*Bridge, error) {
	object := vm.Get("Object")
	if object == nil {
		return nil, errors.New("runtime has no Object intrinsic")
	}
	describe, ok := goja.AssertFunction(object.ToObject(vm).Get("getOwnPropertyDescriptor"))
	if !ok {
		return nil, errors.New("runtime has no Object.getOwnPropertyDescriptor intrinsic")
	}
	prototype := object.ToObject(vm).Get("prototype")
	if prototype == nil {
		return nil, errors.New("runtime has no Object.prototype intrinsic")
	}
	hasOwn, ok := goja.AssertFunction(prototype.ToObject(vm).Get("hasOwnProperty"))
	if !ok {
		return nil, errors.New("runtime has no Object.prototype.hasOwnProperty intrinsic")
	}
	encodeURI, ok := goja.AssertFunction(vm.Get("encodeURIComponent"))
	if !ok {
		return nil, errors.New("runtime has no encodeURIComponent intrinsic")
	}
	return &Bridge{
		vm:        vm,
		describe:  describe,
		hasOwn:    hasOwn,
		encodeURI: encodeURI,
		valueKey:  vm.ToValue("value"),
	}, nil
}

// ToEngine converts a decoded JSON value into a native engine value. Objects
// become plain objects whose keys are own data properties, so a "__proto__"
// key is kept as data the same way JSON.parse keeps it.
func (b *Bridge) ToEngine(v any) (goja.Value, error) {
	return b.toEngine(v, "$", 0)
}

func (b *Bridge) toEngine(v any, path string, depth int) (goja.Value, error) {
	if depth > MaxDepth {
		return nil, conversionError(path, ErrTooDeep)
	}

	switch val := v.(type) {
	case nil:
		return goja.Null(), nil
	case bool:
		return b.vm.ToValue(val), nil
	case float64:
		return b.vm.ToValue(val), nil
	case int:
		return b.vm.ToValue(val), nil
	case int64:
		return b.vm.ToValue(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, conversionError(path, err)
		}
		return b.vm.ToValue(f), nil
	case string:
		return b.vm.ToValue(val), nil
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			ev, err := b.toEngine(item, indexPath(path, i), depth+1)
			if err != nil {
				return nil, err
			}
			items[i] = ev
		}
		return b.vm.NewArray(items...), nil
	case map[string]any:
		obj := b.vm.NewObject()
		for _, key := range slices.Sorted(maps.Keys(val)) {
			ev, err := b.toEngine(val[key], keyPath(path, key), depth+1)
			if err != nil {
				return nil, err
			}
			if err := obj.DefineDataProperty(key, ev, goja.FLAG_TRUE, goja.FLAG_TRUE, goja.FLAG_TRUE); err != nil {
				return nil, conversionError(keyPath(path, key), err)
			}
		}
		return obj, nil
	default:
		return nil, conversionError(path, fmt.Errorf("%w: unsupported Go type %T", ErrUnsupported, v))
	}
}

// FromEngine converts a native engine value back into the JSON data model:
// nil, bool, float64, string, []any and map[string]any. undefined is
// reported as nil.
//
// Conversion never runs script code: accessor properties, proxies and
// objects other than plain objects and arrays are rejected instead of being
// observed.
func (b *Bridge) FromEngine(v goja.Value) (any, error) {
	w := &walker{
		bridge: b,
		path:   make(map[*goja.Object]struct{}),
	}
	return w.value(v, "$")
}

// walker holds the state of one FromEngine call. path is the set of objects
// on the way from the root to the current value.
type walker struct {
	bridge *Bridge
	path   map[*goja.Object]struct{}
	nodes  int
}

func (w *walker) value(v goja.Value, path string) (any, error) {
	w.nodes++
	if w.nodes > MaxNodes {
		return nil, conversionError(path, ErrTooLarge)
	}

	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		return w.bridge.primitive(v, path)
	}

	if _, ok := goja.AssertFunction(obj); ok {
		return nil, conversionError(path, fmt.Errorf("%w: function", ErrUnsupported))
	}
	if obj.ExportType() == proxyType {
		return nil, conversionError(path, fmt.Errorf("%w: proxy", ErrUnsupported))
	}
	if _, seen := w.path[obj]; seen {
		return nil, conversionError(path, ErrCycle)
	}
	if len(w.path) >= MaxDepth {
		return nil, conversionError(path, ErrTooDeep)
	}
	w.path[obj] = struct{}{}
	defer delete(w.path, obj)

	switch class := obj.ClassName(); class {
	case "Array":
		return w.array(obj, path)
	case "Object":
		return w.object(obj, path)
	default:
		return nil, conversionError(path, fmt.Errorf("%w: %s object", ErrUnsupported, class))
	}
}

func (b *Bridge) primitive(v goja.Value, path string) (any, error) {
	if _, ok := v.(*goja.Symbol); ok {
		return nil, conversionError(path, fmt.Errorf("%w: symbol", ErrUnsupported))
	}

	switch val := v.Export().(type) {
	case bool:
		return val, nil
	case string:
		if err := b.wellFormed(v, val); err != nil {
			return nil, conversionError(path, err)
		}
		return val, nil
	case int64:
		return float64(val), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, conversionError(path, fmt.Errorf("%w: %s", ErrUnsupported, v.String()))
		}
		return val, nil
	case *big.Int:
		return nil, conversionError(path, fmt.Errorf("%w: bigint", ErrUnsupported))
	default:
		return nil, conversionError(path, fmt.Errorf("%w: %T", ErrUnsupported, val))
	}
}

// wellFormed rejects strings holding a lone surrogate. Export replaces those
// with U+FFFD, so only strings containing it are checked, through the
// captured encodeURIComponent which throws on a lone surrogate.
func (b *Bridge) wellFormed(v goja.Value, exported string) error {
	if !strings.ContainsRune(exported, utf8.RuneError) {
		return nil
	}
	if _, err := b.encodeURI(goja.Undefined(), v); err != nil {
		return ErrMalformed
	}
	return nil
}

func (w *walker) array(obj *goja.Object, path string) (any, error) {
	length := obj.Get("length").ToInteger()
	if length > MaxArrayLength {
		return nil, conversionError(path, fmt.Errorf("array length %d exceeds %d", length, MaxArrayLength))
	}

	list := make([]any, length)
	for i := range list {
		item, err := w.bridge.property(obj, strconv.Itoa(i), indexPath(path, i))
		if err != nil {
			return nil, err
		}
		list[i], err = w.value(item, indexPath(path, i))
		if err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (w *walker) object(obj *goja.Object, path string) (any, error) {
	keys := obj.Keys()
	m := make(map[string]any, len(keys))
	for _, key := range keys {
		value, err := w.bridge.property(obj, key, keyPath(path, key))
		if err != nil {
			return nil, err
		}
		m[key], err = w.value(value, keyPath(path, key))
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// property reads an own data property through the captured
// Object.getOwnPropertyDescriptor so that getters are never invoked.
// A missing property (an array hole) reads as undefined.
//
// An accessor descriptor has no own "value", and reading it would fall
// through to Object.prototype, which the script may have changed. Only an
// own "value" is read.
func (b *Bridge) property(obj *goja.Object, key string, path string) (goja.Value, error) {
	desc, err := b.describe(goja.Undefined(), obj, b.vm.ToValue(key))
	if err != nil {
		return nil, conversionError(path, err)
	}
	if goja.IsUndefined(desc) {
		return goja.Undefined(), nil
	}
	own, err := b.hasOwn(desc, b.valueKey)
	if err != nil {
		return nil, conversionError(path, err)
	}
	if !own.ToBoolean() {
		return nil, conversionError(path, fmt.Errorf("%w: accessor property", ErrUnsupported))
	}
	return desc.ToObject(b.vm).Get("value"), nil
}

func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

func keyPath(path string, key string) string {
	return path + "." + key
}
