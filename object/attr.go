package object

import "fmt"

// AttrGetter is implemented by objects that support GetAttr path
// resolution. Currently only HashTable does; other variants fail with
// an attribute error through ResolveGetAttr below.
type AttrGetter interface {
	ResolveGetAttr(path []string) (Object, error)
}

// AttrCaller is implemented by objects that support CallAttr: resolving
// a path to a built-in method and invoking it with arguments. Currently
// only HashTable does.
type AttrCaller interface {
	ResolveCallAttr(path []string, args []Object) (Object, error)
}

// ResolveGetAttr dispatches GetAttr to the object's own resolver,
// failing with an attribute error for objects with no attributes.
func ResolveGetAttr(obj Object, path []string) (Object, error) {
	getter, ok := obj.(AttrGetter)
	if !ok {
		return nil, fmt.Errorf("%s has no attributes", obj.Type())
	}
	return getter.ResolveGetAttr(path)
}

// ResolveCallAttr dispatches CallAttr to the object's own resolver,
// failing with an attribute error for objects with no callable
// attributes.
func ResolveCallAttr(obj Object, path []string, args []Object) (Object, error) {
	caller, ok := obj.(AttrCaller)
	if !ok {
		return nil, fmt.Errorf("%s has no callable attributes", obj.Type())
	}
	return caller.ResolveCallAttr(path, args)
}
