package namespace

import (
	"errors"
	"fmt"
	"reflect"
)

// bindTag names the endpoint a Func field is bound to
const bindTag = "rpc"

var funcType = reflect.TypeOf(Func(nil))

// Bind fills the tagged Func fields of the struct dst points to.
// A field whose endpoint the namespace does not serve is set to nil,
// so callers test support with a nil check.
//
//	var chain namespace.ChainAPI
//	if err := namespace.BindTable(table, "chain", &chain); err != nil { ... }
//	if chain.GetBlock != nil { ... }
func Bind(ns *Namespace, dst interface{}) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return errors.New("bind target must be a non-nil pointer to a struct")
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("bind target must point to a struct, got %s", v.Kind())
	}

	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		endpoint, ok := field.Tag.Lookup(bindTag)
		if !ok || endpoint == "" || endpoint == "-" {
			continue
		}
		if field.Type != funcType {
			return fmt.Errorf("field %s: tagged field must be of type namespace.Func", field.Name)
		}
		if !field.IsExported() {
			return fmt.Errorf("field %s: tagged field must be exported", field.Name)
		}

		var fn Func
		if ns != nil {
			fn, _ = ns.Get(endpoint)
		}
		v.Field(i).Set(reflect.ValueOf(fn))
	}

	return nil
}

// BindTable binds dst to the named namespace of t; a missing namespace binds all fields to nil
func BindTable(t *Table, namespace string, dst interface{}) error {
	ns, _ := t.Namespace(namespace)
	return Bind(ns, dst)
}

// ChainAPI is the typed view of the chain namespace
type ChainAPI struct {
	GetBlock         Func `rpc:"getBlock"`
	GetBlockHash     Func `rpc:"getBlockHash"`
	GetFinalizedHead Func `rpc:"getFinalizedHead"`
	GetHeader        Func `rpc:"getHeader"`
}

// SystemAPI is the typed view of the system namespace
type SystemAPI struct {
	AccountNextIndex Func `rpc:"accountNextIndex"`
	Chain            Func `rpc:"chain"`
	ChainType        Func `rpc:"chainType"`
	Health           Func `rpc:"health"`
	Name             Func `rpc:"name"`
	Properties       Func `rpc:"properties"`
	Version          Func `rpc:"version"`
}
