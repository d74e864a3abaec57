package vm

import (
	"strconv"

	"github.com/icn-covm/governance-vm/covmerr"
	"github.com/icn-covm/governance-vm/value"
)

func (v *VM) opStoreP(key string) error {
	val, err := v.pop()
	if err != nil {
		return err
	}
	s, err := v.requireStore()
	if err != nil {
		return err
	}
	_, err = s.SetTyped(v.auth, v.namespace, key, []byte(val.String()), typeTagOf(val))
	if err != nil {
		return err
	}
	return nil
}

func (v *VM) opLoadP(key string) error {
	s, err := v.requireStore()
	if err != nil {
		return err
	}
	b, gotType, err := s.GetTyped(v.auth, v.namespace, key)
	if err != nil {
		return err
	}
	v.push(coerceTyped(string(b), gotType))
	return nil
}

func (v *VM) opStorePTyped(key, typ string) error {
	val, err := v.pop()
	if err != nil {
		return err
	}
	if !valueMatchesType(val, typ) {
		return covmerr.Newf(covmerr.KindValidationError, "value does not match declared type %q", typ)
	}
	s, err := v.requireStore()
	if err != nil {
		return err
	}
	_, err = s.SetTyped(v.auth, v.namespace, key, []byte(val.String()), typ)
	if err != nil {
		return err
	}
	return nil
}

func (v *VM) opLoadPTyped(key, typ string) error {
	s, err := v.requireStore()
	if err != nil {
		return err
	}
	b, gotType, err := s.GetTyped(v.auth, v.namespace, key)
	if err != nil {
		return err
	}
	if gotType != "" && gotType != typ {
		return covmerr.Newf(covmerr.KindValidationError, "stored type %q does not match requested type %q", gotType, typ)
	}
	v.push(coerceTyped(string(b), typ))
	return nil
}

func (v *VM) opKeyExistsP(key string) error {
	s, err := v.requireStore()
	if err != nil {
		return err
	}
	ok, err := s.Contains(v.auth, v.namespace, key)
	if err != nil {
		return err
	}
	v.push(value.Boolean(ok))
	return nil
}

func (v *VM) opListKeysP(prefix string) error {
	s, err := v.requireStore()
	if err != nil {
		return err
	}
	keys, err := s.ListKeys(v.auth, v.namespace, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		v.push(value.String(k))
	}
	v.push(value.Number(len(keys)))
	return nil
}

func (v *VM) opDeleteP(key string) error {
	s, err := v.requireStore()
	if err != nil {
		return err
	}
	return s.Delete(v.auth, v.namespace, key)
}

func typeTagOf(val value.Value) string {
	switch val.(type) {
	case value.Number:
		return "number"
	case value.String:
		return "string"
	case value.Boolean:
		return "boolean"
	case value.Null:
		return "null"
	default:
		return ""
	}
}

func valueMatchesType(val value.Value, typ string) bool {
	switch typ {
	case "number":
		_, ok := val.(value.Number)
		return ok
	case "string":
		_, ok := val.(value.String)
		return ok
	case "boolean":
		_, ok := val.(value.Boolean)
		return ok
	case "null":
		_, ok := val.(value.Null)
		return ok
	default:
		return true
	}
}

func coerceTyped(raw string, typ string) value.Value {
	switch typ {
	case "number":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return value.String(raw)
		}
		return value.Number(f)
	case "boolean":
		return value.Boolean(raw == "true")
	case "null":
		return value.Null{}
	default:
		return value.String(raw)
	}
}
