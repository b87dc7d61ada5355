/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package persistence

import (
	"reflect"

	"github.com/uptrace/bun/schema"
)

var boolType = reflect.TypeOf(false)

// snapshot returns a pointer to a copy of the struct entity points to. Pointer
// columns get their own copy of the pointee so in-place writes through the
// live entity stay visible to ChangedColumns.
func snapshot(table *schema.Table, entity any) any {
	v := reflect.ValueOf(entity).Elem()
	cp := reflect.New(v.Type())
	cp.Elem().Set(v)
	for _, f := range table.Fields {
		fv := cp.Elem().FieldByIndex(f.Index)
		if fv.Kind() != reflect.Pointer || fv.IsNil() {
			continue
		}
		dup := reflect.New(fv.Type().Elem())
		dup.Elem().Set(fv.Elem())
		fv.Set(dup)
	}
	return cp.Interface()
}

// valuesEqual compares two column values. Pointers compare by pointee and
// types with an Equal(T) bool method (time.Time, decimal.Decimal) use it.
func valuesEqual(a, b reflect.Value) bool {
	if a.Kind() == reflect.Pointer {
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		return valuesEqual(a.Elem(), b.Elem())
	}
	if !a.CanInterface() || !b.CanInterface() {
		return true
	}
	if m := a.MethodByName("Equal"); m.IsValid() {
		mt := m.Type()
		if mt.NumIn() == 1 && mt.In(0) == b.Type() && mt.NumOut() == 1 && mt.Out(0) == boolType {
			return m.Call([]reflect.Value{b})[0].Bool()
		}
	}
	return reflect.DeepEqual(a.Interface(), b.Interface())
}
