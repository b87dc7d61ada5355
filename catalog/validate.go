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

package catalog

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// ValidationError reports the first invalid field of a product.
type ValidationError struct {
	No    string
	Field string
	Tag   string
	Param string
}

func (e *ValidationError) Error() string {
	switch e.Tag {
	case "required":
		return fmt.Sprintf("catalog: product %q: %s is required", e.No, e.Field)
	case "gt":
		return fmt.Sprintf("catalog: product %q: %s must be greater than %s", e.No, e.Field, e.Param)
	case "max":
		return fmt.Sprintf("catalog: product %q: %s must be at most %s characters", e.No, e.Field, e.Param)
	default:
		return fmt.Sprintf("catalog: product %q: %s failed %s validation", e.No, e.Field, e.Tag)
	}
}

// Validate checks the value constraints declared on s, a product or one of
// the input DTOs.
func Validate(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return &ValidationError{No: productNo(s), Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()}
}

func productNo(s interface{}) string {
	switch v := s.(type) {
	case *Product:
		return v.No
	case *CreateProductDto:
		return v.No
	}
	return ""
}
