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

package utils

import (
	"os"

	"github.com/spf13/cast"
)

// EnvDefaultString returns the variable's value, or def when it is unset or empty.
func EnvDefaultString(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// EnvDefaultBool accepts anything cast understands as a bool ("1", "t", "true").
func EnvDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return b
}

// EnvDefaultInt accepts decimal, 0x and 0o prefixed values and "8.0".
func EnvDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return def
	}
	return n
}
