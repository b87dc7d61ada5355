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

// Package idgen provides key generators that assign identities before an
// entity is persisted.
package idgen

import "github.com/google/uuid"

// Generator returns a new unique key on every call.
type Generator[K comparable] interface {
	NextID() (K, error)
}

// Func adapts a function to Generator.
type Func[K comparable] func() (K, error)

func (f Func[K]) NextID() (K, error) { return f() }

// UUID generates random version 4 UUIDs.
type UUID struct{}

func (UUID) NextID() (uuid.UUID, error) { return uuid.NewRandom() }

// UUIDString generates version 7 UUIDs in canonical string form, which sort
// by creation time.
type UUIDString struct{}

func (UUIDString) NextID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
