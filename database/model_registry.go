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

package database

import (
	"reflect"
	"sort"
	"sync"
)

// SQLModel represents a database model used for automatic migration.
// Instance should return a struct pointer compatible with Bun, and Priority
// controls creation order (lower values first).
type SQLModel interface {
	Instance() interface{}
	Priority() int
}

// IndexSpec declares a named index on a model's table.
type IndexSpec struct {
	Name    string
	Columns []string
	Unique  bool
}

// IndexedModel is implemented by model instances that declare indexes.
type IndexedModel interface {
	Indexes() []IndexSpec
}

// ModelRegistry stores SQL models and exposes them in a deterministic order.
type ModelRegistry interface {
	Register(models ...SQLModel)
	Models() []SQLModel
	Instances() []interface{}
}

type modelRegistry struct {
	models []SQLModel
	seen   map[reflect.Type]bool
	mutex  sync.RWMutex
}

func NewModelRegistry(models ...SQLModel) ModelRegistry {
	r := &modelRegistry{models: make([]SQLModel, 0, len(models)), seen: make(map[reflect.Type]bool)}
	r.Register(models...)
	return r
}

// Register adds models; a model whose instance type is already registered,
// or whose instance is nil, is skipped.
func (r *modelRegistry) Register(models ...SQLModel) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for _, model := range models {
		if model == nil || model.Instance() == nil {
			continue
		}
		typ := reflect.TypeOf(model.Instance())
		if r.seen[typ] {
			continue
		}
		r.seen[typ] = true
		r.models = append(r.models, model)
	}
}

// Models returns the registered models sorted by ascending priority; models
// with equal priority keep registration order.
func (r *modelRegistry) Models() []SQLModel {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]SQLModel, len(r.models))
	copy(result, r.models)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}

func (r *modelRegistry) Instances() []interface{} {
	models := r.Models()
	instances := make([]interface{}, len(models))
	for i, model := range models {
		instances[i] = model.Instance()
	}
	return instances
}

type ModelAdapter struct {
	instance interface{}
	priority int
}

// NewModelAdapter wraps a struct instance and priority into an SQLModel.
func NewModelAdapter(instance interface{}, priority int) SQLModel {
	return &ModelAdapter{
		instance: instance,
		priority: priority,
	}
}

func (a *ModelAdapter) Instance() interface{} {
	return a.instance
}

func (a *ModelAdapter) Priority() int {
	return a.priority
}
