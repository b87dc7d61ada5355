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

import "github.com/uptrace/bun"

// Scope pairs a session with its unit of work for one logical operation.
type Scope struct {
	Session    *Session
	UnitOfWork UnitOfWork
}

func (s *Scope) Close() error { return s.UnitOfWork.Close() }

// Factory opens scopes over a shared *bun.DB. The DB is safe for concurrent
// use; each scope is not.
type Factory struct {
	db          *bun.DB
	sessionOpts []SessionOption
	uowOpts     []UnitOfWorkOption
}

func NewFactory(db *bun.DB) *Factory {
	return &Factory{db: db}
}

func (f *Factory) WithSessionOptions(opts ...SessionOption) *Factory {
	f.sessionOpts = append(f.sessionOpts, opts...)
	return f
}

func (f *Factory) WithUnitOfWorkOptions(opts ...UnitOfWorkOption) *Factory {
	f.uowOpts = append(f.uowOpts, opts...)
	return f
}

func (f *Factory) Open() (*Scope, error) {
	session, err := NewSession(f.db, f.sessionOpts...)
	if err != nil {
		return nil, err
	}
	uow, err := NewUnitOfWork(session, f.uowOpts...)
	if err != nil {
		return nil, err
	}
	return &Scope{Session: session, UnitOfWork: uow}, nil
}
