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

import "errors"

var (
	ErrNilDB             = errors.New("persistence: nil database")
	ErrNilSession        = errors.New("persistence: nil session")
	ErrSessionClosed     = errors.New("persistence: session closed")
	ErrTransactionActive = errors.New("persistence: a transaction is already active")
	ErrNoTransaction     = errors.New("persistence: no active transaction")
	ErrTransactionDone   = errors.New("persistence: transaction already completed")
	ErrAlreadyTracked    = errors.New("persistence: another instance with the same key is already tracked")
)
