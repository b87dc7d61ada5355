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
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Transaction is the handle of a session's explicit transaction.
type Transaction struct {
	id        string
	tx        bun.Tx
	session   *Session
	startedAt time.Time
	done      bool
}

func (t *Transaction) ID() string { return t.id }

func (t *Transaction) Tx() bun.Tx { return t.tx }

func (t *Transaction) Done() bool { return t.done }

// Commit makes everything flushed inside the transaction durable.
func (t *Transaction) Commit() error {
	if t.done {
		return ErrTransactionDone
	}
	t.finish()
	if err := t.tx.Commit(); err != nil {
		t.session.tracker.Clear()
		return fmt.Errorf("persistence: commit transaction: %w", err)
	}
	t.session.logger.Debug("transaction committed", "tx", t.id, "elapsed", time.Since(t.startedAt))
	return nil
}

// Rollback discards the transaction and detaches every tracked entity.
func (t *Transaction) Rollback() error {
	if t.done {
		return ErrTransactionDone
	}
	t.finish()
	t.session.tracker.Clear()
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("persistence: rollback transaction: %w", err)
	}
	t.session.logger.Debug("transaction rolled back", "tx", t.id, "elapsed", time.Since(t.startedAt))
	return nil
}

func (t *Transaction) finish() {
	t.done = true
	if t.session.tx == t {
		t.session.tx = nil
	}
}
