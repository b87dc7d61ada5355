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
	"context"
	"time"

	"github.com/tomoncle/productsvc/domain"
)

// Interceptor runs once per commit, before anything is written, with the
// Added, Modified and Deleted entries of the session.
type Interceptor interface {
	SavingChanges(ctx context.Context, entries []*Entry) error
}

type InterceptorFunc func(ctx context.Context, entries []*Entry) error

func (f InterceptorFunc) SavingChanges(ctx context.Context, entries []*Entry) error {
	return f(ctx, entries)
}

// DefaultClock is UTC wall time at microsecond precision, the finest
// resolution the supported backends store.
func DefaultClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// AuditInterceptor stamps DateTracked and UserTracked entities.
type AuditInterceptor struct {
	clock func() time.Time
}

func NewAuditInterceptor(clock func() time.Time) *AuditInterceptor {
	return &AuditInterceptor{clock: clock}
}

func (a *AuditInterceptor) now() time.Time {
	if a.clock == nil {
		return DefaultClock()
	}
	return a.clock().UTC()
}

func (a *AuditInterceptor) SavingChanges(ctx context.Context, entries []*Entry) error {
	now := a.now()
	actor, hasActor := domain.ActorFromContext(ctx)
	for _, e := range entries {
		switch e.State() {
		case Added:
			if dt, ok := e.Entity().(domain.DateTracked); ok {
				dt.SetCreatedDate(now)
				dt.SetLastModifiedDate(nil)
			}
			if ut, ok := e.Entity().(domain.UserTracked); ok && hasActor {
				ut.SetCreatedBy(actor)
			}
		case Modified:
			e.Exclude(e.PrimaryKeys()...)
			if dt, ok := e.Entity().(domain.DateTracked); ok {
				if orig, ok := e.Original().(domain.DateTracked); ok {
					dt.SetCreatedDate(orig.GetCreatedDate())
				}
				stamp := now
				dt.SetLastModifiedDate(&stamp)
			}
			if ut, ok := e.Entity().(domain.UserTracked); ok {
				if orig, ok := e.Original().(domain.UserTracked); ok {
					ut.SetCreatedBy(orig.GetCreatedBy())
				}
				if hasActor {
					ut.SetLastModifiedBy(actor)
				}
			}
		}
	}
	return nil
}
