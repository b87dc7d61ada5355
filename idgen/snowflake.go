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

package idgen

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	// 2023-01-01 00:00:00 UTC in milliseconds.
	epoch int64 = 1672531200000

	workerIDBits     = 5
	datacenterIDBits = 5
	sequenceBits     = 12

	maxWorkerID     = -1 ^ (-1 << workerIDBits)
	maxDatacenterID = -1 ^ (-1 << datacenterIDBits)
	maxSequence     = -1 ^ (-1 << sequenceBits)

	workerIDShift      = sequenceBits
	datacenterIDShift  = sequenceBits + workerIDBits
	timestampLeftShift = sequenceBits + workerIDBits + datacenterIDBits
)

var ErrClockMovedBackwards = errors.New("idgen: clock moved backwards")

// Snowflake produces time-ordered int64 keys unique per (datacenter, worker).
type Snowflake struct {
	mux           sync.Mutex
	datacenterID  int64
	workerID      int64
	sequence      int64
	lastTimestamp int64
	now           func() int64
}

func NewSnowflake(datacenterID, workerID int64) (*Snowflake, error) {
	if datacenterID < 0 || datacenterID > maxDatacenterID {
		return nil, fmt.Errorf("idgen: datacenter id %d out of range [0,%d]", datacenterID, maxDatacenterID)
	}
	if workerID < 0 || workerID > maxWorkerID {
		return nil, fmt.Errorf("idgen: worker id %d out of range [0,%d]", workerID, maxWorkerID)
	}
	return &Snowflake{
		datacenterID:  datacenterID,
		workerID:      workerID,
		lastTimestamp: -1,
		now:           func() int64 { return time.Now().UnixMilli() },
	}, nil
}

func (g *Snowflake) NextID() (int64, error) {
	g.mux.Lock()
	defer g.mux.Unlock()

	now := g.now()
	if now < g.lastTimestamp {
		return 0, fmt.Errorf("%w: %dms", ErrClockMovedBackwards, g.lastTimestamp-now)
	}
	if now == g.lastTimestamp {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			for now <= g.lastTimestamp {
				now = g.now()
			}
		}
	} else {
		g.sequence = 0
	}
	g.lastTimestamp = now

	return ((now - epoch) << timestampLeftShift) |
		(g.datacenterID << datacenterIDShift) |
		(g.workerID << workerIDShift) |
		g.sequence, nil
}

// SnowflakeParts is the decoded form of a snowflake key.
type SnowflakeParts struct {
	Time         time.Time
	DatacenterID int64
	WorkerID     int64
	Sequence     int64
}

func ParseSnowflake(id int64) SnowflakeParts {
	return SnowflakeParts{
		Time:         time.UnixMilli((id >> timestampLeftShift) + epoch).UTC(),
		DatacenterID: (id >> datacenterIDShift) & maxDatacenterID,
		WorkerID:     (id >> workerIDShift) & maxWorkerID,
		Sequence:     id & maxSequence,
	}
}
