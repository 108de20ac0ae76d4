// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package cache

import (
	"context"
	"time"
)

// Noop is the Store used when no backend is configured. Writes are dropped
// and every read reports absence.
type Noop struct{}

func (Noop) Has(context.Context, string) bool                   { return false }
func (Noop) Get(context.Context, string) ([]byte, bool)         { return nil, false }
func (Noop) Set(context.Context, string, []byte, time.Duration) {}
func (Noop) Delete(context.Context, string)                     {}
func (Noop) InvalidatePattern(context.Context, string)          {}
func (Noop) Clear(context.Context)                              {}
func (Noop) Close() error                                       { return nil }
