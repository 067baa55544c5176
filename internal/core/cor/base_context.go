// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
)

// BaseContext is the map backed Context used by every workflow. It is not
// safe for concurrent use; parallel work uses one BaseContext per goroutine.
type BaseContext struct {
	data      map[string]interface{}
	errors    map[string]error
	tempFiles []string
	context   context.Context
}

// NewBaseContext creates an empty context with no Go context set. Use
// NewContextWith when commands need one.
//
// Outputs:
//   - Context: The new context.
func NewBaseContext() Context {
	return &BaseContext{
		data:      make(map[string]interface{}),
		errors:    make(map[string]error),
		tempFiles: make([]string, 0),
	}
}

// NewContextWith returns a BaseContext bound to ctx.
func NewContextWith(ctx context.Context) Context {
	c := NewBaseContext()
	c.SetContext(ctx)
	return c
}

// SetContext replaces the underlying Go context. Chains use it to carry
// their span to the commands.
//
// Inputs:
//   - context: The Go context to set.
func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

// GetContext returns the underlying Go context.
//
// Outputs:
//   - context.Context: The current Go context.
func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Close removes every tracked temporary file. Removal errors are logged and
// otherwise ignored.
func (c *BaseContext) Close() {
	for _, file := range c.tempFiles {
		if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove temporary file", "file", file, "error", err)
		}
	}
	c.tempFiles = c.tempFiles[:0]
}

// Add stores value under key, replacing any previous value.
//
// Inputs:
//   - key: The key to store under.
//   - value: The value to store.
//
// Outputs:
//   - Context: The context, for fluent use.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

// AddTempFile registers a file for removal on Close.
//
// Inputs:
//   - file: The path of the temporary file.
func (c *BaseContext) AddTempFile(file string) {
	c.tempFiles = append(c.tempFiles, file)
}

// GetTempFiles returns the tracked temporary files.
//
// Outputs:
//   - []string: The file paths, in registration order.
func (c *BaseContext) GetTempFiles() []string {
	return c.tempFiles
}

// AddError records err under key, usually the failing command name.
//
// Inputs:
//   - key: The command name.
//   - err: The error to record.
func (c *BaseContext) AddError(key string, err error) {
	c.errors[key] = err
}

// GetErrors returns the recorded errors keyed by command name.
//
// Outputs:
//   - map[string]error: The error map. Callers must not modify it.
func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

// Err joins the recorded errors in key order so the message is stable.
func (c *BaseContext) Err() error {
	if len(c.errors) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.errors))
	for k := range c.errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	errs := make([]error, 0, len(keys))
	for _, k := range keys {
		errs = append(errs, fmt.Errorf("%s: %w", k, c.errors[k]))
	}
	return errors.Join(errs...)
}

// Get returns the value stored under key, or nil.
//
// Inputs:
//   - key: The key to look up.
//
// Outputs:
//   - interface{}: The stored value.
func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

// Remove deletes key from the context.
//
// Inputs:
//   - key: The key to delete.
func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

// HasErrors reports whether any command recorded an error.
//
// Outputs:
//   - bool: True when at least one error was recorded.
func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}

// Value returns the value under key when it holds a T.
func Value[T any](context Context, key string) (T, bool) {
	v, ok := context.Get(key).(T)
	return v, ok
}
