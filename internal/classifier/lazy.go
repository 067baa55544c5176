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

package classifier

import (
	"context"
	"sync"
)

// Describer is satisfied by *Classifier and *Lazy.
type Describer interface {
	Describe(ctx context.Context, image []byte) (*Description, error)
}

// Lazy defers construction of a Classifier until first use. Every caller
// observes the same instance, and a construction failure is returned to every
// caller without a second attempt.
type Lazy struct {
	once    sync.Once
	factory func() (*Classifier, error)
	value   *Classifier
	err     error
}

// NewLazy defers factory until the first Get or Describe.
func NewLazy(factory func() (*Classifier, error)) *Lazy {
	return &Lazy{factory: factory}
}

// Get builds the classifier on first use. A factory error is cached and
// returned on every later call.
func (l *Lazy) Get() (*Classifier, error) {
	l.once.Do(func() {
		l.value, l.err = l.factory()
	})
	return l.value, l.err
}

// Describe loads the classifier if needed and describes image.
func (l *Lazy) Describe(ctx context.Context, image []byte) (*Description, error) {
	c, err := l.Get()
	if err != nil {
		return nil, err
	}
	return c.Describe(ctx, image)
}
