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

package cloud_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-media-summarizer/internal/cloud"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
	"github.com/stretchr/testify/assert"
)

type payloadCommand struct {
	cor.BaseCommand
	payload  string
	deadline bool
	err      error
}

func (c *payloadCommand) Execute(context cor.Context) {
	c.payload = context.Get(cor.CtxIn).(string)
	_, c.deadline = context.GetContext().Deadline()
	if c.err != nil {
		c.Fail(context, c.err)
	}
}

func TestProcess(t *testing.T) {
	assert.ErrorIs(t, cloud.Process(context.Background(), nil, 0, []byte("{}")), cloud.ErrNoCommand)

	ok := &payloadCommand{BaseCommand: *cor.NewBaseCommand("ok")}
	assert.NoError(t, cloud.Process(context.Background(), ok, 0, []byte(`{"name":"a.mp4"}`)))
	assert.Equal(t, `{"name":"a.mp4"}`, ok.payload)
	assert.False(t, ok.deadline)

	failing := &payloadCommand{BaseCommand: *cor.NewBaseCommand("failing"), err: errors.New("boom")}
	err := cloud.Process(context.Background(), failing, time.Minute, []byte("x"))
	assert.EqualError(t, err, "failing: boom")
	assert.True(t, failing.deadline)
}
