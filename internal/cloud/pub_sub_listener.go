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

package cloud

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrNoCommand is returned by Process when no command is attached.
var ErrNoCommand = errors.New("no command attached to listener")

// PubSubListener feeds the messages of one subscription to a command. A
// message is acknowledged only when the command completes without errors;
// otherwise it is left to expire and be redelivered.
type PubSubListener struct {
	subscription *pubsub.Subscription
	timeout      time.Duration
	command      cor.Command
}

// NewPubSubListener binds the subscription named in values. A positive
// timeout bounds the processing of each message, and at most
// maxOutstanding messages are processed at once.
func NewPubSubListener(pubsubClient *pubsub.Client, values TopicSubscription, maxOutstanding int) *PubSubListener {
	sub := pubsubClient.Subscription(values.Name)
	if maxOutstanding > 0 {
		sub.ReceiveSettings.MaxOutstandingMessages = maxOutstanding
	}
	timeout := time.Duration(values.TimeoutInSeconds) * time.Second
	if timeout > 0 {
		sub.ReceiveSettings.MaxExtension = timeout
	}
	return &PubSubListener{subscription: sub, timeout: timeout}
}

// SetCommand attaches the command once; later calls are ignored.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Process runs the attached command on one message payload.
func Process(ctx context.Context, command cor.Command, timeout time.Duration, data []byte) error {
	if command == nil {
		return ErrNoCommand
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	chainCtx := cor.NewContextWith(ctx)
	defer chainCtx.Close()
	chainCtx.Add(cor.CtxIn, string(data))
	command.Execute(chainCtx)
	return chainCtx.Err()
}

// Listen receives messages in the background until ctx is cancelled.
func (m *PubSubListener) Listen(ctx context.Context) {
	id := m.subscription.ID()
	slog.Info("listening", "subscription", id, "timeout", m.timeout)
	go func() {
		tracer := otel.Tracer("message-listener")
		err := m.subscription.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(msgCtx, "receive-message")
			defer span.End()
			span.SetAttributes(attribute.String("msg", string(msg.Data)), attribute.String("subscription", id))

			if err := Process(spanCtx, m.command, m.timeout, msg.Data); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed")
				slog.ErrorContext(spanCtx, "error executing chain", "subscription", id, "error", err)
				return
			}
			span.SetStatus(codes.Ok, "success")
			msg.Ack()
		})
		if err != nil {
			slog.Error("error receiving data", "subscription", id, "error", err)
		}
	}()
}
