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

package commands

import (
	"github.com/jaycherian/gcp-go-media-summarizer/internal/cloud"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-summarizer/internal/core/model"
)

// MediaReference lets a Vertex AI model read the triggering object straight
// from Cloud Storage instead of receiving its bytes inline, which keeps
// large videos under the request size limit.
type MediaReference struct {
	cor.BaseCommand
}

// NewMediaReference passes a GCS object to the model by URI.
func NewMediaReference(name string) *MediaReference {
	out := &MediaReference{BaseCommand: *cor.NewBaseCommand(name)}
	out.WithParams(cloud.GetGCSObjectName(), ParamReference)
	return out
}

// Execute outputs the object as a URI attachment.
func (v *MediaReference) Execute(context cor.Context) {
	obj := context.Get(v.GetInputParam()).(*cloud.GCSObject)
	v.Succeed(context, &model.Attachment{MIMEType: obj.MIMEType, FileURI: obj.URI()})
}
