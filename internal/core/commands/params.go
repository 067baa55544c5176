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

// Package commands holds the cor.Command implementations the workflows are
// assembled from. Commands exchange data through the context keys below.
package commands

// Context keys shared between commands.
const (
	ParamUpload      = "__UPLOAD__"      // *UploadedFile
	ParamUploads     = "__UPLOADS__"     // []*UploadedFile, nil for empty slots
	ParamText        = "__TEXT__"        // string, template field .Text
	ParamQuestion    = "__QUESTION__"    // string, template field .Question
	ParamRequest     = "__REQUEST__"     // *model.ModelRequest
	ParamResponse    = "__RESPONSE__"    // model.ModelResponse
	ParamFrames      = "__FRAMES__"      // []*model.VideoFrame
	ParamSummaries   = "__SUMMARIES__"   // []string
	ParamDescription = "__DESCRIPTION__" // *classifier.Description
	ParamArchived    = "__ARCHIVED__"    // string, object name in the archive bucket
	ParamInteraction = "__INTERACTION__" // *model.Interaction
	ParamReference   = "__REFERENCE__"   // *model.Attachment with a FileURI
)

const (
	DefaultKeyFrameCount = 5
	TempFilePrefix       = "summarizer-"
)

// UploadedFile is a request upload spooled to local disk.
type UploadedFile struct {
	Path     string // Temp file path, removed by cor.Context.Close.
	Name     string // Client supplied file name.
	MIMEType string
}
