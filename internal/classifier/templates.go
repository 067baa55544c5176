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
	"fmt"
	"strings"
)

// Pass is one classification run over a vocabulary.
type Pass struct {
	Name       string
	Template   string // fmt verb %s receives the vocabulary entry.
	Vocabulary []string
	TopK       int
	Threshold  float64
}

// Phrases renders the template for every vocabulary entry.
func (p Pass) Phrases() []string {
	out := make([]string, len(p.Vocabulary))
	for i, v := range p.Vocabulary {
		out[i] = fmt.Sprintf(p.Template, v)
	}
	return out
}

var ContentPass = Pass{
	Name:     "content",
	Template: "a photo of %s",
	Vocabulary: []string{
		"person", "people", "car", "vehicle", "animal",
		"building", "landscape", "food", "indoor scene", "outdoor scene",
	},
	TopK:      3,
	Threshold: 0.10,
}

var ContextPass = Pass{
	Name:     "context",
	Template: "a photo %s",
	Vocabulary: []string{
		"at daytime", "at night", "in a city", "in nature",
		"in a formal setting", "in a casual setting",
	},
	TopK:      2,
	Threshold: 0.15,
}

// ComposeSentence builds the caption from the selected labels. At most two
// content labels and one context are used.
func ComposeSentence(content []string, context []string) string {
	var b strings.Builder
	b.WriteString("This image shows ")
	switch len(content) {
	case 0:
		b.WriteString("a scene")
	case 1:
		fmt.Fprintf(&b, "a %s", content[0])
	default:
		fmt.Fprintf(&b, "a %s and a %s", content[0], content[1])
	}
	if len(context) > 0 {
		b.WriteString(" ")
		b.WriteString(context[0])
	}
	b.WriteString(".")
	return b.String()
}
