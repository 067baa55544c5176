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

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Dashboard registers the reporting routes under r.
func Dashboard(r *gin.RouterGroup, stats StatsSource, archive URLSigner) {
	r.GET("/stats", func(c *gin.Context) {
		if stats == nil {
			notConfigured(c, "stats")
			return
		}
		counts, err := stats.SectionStats(c.Request.Context())
		if err != nil {
			serverError(c, err)
			return
		}
		c.JSON(http.StatusOK, counts)
	})

	r.GET("/archive/:name/url", func(c *gin.Context) {
		if archive == nil {
			notConfigured(c, "archive")
			return
		}
		url, err := archive.SignedURL(c.Request.Context(), c.Param("name"), SignedURLTTL)
		if err != nil {
			serverError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url})
	})
}
