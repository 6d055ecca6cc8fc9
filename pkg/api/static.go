// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

// cacheControlWriter sets Cache-Control from the request path right before
// the header is written.
type cacheControlWriter struct {
	http.ResponseWriter
	path        string
	wroteHeader bool
}

func cacheControlFor(path string) string {
	switch {
	case strings.HasPrefix(path, "/assets/"):
		// bundler output carries a content hash in the name
		return "public, max-age=31536000, immutable"
	case strings.HasSuffix(path, ".html"):
		return "no-cache, must-revalidate"
	case strings.HasPrefix(path, "/images/"):
		return "public, max-age=86400"
	default:
		return "public, max-age=3600, must-revalidate"
	}
}

func (w *cacheControlWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		if statusCode < http.StatusBadRequest {
			w.Header().Set("Cache-Control", cacheControlFor(w.path))
		}
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *cacheControlWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// ServeStatic serves files below directory at urlPrefix. Requests for
// anything that is not a file there fall through to the next handler, and
// directory listings are never produced.
func ServeStatic(urlPrefix, directory string) gin.HandlerFunc {
	fs := static.LocalFile(directory, false)
	fileserver := http.FileServer(fs)
	if urlPrefix != "" {
		fileserver = http.StripPrefix(urlPrefix, fileserver)
	}
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			return
		}
		path := c.Request.URL.Path
		if path == urlPrefix || strings.HasSuffix(path, "/") || !fs.Exists(urlPrefix, path) {
			return
		}
		fileserver.ServeHTTP(&cacheControlWriter{ResponseWriter: c.Writer, path: path}, c.Request)
		c.Abort()
	}
}
