// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

package api

import (
	"net/http"
	"path"
	"path/filepath"
	"strings"
)

// staticHandler serves the invitation front-end: the groom's site at the
// root and the bride's under /undangan/, both as SPAs with an index.html
// fallback for client-side routes.
type staticHandler struct {
	root http.Dir
}

func newStaticHandler(root string) *staticHandler {
	return &staticHandler{root: http.Dir(root)}
}

func (s *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// http.Dir refuses path traversal; Clean keeps the fallback choice
	// from being confused by dot segments.
	reqPath := path.Clean("/" + r.URL.Path)

	if s.exists(reqPath) {
		http.FileServer(s.root).ServeHTTP(w, r)
		return
	}

	index := "/index.html"
	if strings.HasPrefix(reqPath, "/undangan") {
		index = "/undangan/index.html"
	}
	if !s.exists(index) {
		http.NotFound(w, r)
		return
	}

	f, err := s.root.Open(index)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, filepath.Base(index), info.ModTime(), f)
}

// exists reports whether the path resolves to a regular file (or a
// directory holding an index.html, which FileServer serves itself).
func (s *staticHandler) exists(reqPath string) bool {
	f, err := s.root.Open(reqPath)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false
	}
	if !info.IsDir() {
		return true
	}

	idx, err := s.root.Open(path.Join(reqPath, "index.html"))
	if err != nil {
		return false
	}
	idx.Close()
	return true
}
