// Package router dispatches requests by method and path pattern. Patterns
// use {name} placeholders that match exactly one path segment; matching is
// anchored, first registered match wins, and captured segments are handed
// to the handler positionally in pattern order.
package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tallpine/shopcore"
)

// ErrRouteNotFound is returned by [Router.Dispatch] when no registered
// pattern matches the method and path.
var ErrRouteNotFound = fmt.Errorf("%w: route not found", shopcore.ErrNotFound)

// HandlerFunc handles one dispatched request. params holds the captured
// segments in pattern order.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, params []string)

type segment struct {
	literal  string
	wildcard bool
}

type route struct {
	method   string
	segments []segment
	handler  HandlerFunc
}

// Router holds the registered routes. Registration is not safe for
// concurrent use; dispatch is, once registration is done.
type Router struct {
	routes   []route
	notFound HandlerFunc
}

// New creates an empty Router.
func New() *Router {
	return &Router{}
}

// Handle registers handler for the given method and pattern. It panics on
// a malformed pattern, mirroring net/http mux behavior for programmer
// errors.
func (rt *Router) Handle(method, pattern string, handler HandlerFunc) {
	if method == "" || handler == nil {
		panic("router: method and handler are required")
	}
	if !strings.HasPrefix(pattern, "/") {
		panic(fmt.Sprintf("router: pattern %q must begin with '/'", pattern))
	}

	parts := splitPath(pattern)
	segments := make([]segment, len(parts))
	for i, p := range parts {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") && len(p) > 2 {
			segments[i] = segment{wildcard: true}
			continue
		}
		if strings.ContainsAny(p, "{}") {
			panic(fmt.Sprintf("router: malformed segment %q in pattern %q", p, pattern))
		}
		segments[i] = segment{literal: p}
	}

	rt.routes = append(rt.routes, route{
		method:   strings.ToUpper(method),
		segments: segments,
		handler:  handler,
	})
}

// NotFound sets the handler invoked by ServeHTTP when dispatch fails.
func (rt *Router) NotFound(handler HandlerFunc) {
	rt.notFound = handler
}

// Dispatch selects the first route whose method and full path match,
// returning its handler and captured segments. A miss across every route
// yields [ErrRouteNotFound], whether the method is unknown or only the
// path differs.
func (rt *Router) Dispatch(method, path string) (HandlerFunc, []string, error) {
	method = strings.ToUpper(method)
	parts := splitPath(path)

	for _, r := range rt.routes {
		if r.method != method || len(r.segments) != len(parts) {
			continue
		}
		var params []string
		matched := true
		for i, seg := range r.segments {
			if seg.wildcard {
				if parts[i] == "" {
					matched = false
					break
				}
				params = append(params, parts[i])
				continue
			}
			if seg.literal != parts[i] {
				matched = false
				break
			}
		}
		if matched {
			return r.handler, params, nil
		}
	}
	return nil, nil, ErrRouteNotFound
}

// ServeHTTP adapts the router to net/http.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler, params, err := rt.Dispatch(r.Method, r.URL.Path)
	if err != nil {
		if rt.notFound != nil {
			rt.notFound(w, r, nil)
			return
		}
		http.NotFound(w, r)
		return
	}
	handler(w, r, params)
}

// splitPath strips only the leading slash so a trailing slash or a doubled
// slash yields an empty segment and the path misses every pattern.
func splitPath(p string) []string {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
