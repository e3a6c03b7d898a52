// Package pathutil maps request paths to metric labels.
package pathutil

import "strings"

// Other is the label for paths that match no route, so unknown URLs cannot grow label cardinality.
const Other = "other"

// routes lists the paths served by the API.
var routes = map[string]struct{}{
	"/":        {},
	"/parse":   {},
	"/health":  {},
	"/ready":   {},
	"/live":    {},
	"/metrics": {},
	"/history": {},
}

// prefixes maps route subtrees to one label.
var prefixes = []struct {
	prefix string
	label  string
}{
	{prefix: "/docs/", label: "/docs"},
}

// NormalizePath returns the route label for path.
//
//	NormalizePath("/parse")             // "/parse"
//	NormalizePath("/parse/")            // "/parse"
//	NormalizePath("/docs/index.html")   // "/docs"
//	NormalizePath("/wp-admin/login")    // "other"
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}

	for _, p := range prefixes {
		if strings.HasPrefix(path, p.prefix) || path == strings.TrimSuffix(p.prefix, "/") {
			return p.label
		}
	}

	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	if _, ok := routes[path]; ok {
		return path
	}
	return Other
}

// Cardinality returns the number of distinct labels NormalizePath can produce.
func Cardinality() int {
	return len(routes) + len(prefixes) + 1
}
