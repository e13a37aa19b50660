// Package router models client-side navigation: the route table, the
// authentication guard, and a Navigator abstraction the state stores use
// to move between views without knowing about any rendering layer.
package router

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Route names known to the application.
const (
	NameHome            = "home"
	NameLogin           = "login"
	NameRegister        = "register"
	NameMemberUpdate    = "update"
	NameShortform       = "shortform"
	NameShortformDetail = "shortformDetail"
	NameShortformUpload = "shortformUpload"
	NameBoard           = "board"
	NameBoardRegist     = "boardRegist"
	NameBoardDetail     = "boardDetail"
	NameBoardUpdate     = "boardUpdate"
	NameTripmap         = "tripmap"
	NameTripmapDetail   = "tripmapDetail"
	NameTripmapRoute    = "tripmapRecommend"
)

// Sentinel pk values carried in the shortform detail route when there is
// nothing to show.
const (
	// PKError marks the detail route as an error display.
	PKError = "error"
	// PKNoVideos marks the detail route as an empty-result display.
	PKNoVideos = "no-videos"
)

// Route is a navigation target: either a named route with parameters, or a
// literal path (used when returning to a remembered URL after login).
type Route struct {
	// Name is the route name; empty when Path is set.
	Name string
	// Path is a literal path target; used only when Name is empty.
	Path string
	// Params are path parameters (":pk", ":page", ...).
	Params map[string]string
	// Query are query parameters ("source", "mapCategory", ...).
	Query url.Values
}

// definition describes one entry of the route table.
type definition struct {
	pattern      string
	requiresAuth bool
}

// table is the application route table. Patterns and auth metadata mirror
// the view layer's route configuration.
var table = map[string]definition{
	NameHome:            {pattern: "/"},
	NameLogin:           {pattern: "/login"},
	NameRegister:        {pattern: "/register"},
	NameMemberUpdate:    {pattern: "/update"},
	NameShortform:       {pattern: "/shortform/:page", requiresAuth: true},
	NameShortformDetail: {pattern: "/shortform/:page/detail/:pk", requiresAuth: true},
	NameShortformUpload: {pattern: "/shortform/:page/upload", requiresAuth: true},
	NameBoard:           {pattern: "/board", requiresAuth: true},
	NameBoardRegist:     {pattern: "/board/regist", requiresAuth: true},
	NameBoardDetail:     {pattern: "/board/detail/:id/:memberId", requiresAuth: true},
	NameBoardUpdate:     {pattern: "/board/update/:id", requiresAuth: true},
	NameTripmap:         {pattern: "/tripmap"},
	NameTripmapDetail:   {pattern: "/tripmap/mapdetail"},
	NameTripmapRoute:    {pattern: "/tripmap/recommend"},
}

// Known reports whether name is a registered route name.
func Known(name string) bool {
	_, ok := table[name]
	return ok
}

// RequiresAuth reports whether the named route is marked auth-required.
func RequiresAuth(name string) bool {
	return table[name].requiresAuth
}

// FullPath renders the route as a path plus encoded query string.
// Unresolved path parameters are left in place.
func (r Route) FullPath() string {
	path := r.Path
	if r.Name != "" {
		path = table[r.Name].pattern
		for k, v := range r.Params {
			path = strings.ReplaceAll(path, ":"+k, url.PathEscape(v))
		}
	}
	if len(r.Query) == 0 {
		return path
	}
	return path + "?" + encodeQuery(r.Query)
}

func (r Route) String() string {
	if r.Name != "" {
		return fmt.Sprintf("%s (%s)", r.Name, r.FullPath())
	}
	return r.FullPath()
}

// WithQuery returns a copy of the route with the given query values,
// leaving the receiver untouched.
func (r Route) WithQuery(q url.Values) Route {
	copied := make(url.Values, len(q))
	for k, vs := range q {
		copied[k] = append([]string(nil), vs...)
	}
	r.Query = copied
	return r
}

// encodeQuery encodes values with stable key order so rendered paths are
// deterministic.
func encodeQuery(q url.Values) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range q[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}
