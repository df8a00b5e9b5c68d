// Package initdata embeds the files written by "scopemerge init".
package initdata

import _ "embed"

// DefaultConfig is the scopemerge.yml written into a project by init. Every
// key is commented out so the defaults stay in effect until edited.
//
//go:embed scopemerge.yml
var DefaultConfig []byte
