// Package registry maps document categories to their ordered processing
// stage plans. Stage lists are static configuration, not computed; Resolve
// never returns an empty plan, falling back to the discovery workflow for
// unrecognized categories.
package registry
