// Package classify infers a coarse document category from cheap ingress
// signals: the lowercased filename, declared tags, and an optional category
// hint.
//
// The rule set is an ordered list of substring matches, first match wins.
// It is a deliberately shallow placeholder policy; the Classify contract is
// what matters, and any classifier mapping raw signals to one of the fixed
// Category values can be substituted.
package classify
