// Package sanitizer cleans markup carried by form display fragments.
//
// Labels, help and hint texts may be authored as HTML or produced from
// markdown; both go through [SanitizeFragment] before they reach the output
// stream. [StripHTML] reduces a fragment to its text content.
package sanitizer
