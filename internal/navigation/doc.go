// Package navigation classifies navigations as internal or external and maps
// incoming deep links onto the bundled application's entry URL.
//
// A URL is internal when its host is the local origin (case-insensitive) or
// one of the configured host patterns, or when its scheme is blob, data or
// about. A deep link such as https://ciphernotes.com/notes/42?tab=edit opens
//
//	https://ciphernotes.com/index.html?initialPath=%2Fnotes%2F42%3Ftab%3Dedit
package navigation
