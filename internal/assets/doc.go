/*
Package assets resolves request paths on the local origin to files in the
bundled web application.

Resolution rules:

  - one leading "/" is stripped
  - "" maps to the index document, a trailing "/" appends it
  - the result is looked up under the bundle root ("www" by default)
  - missing files and directories resolve to nothing

The MIME type comes from the generic extension table first, then a fixed
fallback table matched on the lower-cased path, then
application/octet-stream. Textual types carry a utf-8 encoding; binary and
font types carry none.

Router.Handler serves the same resolution over HTTP with gzip compression.
*/
package assets
