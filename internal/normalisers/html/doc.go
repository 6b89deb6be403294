// Package html extracts readable text from HTML pages. Non-content elements
// are dropped, block elements become line breaks and the page is split into
// one segment per top-level section (h1 to h3).
package html
