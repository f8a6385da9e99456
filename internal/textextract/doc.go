// Package textextract pulls sentence-level text out of book documents.
//
// PDFs are read page by page; each page's prose is segmented into sentences
// that remember their page number and in-page order, which alignment later
// uses to place follow-along highlights. Documents with too little machine
// readable text (scanned image-only PDFs) are rejected up front rather than
// producing a garbage alignment.
package textextract
