// Package textutil provides text normalization and tokenization helpers for
// sentence matching.
//
// The primary use cases are:
//   - Normalizing sentences for case- and punctuation-insensitive comparison
//   - Tokenizing normalized text into words
//   - Deriving the leading-words index key used to bound fuzzy match search
package textutil
