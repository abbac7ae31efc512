// Package model provides the user-facing data structures for document
// text extraction.
//
// The [Document] type identifies a source document (file path or byte
// buffer) together with its detected format. Processing a document
// produces a [Result]: an aligned pair of page images and resolved
// per-page text, plus per-page diagnostics.
//
// # Alignment
//
// A Result always satisfies len(Images) == len(Texts) == len(Pages),
// matching the document's page count, in every success and fallback
// path. Pages that could not be processed carry a sentinel string
// ([SentinelExtractionFailed], [SentinelOCRUnavailable],
// [SentinelNoText]) and a blank placeholder image rather than being
// omitted. Consumers may index any of the three slices with the same
// page index.
//
// # Diagnostics
//
// Each [Page] records where its resolved text came from (a [Source]
// value) and, when OCR ran, the quality breakdown of the winning
// attempt. Non-fatal issues encountered during processing accumulate
// as [Warning] values on the Result instead of failing the document.
package model
