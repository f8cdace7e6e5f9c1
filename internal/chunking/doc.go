// Package chunking splits document text into ordered, embedding-sized chunks.
//
// A Chunker applies one of a closed set of strategies (recursive, character,
// token, markdown, html, json, latex, sentence, semantic-markdown) to produce
// chunks that carry both document-level metadata and shared run metadata.
// Unknown strategy names fall back to the recursive strategy with a logged
// warning so the fallback stays auditable.
package chunking
