// Package codec converts Collection content to and from the Parts carried by
// remote attachments, and encodes the JSON metadata stored next to them.
//
// Content that fits in one attachment becomes a single Part named after the
// original file. Larger content is sliced into ceil(size/limit) contiguous
// Parts named chunk_{index}_{total}_{name}, so the order can be rebuilt from
// the names alone. Decode refuses to return partial data: any missing,
// duplicate or inconsistent Part yields common.ErrDecodeCorrupt.
//
// Metadata lives in the entry text as a fenced ```json block. DecodeMetadata
// never fails; text that is not a JSON object comes back as a Raw value so
// legacy or hand-edited entries stay inspectable.
package codec
