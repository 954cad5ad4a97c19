// Package pipeline provides named entity extraction over chapter text.
// The default extractor runs a local ONNX NER model through hugot; custom
// extractors only need to satisfy SpanExtractFunc.
package pipeline

import "github.com/siherrmann/lorekeeper/model"

// SpanExtractFunc extracts labeled spans from text.
// Span offsets are 0-based rune offsets into the given text.
type SpanExtractFunc func(text string) ([]model.Span, error)
