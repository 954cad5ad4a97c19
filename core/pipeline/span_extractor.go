package pipeline

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/siherrmann/lorekeeper/helper"
	"github.com/siherrmann/lorekeeper/model"
)

// DefaultModelName is the NER model used when no model is configured.
// Detects PER, ORG, LOC and MISC entities.
const DefaultModelName = "KnightsAnalytics/distilbert-NER"

// NewSpanExtractor loads a NER model and returns an extraction function
// together with a close function releasing the underlying hugot session.
// The model is downloaded on first use.
func NewSpanExtractor(modelName string) (SpanExtractFunc, func() error, error) {
	modelPath, err := helper.PrepareModel(modelName, "model.onnx")
	if err != nil {
		return nil, nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "ner-pipeline",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}),
		},
	}
	nerPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, nil, fmt.Errorf("failed to create NER pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, nil, fmt.Errorf("failed to create NER pipeline: %w", err)
	}

	extract := func(text string) ([]model.Span, error) {
		if strings.TrimSpace(text) == "" {
			return nil, nil
		}

		result, err := nerPipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to run NER: %w", err)
		}

		if len(result.Entities) == 0 {
			return nil, nil
		}

		var spans []model.Span
		for _, entity := range result.Entities[0] {
			spans = append(spans, model.Span{
				Label: entity.Entity,
				Text:  strings.TrimSpace(entity.Word),
				Start: runeOffset(text, int(entity.Start)),
				End:   runeOffset(text, int(entity.End)),
				Score: float64(entity.Score),
			})
		}

		return spans, nil
	}

	return extract, session.Destroy, nil
}

// runeOffset converts a byte offset reported by the tokenizer into a rune
// offset into text
func runeOffset(text string, byteOffset int) int {
	if byteOffset <= 0 {
		return 0
	}
	if byteOffset >= len(text) {
		return utf8.RuneCountInString(text)
	}
	return utf8.RuneCountInString(text[:byteOffset])
}
