// Package ner implements the core's named-entity-recognition component,
// adapted from the teacher's DefaultEntityExtractorBasic distilbert-NER
// pipeline: a confidence-thresholded, BIO-tag-normalizing token classifier
// surfaced as the Mention contract construct's Stage B step 4 needs.
package ner

import (
	"fmt"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/kgraph/corekg/helper"
)

// Mention is one recognized entity occurrence: its surface text, a coarse
// label, a confidence score in [0,1], and its byte offsets in the source
// text.
type Mention struct {
	Text       string
	Label      string
	Confidence float64
	Start      int
	End        int
}

// NER recognizes named entities in text, dropping any mention below a
// configured confidence threshold.
type NER interface {
	Extract(text string) ([]Mention, error)
}

// HugotNER is the default NER, backed by a local ONNX token-classification
// model via hugot.
type HugotNER struct {
	session             *hugot.Session
	pipeline            *hugot.TokenClassificationPipeline
	confidenceThreshold float64
}

// NewHugotNER downloads (if needed) and loads modelID, filtering mentions
// below confidenceThreshold.
func NewHugotNER(modelID string, confidenceThreshold float64) (*HugotNER, error) {
	modelPath, err := helper.PrepareModel(modelID, "model.onnx")
	if err != nil {
		return nil, helper.NewKindError("create ner", helper.ErrNERUnavailable, err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, helper.NewKindError("create ner", helper.ErrNERUnavailable,
			fmt.Errorf("failed to create hugot session: %w", err))
	}

	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "corekg-ner",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}),
		},
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		_ = session.Destroy()
		return nil, helper.NewKindError("create ner", helper.ErrNERUnavailable,
			fmt.Errorf("failed to create ner pipeline: %w", err))
	}

	return &HugotNER{session: session, pipeline: pipeline, confidenceThreshold: confidenceThreshold}, nil
}

// Extract runs the token classifier over text and returns mentions at or
// above the configured confidence threshold, with BIO prefixes stripped
// from labels and tokenization artifacts filtered out.
func (n *HugotNER) Extract(text string) ([]Mention, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	result, err := n.pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, helper.NewKindError("extract entities", helper.ErrNERUnavailable, err)
	}

	if len(result.Entities) == 0 {
		return nil, nil
	}

	var mentions []Mention
	for _, e := range result.Entities[0] {
		name := strings.TrimSpace(e.Word)
		if !isValidMention(name) {
			continue
		}
		confidence := float64(e.Score)
		if confidence < n.confidenceThreshold {
			continue
		}

		mentions = append(mentions, Mention{
			Text:       name,
			Label:      normalizeLabel(e.Entity),
			Confidence: confidence,
			Start:      e.Start,
			End:        e.End,
		})
	}

	return mentions, nil
}

// Close releases the underlying hugot session.
func (n *HugotNER) Close() error {
	if n.session == nil {
		return nil
	}
	return n.session.Destroy()
}

func isValidMention(name string) bool {
	if len(name) < 2 {
		return false
	}
	if strings.HasPrefix(name, "#") {
		return false
	}
	cleaned := strings.TrimFunc(name, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'))
	})
	return len(cleaned) >= 2
}

// normalizeLabel strips BIO tagging prefixes (B-, I-) from a raw token
// classification label.
func normalizeLabel(label string) string {
	if strings.HasPrefix(label, "B-") || strings.HasPrefix(label, "I-") {
		return label[2:]
	}
	return label
}
