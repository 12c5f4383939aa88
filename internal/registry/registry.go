package registry

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"echonexus/internal/classify"
)

// StageName identifies one named unit of work in a category's pipeline.
type StageName string

const (
	StageDeepOCRSegmentation   StageName = "deep_ocr_segmentation"
	StageClauseExtraction      StageName = "semantic_clause_extraction"
	StageEntityGraphUpdate     StageName = "entity_resolution_graph_update"
	StageRiskAssessment        StageName = "predictive_risk_assessment_model"
	StageFormRecognition       StageName = "adaptive_form_recognition"
	StageLineItemExtraction    StageName = "line_item_data_extraction_nlp"
	StageReconciliation        StageName = "automated_reconciliation_engine"
	StageAbstractSummarization StageName = "scientific_abstract_summarization"
	StageCitationMapping       StageName = "citation_network_mapping"
	StageNoveltyDetection      StageName = "novelty_detection_algorithm"
	StageContentIndexing       StageName = "general_content_indexing"
	StageTopicModeling         StageName = "topic_modeling_discovery"
)

var plans = map[classify.Category][]StageName{
	classify.CategoryContract: {
		StageDeepOCRSegmentation,
		StageClauseExtraction,
		StageEntityGraphUpdate,
		StageRiskAssessment,
	},
	classify.CategoryInvoice: {
		StageFormRecognition,
		StageLineItemExtraction,
		StageReconciliation,
	},
	classify.CategoryResearchPaper: {
		StageAbstractSummarization,
		StageCitationMapping,
		StageNoveltyDetection,
	},
}

// Unrecognized categories run the discovery workflow.
var fallbackPlan = []StageName{
	StageContentIndexing,
	StageTopicModeling,
}

// Resolve returns the ordered stage plan for a category. The returned slice
// is a copy and never empty.
func Resolve(category classify.Category) []StageName {
	plan, ok := plans[category]
	if !ok {
		plan = fallbackPlan
	}
	cp := make([]StageName, len(plan))
	copy(cp, plan)
	return cp
}

// FallbackPlan returns the discovery plan used for unrecognized categories.
func FallbackPlan() []StageName {
	cp := make([]StageName, len(fallbackPlan))
	copy(cp, fallbackPlan)
	return cp
}

var titleCaser = cases.Title(language.Und)

// Label converts a snake_case stage name into a human-readable label for
// logs and status output.
func Label(stage StageName) string {
	if stage == "" {
		return ""
	}
	words := strings.ReplaceAll(string(stage), "_", " ")
	return titleCaser.String(words)
}

// Names converts a stage plan into plain strings for event payloads.
func Names(plan []StageName) []string {
	out := make([]string, len(plan))
	for i, stage := range plan {
		out[i] = string(stage)
	}
	return out
}
