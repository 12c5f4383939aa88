package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"echonexus/internal/logging"
	"echonexus/internal/memory"
	"echonexus/internal/pipeline"
	"echonexus/internal/registry"
	"echonexus/internal/services"
	"echonexus/internal/staging"
	"echonexus/internal/testsupport"
)

func chronological(t *testing.T, log *memory.Log, correlationID string) []memory.Event {
	t.Helper()
	events, err := log.Query(context.Background(), correlationID, 100)
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events
}

func eventTypes(events []memory.Event) []memory.EventType {
	types := make([]memory.EventType, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

func TestRunnerCompletesInvoice(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	log := testsupport.MustOpenLog(t, cfg)
	runner := pipeline.NewRunner(cfg, log, logging.NewNop())

	item, err := runner.Process(context.Background(), "Q3_Vendor_Invoice.pdf", strings.NewReader("invoice bytes"), staging.Metadata{Priority: 3})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	wantFinal := filepath.Join(cfg.DestinationFor("invoice"), "Q3_Vendor_Invoice.pdf")
	if item.Outcome == nil || item.Outcome.State != staging.OutcomeCompleted || item.Outcome.FinalPath != wantFinal {
		t.Fatalf("unexpected outcome %+v", item.Outcome)
	}
	if _, err := os.Stat(wantFinal); err != nil {
		t.Fatalf("final file missing: %v", err)
	}

	events := chronological(t, log, item.CorrelationID)
	want := []memory.EventType{
		memory.EventIngestionStart,
		memory.EventClassification,
		memory.EventWorkflowAssembly,
		memory.EventModuleExecution,
		memory.EventModuleExecution,
		memory.EventModuleExecution,
		memory.EventProcessingComplete,
		memory.EventLearningCycle,
	}
	got := eventTypes(events)
	if len(got) != len(want) {
		t.Fatalf("event sequence %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %s, want %s", i, got[i], want[i])
		}
	}

	if events[1].Payload["agi_determined_type"] != "invoice" {
		t.Fatalf("unexpected classification payload %v", events[1].Payload)
	}
	workflow, ok := events[2].Payload["workflow"].([]any)
	if !ok || len(workflow) != 3 {
		t.Fatalf("unexpected workflow payload %v", events[2].Payload)
	}
	if workflow[0] != string(registry.StageFormRecognition) {
		t.Fatalf("unexpected first module %v", workflow[0])
	}
}

func TestRunnerModuleExecutionIndexesAreMonotonic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	log := testsupport.MustOpenLog(t, cfg)
	runner := pipeline.NewRunner(cfg, log, logging.NewNop())

	item, err := runner.Process(context.Background(), "merger_agreement_draft.docx", strings.NewReader("contract"), staging.Metadata{})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	next := 0
	for _, event := range chronological(t, log, item.CorrelationID) {
		if event.Type != memory.EventModuleExecution {
			continue
		}
		idx, ok := event.Payload["stage_index"].(float64)
		if !ok {
			t.Fatalf("missing stage_index in %v", event.Payload)
		}
		if int(idx) != next {
			t.Fatalf("stage_index %v out of order, want %d", idx, next)
		}
		if event.Payload["status"] != "completed" {
			t.Fatalf("unexpected module status %v", event.Payload["status"])
		}
		next++
	}
	if next != 4 {
		t.Fatalf("expected 4 module executions for contract, got %d", next)
	}
}

func TestRunnerUnknownCategoryRoutesToQuarantineDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	log := testsupport.MustOpenLog(t, cfg)
	runner := pipeline.NewRunner(cfg, log, logging.NewNop())

	item, err := runner.Process(context.Background(), "mystery_blob.dat", strings.NewReader("???"), staging.Metadata{})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if item.InferredCategory != "unknown" {
		t.Fatalf("unexpected category %q", item.InferredCategory)
	}
	if item.Outcome.State != staging.OutcomeCompleted {
		t.Fatalf("unexpected outcome state %q", item.Outcome.State)
	}
	if filepath.Dir(item.Outcome.FinalPath) != cfg.Paths.QuarantineDir {
		t.Fatalf("unknown category should land in quarantine dir, got %q", item.Outcome.FinalPath)
	}

	events := chronological(t, log, item.CorrelationID)
	var workflow []any
	for _, event := range events {
		if event.Type == memory.EventWorkflowAssembly {
			workflow = event.Payload["workflow"].([]any)
		}
	}
	if len(workflow) != 2 || workflow[0] != string(registry.StageContentIndexing) {
		t.Fatalf("unexpected fallback workflow %v", workflow)
	}
}

func TestRunnerUnknownCategoryHonorsDefaultDestination(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDefaultDestination("general"))
	log := testsupport.MustOpenLog(t, cfg)
	runner := pipeline.NewRunner(cfg, log, logging.NewNop())

	item, err := runner.Process(context.Background(), "mystery_blob.dat", strings.NewReader("???"), staging.Metadata{})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	want := filepath.Join(cfg.Paths.ProcessedDir, "general")
	if filepath.Dir(item.Outcome.FinalPath) != want {
		t.Fatalf("final path %q not under default destination %q", item.Outcome.FinalPath, want)
	}
}

func TestRunnerStageFaultQuarantines(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	log := testsupport.MustOpenLog(t, cfg)

	boom := errors.New("ocr backend unavailable")
	calls := 0
	exec := pipeline.ModuleExecutorFunc(func(_ context.Context, _ *staging.Item, stage registry.StageName) error {
		calls++
		if stage == registry.StageClauseExtraction {
			return boom
		}
		return nil
	})
	runner := pipeline.NewRunner(cfg, log, logging.NewNop(), pipeline.WithExecutor(exec))

	item, err := runner.Process(context.Background(), "service_agreement.pdf", strings.NewReader("contract"), staging.Metadata{})
	if err == nil {
		t.Fatal("expected stage fault")
	}
	if !errors.Is(err, services.ErrStage) {
		t.Fatalf("expected stage fault marker, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected execution to stop at the failing module, got %d calls", calls)
	}

	if item.Outcome == nil || item.Outcome.State != staging.OutcomeQuarantined {
		t.Fatalf("unexpected outcome %+v", item.Outcome)
	}
	if _, statErr := os.Stat(item.Outcome.FinalPath); statErr != nil {
		t.Fatalf("quarantined file missing: %v", statErr)
	}
	if filepath.Dir(item.Outcome.FinalPath) != cfg.Paths.QuarantineDir {
		t.Fatalf("quarantined file outside quarantine dir: %q", item.Outcome.FinalPath)
	}

	events := chronological(t, log, item.CorrelationID)
	terminals := 0
	var last memory.Event
	for _, event := range events {
		if event.Type.IsTerminal() {
			terminals++
			last = event
		}
	}
	if terminals != 1 {
		t.Fatalf("expected exactly one terminal event, got %d", terminals)
	}
	if last.Type != memory.EventProcessingError {
		t.Fatalf("terminal event %s, want %s", last.Type, memory.EventProcessingError)
	}
	if last.Payload["quarantined_path"] != item.Outcome.FinalPath {
		t.Fatalf("unexpected quarantined_path %v", last.Payload["quarantined_path"])
	}
	if msg, _ := last.Payload["error"].(string); !strings.Contains(msg, "ocr backend unavailable") {
		t.Fatalf("error payload %q should carry the module failure", msg)
	}
}

func TestRunnerIngestionFaultIsSynchronous(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	log := testsupport.MustOpenLog(t, cfg)
	runner := pipeline.NewRunner(cfg, log, logging.NewNop())

	_, err := runner.Ingest(context.Background(), "..", strings.NewReader("x"), staging.Metadata{})
	if err == nil {
		t.Fatal("expected ingestion fault")
	}
	if !errors.Is(err, services.ErrIngestion) {
		t.Fatalf("expected ingestion fault marker, got %v", err)
	}

	events, queryErr := log.Query(context.Background(), "", 10)
	if queryErr != nil {
		t.Fatalf("query events: %v", queryErr)
	}
	if len(events) != 1 || events[0].Type != memory.EventIngestionError {
		t.Fatalf("expected a single ingestion error record, got %v", eventTypes(events))
	}
}

func TestRunnerHintOverridesFilename(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	log := testsupport.MustOpenLog(t, cfg)
	runner := pipeline.NewRunner(cfg, log, logging.NewNop())

	meta := staging.Metadata{CategoryHint: "research_paper"}
	item, err := runner.Process(context.Background(), "scan_0042.pdf", strings.NewReader("paper"), meta)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if item.InferredCategory != "research_paper" {
		t.Fatalf("hint should win, got %q", item.InferredCategory)
	}
	if filepath.Dir(item.Outcome.FinalPath) != cfg.DestinationFor("research_paper") {
		t.Fatalf("unexpected final path %q", item.Outcome.FinalPath)
	}
}

func TestRunnerLearningHookPayload(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	log := testsupport.MustOpenLog(t, cfg)
	hook := func(_ context.Context, item *staging.Item) memory.Payload {
		return memory.Payload{"status": "re-theorizing completed", "category": string(item.InferredCategory)}
	}
	runner := pipeline.NewRunner(cfg, log, logging.NewNop(), pipeline.WithLearningHook(hook))

	item, err := runner.Process(context.Background(), "invoice_77.pdf", strings.NewReader("x"), staging.Metadata{})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	events := chronological(t, log, item.CorrelationID)
	last := events[len(events)-1]
	if last.Type != memory.EventLearningCycle {
		t.Fatalf("last event %s, want %s", last.Type, memory.EventLearningCycle)
	}
	if last.Payload["status"] != "re-theorizing completed" || last.Payload["category"] != "invoice" {
		t.Fatalf("unexpected learning payload %v", last.Payload)
	}
}
