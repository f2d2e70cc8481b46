package tampering

import (
	"testing"

	"github.com/todmy/doc-integrity/pkg/models"
)

func analysisDoc(id, text string) models.AnalysisDocument {
	return models.AnalysisDocument{ID: id, FileName: id + ".txt", TextContent: text}
}

func TestComparePair_NameAndCountAlterations(t *testing.T) {
	a := NewAnalyzer(Config{})

	before := analysisDoc("v1", "Noel Johnson (witness, age 34) provided testimony. Officers collected 12 digital photographs at the scene.")
	after := analysisDoc("v2", "Neil Johnson (witness, age 34) provided testimony. Officers collected 8 digital photographs at the scene.")

	contradictions := a.ComparePair(before, after)

	if len(contradictions) != 2 {
		t.Fatalf("expected exactly 2 contradictions, got %d: %+v", len(contradictions), contradictions)
	}

	name := contradictions[0]
	if name.Type != models.ContradictionNameChange {
		t.Errorf("expected name_change first, got %s", name.Type)
	}
	if name.Severity != models.SeverityCritical {
		t.Errorf("expected critical severity for name change, got %s", name.Severity)
	}
	if name.Confidence != 100 {
		t.Errorf("expected confidence 100, got %d", name.Confidence)
	}
	if name.Before != "Noel Johnson (witness, age 34)" || name.After != "Neil Johnson (witness, age 34)" {
		t.Errorf("unexpected evidence: before=%q after=%q", name.Before, name.After)
	}

	count := contradictions[1]
	if count.Type != models.ContradictionCountReduction {
		t.Errorf("expected count_reduction second, got %s", count.Type)
	}
	if count.Severity != models.SeverityHigh {
		t.Errorf("expected high severity for count reduction, got %s", count.Severity)
	}
	if count.Confidence != 100 {
		t.Errorf("expected confidence 100, got %d", count.Confidence)
	}
	if count.Before != "12 digital photographs" || count.After != "8 digital photographs" {
		t.Errorf("unexpected evidence: before=%q after=%q", count.Before, count.After)
	}
}

func TestComparePair_NoAlterations(t *testing.T) {
	a := NewAnalyzer(Config{})

	text := "Noel Johnson (witness, age 34) provided testimony. Officers collected 12 digital photographs."
	contradictions := a.ComparePair(analysisDoc("v1", text), analysisDoc("v2", text))

	if len(contradictions) != 0 {
		t.Errorf("identical texts must yield no contradictions, got %+v", contradictions)
	}
}

func TestComparePair_CountIncreaseIgnored(t *testing.T) {
	a := NewAnalyzer(Config{})

	before := analysisDoc("v1", "Officers collected 8 digital photographs.")
	after := analysisDoc("v2", "Officers collected 12 digital photographs.")

	if contradictions := a.ComparePair(before, after); len(contradictions) != 0 {
		t.Errorf("count increases are not reductions, got %+v", contradictions)
	}
}

func TestComparePair_CompoundUnitNotDoubleReported(t *testing.T) {
	a := NewAnalyzer(Config{})

	before := analysisDoc("v1", "Evidence log lists 12 digital photographs.")
	after := analysisDoc("v2", "Evidence log lists 8 digital photographs.")

	contradictions := a.ComparePair(before, after)
	if len(contradictions) != 1 {
		t.Fatalf("expected one contradiction for the compound unit, got %d: %+v", len(contradictions), contradictions)
	}
	if contradictions[0].EvidenceLocation != "quantity: digital photographs" {
		t.Errorf("expected the longest unit to win, got %q", contradictions[0].EvidenceLocation)
	}
}

func TestComparePair_StatusFlip(t *testing.T) {
	a := NewAnalyzer(Config{})

	before := analysisDoc("v1", "Complaint review outcome: the allegation was substantiated by the board.")
	after := analysisDoc("v2", "Complaint review outcome: the allegation was unsubstantiated by the board.")

	contradictions := a.ComparePair(before, after)
	if len(contradictions) != 1 {
		t.Fatalf("expected one status flip, got %d: %+v", len(contradictions), contradictions)
	}

	flip := contradictions[0]
	if flip.Type != models.ContradictionStatusFlip || flip.Severity != models.SeverityCritical {
		t.Errorf("expected critical status_flip, got %+v", flip)
	}
	if flip.Before != "substantiated" || flip.After != "unsubstantiated" {
		t.Errorf("unexpected states: %q -> %q", flip.Before, flip.After)
	}
}

func TestComparePair_QualifiedStatusFlip(t *testing.T) {
	a := NewAnalyzer(Config{})

	before := analysisDoc("v1", "Risk assessment: moderate. Case remains under review.")
	after := analysisDoc("v2", "Risk assessment: low. Case remains under review.")

	contradictions := a.ComparePair(before, after)
	if len(contradictions) != 1 {
		t.Fatalf("expected one qualified status flip, got %d: %+v", len(contradictions), contradictions)
	}
	if contradictions[0].Before != "moderate" || contradictions[0].After != "low" {
		t.Errorf("unexpected states: %q -> %q", contradictions[0].Before, contradictions[0].After)
	}
}

func TestComparePair_AmbiguousStatusIgnored(t *testing.T) {
	a := NewAnalyzer(Config{})

	before := analysisDoc("v1", "One count substantiated, another count unsubstantiated.")
	after := analysisDoc("v2", "The allegation was unsubstantiated.")

	if contradictions := a.ComparePair(before, after); len(contradictions) != 0 {
		t.Errorf("ambiguous status text must not flag, got %+v", contradictions)
	}
}

func TestComparePair_ContentRemoval(t *testing.T) {
	a := NewAnalyzer(Config{})

	before := analysisDoc("v1", "Witness Lee provided statement describing the events. The report continues with other details.")
	after := analysisDoc("v2", "The report continues with other details.")

	contradictions := a.ComparePair(before, after)
	if len(contradictions) != 1 {
		t.Fatalf("expected one removal, got %d: %+v", len(contradictions), contradictions)
	}

	removal := contradictions[0]
	if removal.Type != models.ContradictionRemoval || removal.Severity != models.SeverityHigh {
		t.Errorf("expected high content_removal, got %+v", removal)
	}
	if removal.Before != "Witness Lee provided statement describing the events." {
		t.Errorf("expected the containing sentence as evidence, got %q", removal.Before)
	}
	if removal.After != "(absent)" {
		t.Errorf("expected absent marker, got %q", removal.After)
	}
}

func TestComparePair_ConfidenceAlwaysBinary(t *testing.T) {
	a := NewAnalyzer(Config{})

	before := analysisDoc("v1", "Noel Johnson (witness, age 34). Status: active. 5 witnesses. Officer provided statement at the scene.")
	after := analysisDoc("v2", "Neil Johnson (witness, age 34). Status: closed. 3 witnesses. Officer arrived at the scene.")

	contradictions := a.ComparePair(before, after)
	if len(contradictions) == 0 {
		t.Fatal("expected contradictions")
	}
	for _, c := range contradictions {
		if c.Confidence != 100 {
			t.Errorf("rule matches are literal, expected confidence 100, got %d for %s", c.Confidence, c.Type)
		}
	}
}
