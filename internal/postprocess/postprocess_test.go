package postprocess

import (
	"regexp"
	"testing"

	"autoname/internal/rules"
)

func TestSubstitutionsRunFirst(t *testing.T) {
	chain := DefaultChain().WithSubstitutions([]rules.Substitution{
		{Pattern: regexp.MustCompile(`\bDRAFT\b`), Replacement: "final"},
	})
	got := chain.Apply("report DRAFT v2.pdf")
	if got != "report final v2.pdf" {
		t.Errorf("Apply = %q", got)
	}
}

func TestCaseFoldLowerWins(t *testing.T) {
	if ParseCaseFold(true, true) != FoldLower {
		t.Error("lower should win when both flags are set")
	}
	chain := Chain{Fold: FoldLower}
	if got := chain.Apply("Mixed Case.TXT"); got != "mixed case.txt" {
		t.Errorf("Apply = %q", got)
	}
	chain.Fold = FoldUpper
	if got := chain.Apply("Mixed Case.txt"); got != "MIXED CASE.TXT" {
		t.Errorf("Apply = %q", got)
	}
}

func TestUnicodeSimplification(t *testing.T) {
	chain := Chain{SimplifyUnicode: true}
	if got := chain.Apply("smörgåsbord.txt"); got != "smorgasbord.txt" {
		t.Errorf("Apply = %q", got)
	}
}

func TestSanitizationModes(t *testing.T) {
	lenient := Chain{Sanitize: true}
	if got := lenient.Apply("what? when: now.txt"); got != "what when- now.txt" {
		t.Errorf("lenient = %q", got)
	}
	restrictive := Chain{Sanitize: true, Restrictive: true}
	if got := restrictive.Apply("a/b:c.txt"); got == "a/b:c.txt" {
		t.Errorf("restrictive left forbidden characters: %q", got)
	}
}

func TestChainDeterministic(t *testing.T) {
	chain := Chain{
		Substitutions:   []rules.Substitution{{Pattern: regexp.MustCompile(`_+`), Replacement: "_"}},
		Fold:            FoldLower,
		SimplifyUnicode: true,
		Sanitize:        true,
	}
	input := "Ärende__2016: Slutrapport?.PDF"
	first := chain.Apply(input)
	for i := 0; i < 5; i++ {
		if again := chain.Apply(input); again != first {
			t.Fatalf("chain not deterministic: %q then %q", first, again)
		}
	}
	if first != chain.Apply(chain.Apply(input)) {
		t.Error("chain should be stable when reapplied to its own output")
	}
}
