package pego

import (
	"regexp"
	"strings"
	"testing"

	"github.com/renstrom/dedent"
	"github.com/sergi/go-diff/diffmatchpatch"
)

var reDumpNL = regexp.MustCompile(`(?m)^`)

func dumpDiff(want, got string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(want, got, false)
	pretty := dmp.DiffPrettyText(diffs)
	return reDumpNL.ReplaceAllLiteralString(pretty, "\t")
}

func TestDisassemble_PlainLiteral(t *testing.T) {
	p := Match([]byte("ab"))

	lines := []string{
		"\t0000\tChar 'a'",
		"\t0001\tChar 'b'",
		"\t0002\tEnd",
		"",
	}
	want := strings.Join(lines, "\n")

	got := Dump(p)
	if got != want {
		t.Errorf("%s: wrong output:\n%s", t.Name(), dumpDiff(want, got))
	}
}

func TestDisassemble_AnyCarriesOperand(t *testing.T) {
	p := Any(5)

	lines := []string{
		"\t0000\tAny 5",
		"\t0001\tEnd",
		"",
	}
	want := strings.Join(lines, "\n")

	got := Dump(p)
	if got != want {
		t.Errorf("%s: wrong output:\n%s", t.Name(), dumpDiff(want, got))
	}
}

// A rule body disassembles with its name as an unindented label and a
// Call/Jmp preamble resolved to the rule's start offset.
func TestDisassemble_GrammarRuleLabelFormat(t *testing.T) {
	g, err := Grammar([]Rule{
		{Name: "S", Pattern: Match([]byte("x"))},
	})
	if err != nil {
		t.Fatalf("Grammar: %v", err)
	}

	want := dedent.Dedent(`
			0000	Call -> 0002
			0001	Jmp -> 0004
		S:
			0002	Char 'x'
			0003	Ret
			0004	End
		`)[1:]

	got := Dump(g)
	if got != want {
		t.Errorf("%s: wrong output:\n%s", t.Name(), dumpDiff(want, got))
	}
}
