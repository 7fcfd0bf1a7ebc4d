// Command pegodump compiles the bundled demo grammar and either prints
// its disassembly or matches it against an input string, for manual
// inspection of the parsing VM's output. It is a debug aid, not part
// of the pego library's contract.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/chronos-tachyon/pego/pego"
)

func main() {
	var (
		dump  = flag.Bool("dump", false, "print the demo grammar's disassembly")
		input = flag.String("input", "", "subject string to match against the demo grammar")
	)
	flag.Parse()

	g, err := demoGrammar()
	if err != nil {
		log.Fatalf("pegodump: build grammar: %v", err)
	}

	if *dump {
		fmt.Print(pego.Dump(g))
	}

	if *input != "" {
		r, err := g.Match([]byte(*input))
		if err != nil {
			log.Fatalf("pegodump: match: %v", err)
		}
		if !r.Matched {
			fmt.Fprintln(os.Stderr, "no match")
			os.Exit(1)
		}
		fmt.Printf("pos=%d captures=%v\n", r.Pos, r.Captures)
	}

	if !*dump && *input == "" {
		flag.Usage()
		os.Exit(2)
	}
}

// demoGrammar builds the classic parenthesis-balancing grammar from
// SPEC_FULL.md's end-to-end scenarios: S <- "(" (S / Sigma)* ")",
// Sigma <- any(1) - set("()").
func demoGrammar() (*pego.Pattern, error) {
	sigma := pego.Diff(pego.Any(1), pego.Set([]byte("()")))
	body, err := pego.Pow(pego.Choice(pego.Var("S"), sigma), 0)
	if err != nil {
		return nil, err
	}
	rule := pego.Cap(pego.Concat(pego.Concat(pego.Match([]byte("(")), body), pego.Match([]byte(")"))))
	return pego.Grammar([]pego.Rule{{Name: "S", Pattern: rule}})
}
