package pego

// MatchResult is the sum type a match call reports: either no match,
// or a final position and the list of values the capture engine
// produced (spec.md §6).
type MatchResult struct {
	Matched  bool
	Pos      int
	Captures []any
}

// Match runs p against subject starting at position 0, returning the
// final position and captures on success. extras are available to
// CapArg-built captures inside p.
func (p *Pattern) Match(subject []byte, extras ...any) (MatchResult, error) {
	x := NewExecution(p, subject, extras...)
	if err := x.Run(); err != nil {
		return MatchResult{}, err
	}
	if x.R != SuccessState {
		return MatchResult{}, nil
	}
	captures, err := runCaptureEngine(x.KS, p.Env, subject, extras)
	if err != nil {
		return MatchResult{}, err
	}
	return MatchResult{Matched: true, Pos: x.S, Captures: captures}, nil
}

// Search tries p at every position of subject in turn, starting from
// start, and returns the first match found (SPEC_FULL.md §6.1
// supplemented convenience; not part of the distilled core API).
func Search(p *Pattern, subject []byte, start int, extras ...any) (MatchResult, error) {
	for at := start; at <= len(subject); at++ {
		x := NewExecution(p, subject[at:], extras...)
		if err := x.Run(); err != nil {
			return MatchResult{}, err
		}
		if x.R == SuccessState {
			captures, err := runCaptureEngine(x.KS, p.Env, subject[at:], extras)
			if err != nil {
				return MatchResult{}, err
			}
			return MatchResult{Matched: true, Pos: at + x.S, Captures: captures}, nil
		}
	}
	return MatchResult{}, nil
}
