package oracle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cognicore/mycin/pkg/mycin/cert"
	"github.com/cognicore/mycin/pkg/mycin/kb"
)

// ParseError describes a reply that could not be turned into answers.
type ParseError struct {
	Param  string
	Reply  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse reply %q for %s: %s", e.Reply, e.Param, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseReply turns a free-text reply into answers.
//
// A reply without commas is a single value with certainty 1. Otherwise it is
// a comma-separated list of "<value> <cf>" pairs, e.g. "m 0.7, f 0.3".
func ParseReply(p *kb.Param, reply string) ([]Answer, error) {
	reply = strings.TrimSpace(reply)
	if !strings.Contains(reply, ",") {
		val, err := p.Parse(reply)
		if err != nil {
			return nil, &ParseError{Param: p.Name, Reply: reply, Reason: "invalid value", Err: err}
		}
		return []Answer{{Value: val, CF: cert.True}}, nil
	}

	var answers []Answer
	for _, pair := range strings.Split(reply, ",") {
		pair = strings.TrimSpace(pair)
		i := strings.LastIndexAny(pair, " \t")
		if i < 0 {
			return nil, &ParseError{Param: p.Name, Reply: reply, Reason: fmt.Sprintf("%q is not a <value> <cf> pair", pair)}
		}

		cf, err := strconv.ParseFloat(pair[i+1:], 64)
		if err != nil || !cert.Valid(cf) {
			return nil, &ParseError{Param: p.Name, Reply: reply, Reason: fmt.Sprintf("bad certainty %q", pair[i+1:]), Err: err}
		}
		val, err := p.Parse(pair[:i])
		if err != nil {
			return nil, &ParseError{Param: p.Name, Reply: reply, Reason: "invalid value", Err: err}
		}
		answers = append(answers, Answer{Value: val, CF: cf})
	}
	return answers, nil
}

// Check validates answers against the param's domain, returning the
// canonical values. A failed check is reported as a *ParseError.
func Check(p *kb.Param, answers []Answer) ([]Answer, error) {
	if len(answers) == 0 {
		return nil, &ParseError{Param: p.Name, Reason: "no answers", Err: ErrDeclined}
	}
	out := make([]Answer, 0, len(answers))
	for _, a := range answers {
		if !cert.Valid(a.CF) {
			return nil, &ParseError{Param: p.Name, Reply: a.Value, Reason: fmt.Sprintf("certainty %v out of range", a.CF)}
		}
		val, err := p.Parse(a.Value)
		if err != nil {
			return nil, &ParseError{Param: p.Name, Reply: a.Value, Reason: "invalid value", Err: err}
		}
		out = append(out, Answer{Value: val, CF: a.CF})
	}
	return out, nil
}
