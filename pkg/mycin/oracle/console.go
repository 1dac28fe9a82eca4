package oracle

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxReply is the longest reply line the console accepts. Longer lines are
// discarded and re-prompted.
const MaxReply = 64 * 1024

// Help is printed in reply to "help".
const Help = `Type one of the following:
?       - to see possible answers for this param
rule    - to show the current rule
why     - to see why this question is asked
help    - to show this message
unknown - if the answer to this question is not given
<val>   - a single definite answer to the question
<val1> <cert1> [, <val2> <cert2>, ...]
        - if there are multiple answers with associated certainty factors.`

// Console asks a human through a line-oriented reader and writer.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsole creates a console oracle.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Ask implements Oracle. It keeps prompting until it gets a valid reply,
// "unknown", or the input ends.
func (c *Console) Ask(ctx context.Context, q Question) ([]Answer, error) {
	name := q.Param.Name
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prompt := q.Param.Prompt
		if prompt == "" {
			prompt = name + "?"
		}
		fmt.Fprintf(c.out, "%s ", prompt)
		line, tooLong, err := c.readLine()
		if errors.Is(err, io.EOF) {
			return nil, ErrInputClosed
		}
		if err != nil {
			return nil, fmt.Errorf("read reply for %s: %w", name, err)
		}
		if tooLong {
			fmt.Fprintln(c.out, "Invalid response. Type ? to see legal ones.")
			continue
		}

		resp := strings.TrimSpace(line)
		switch resp {
		case "":
			continue
		case "unknown":
			return nil, ErrDeclined
		case "help":
			fmt.Fprintln(c.out, Help)
		case "why":
			c.printWhy(name, q.Why)
		case "rule":
			if q.Why.Rule != nil {
				fmt.Fprintln(c.out, q.Why.Rule)
			} else {
				fmt.Fprintln(c.out, q.Why.Phase)
			}
		case "?":
			fmt.Fprintf(c.out, "%s must be of type %s\n", name, q.Param.TypeString())
		default:
			answers, err := ParseReply(q.Param, resp)
			if err != nil {
				fmt.Fprintln(c.out, "Invalid response. Type ? to see legal ones.")
				continue
			}
			return answers, nil
		}
	}
}

// readLine reads one line, dropping its contents once it grows past
// MaxReply and reporting that it did.
func (c *Console) readLine() (string, bool, error) {
	var (
		buf     []byte
		tooLong bool
	)
	for {
		frag, more, err := c.in.ReadLine()
		if err != nil {
			return "", false, err
		}
		if !tooLong {
			if len(buf)+len(frag) > MaxReply {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, frag...)
			}
		}
		if !more {
			return string(buf), tooLong, nil
		}
	}
}

func (c *Console) printWhy(param string, why Explanation) {
	fmt.Fprintf(c.out, "Why is the value of %s being asked for?\n", param)
	if why.Rule == nil {
		fmt.Fprintf(c.out, "%s is one of the %s params.\n", param, why.Phase)
		return
	}

	if len(why.Given) > 0 {
		fmt.Fprintln(c.out, "It is given that:")
		for _, cond := range why.Given {
			fmt.Fprintln(c.out, cond)
		}
		fmt.Fprintln(c.out, "Therefore,")
	}

	r := why.Rule.Clone()
	r.Premises = r.Premises[:0]
	for _, p := range why.Pending {
		for _, raw := range why.Rule.Premises {
			if raw.Param == p.Param && raw.Op == p.Op && raw.Value == p.Value && raw.Context == p.Inst.Context {
				r.Premises = append(r.Premises, raw)
				break
			}
		}
	}
	fmt.Fprintln(c.out, r)
}
