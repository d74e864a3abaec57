package governance

import (
	"strconv"
	"strings"

	"github.com/icn-covm/governance-vm/covmerr"
	"github.com/icn-covm/governance-vm/ops"
	"github.com/icn-covm/governance-vm/value"
)

// DSLParser lowers a line-oriented governance DSL into an operation tree:
// a concrete but deliberately minimal parser that gives the lifecycle
// executor something real to run attached proposal logic through.
//
// Grammar (one statement per line; indentation-significant; any positive
// indent increase opens a block; blocks are introduced by a header line
// ending in ':'):
//
//	push <value>            pop    dup    swap   over
//	add  sub  mul  div  mod  negate  not  eq  gt  lt  and  or
//	store <name>            load <name>
//	emit <text...>          emit_event <category> <message...>
//	store_p <key>           load_p <key>
//	store_p_typed <key> <type>      load_p_typed <key> <type>
//	key_exists_p <key>      list_keys_p <prefix>     delete_p <key>
//	begin_tx  commit_tx  rollback_tx
//	verify_identity <id> <message> <signature>
//	check_membership <id> <namespace>
//	check_delegation <delegator> <delegate>
//	ranked_vote <candidates> <ballots>
//	quorum_threshold <ratio>        vote_threshold <min>
//	liquid_delegate <from> <to>
//	break  continue  return
//	assert_equal_stack <depth>
//	call <name> <arg-values...>
//
//	if:
//	  condition:
//	    <ops>
//	  then:
//	    <ops>
//	  else:
//	    <ops>
//	while:
//	  condition:
//	    <ops>
//	  body:
//	    <ops>
//	loop <count>:
//	  body:
//	    <ops>
//	match:
//	  value:
//	    <ops>
//	  case <literal>:
//	    <ops>
//	  default:
//	    <ops>
//	def <name> <params...>:
//	  <ops>
type DSLParser struct{}

func NewDSLParser() *DSLParser { return &DSLParser{} }

type srcLine struct {
	lineNo int
	indent int
	text   string
}

// Parse lowers DSL source text into an operation tree.
func (p *DSLParser) Parse(src string) ([]ops.Op, error) {
	lines := scanLines(src)
	pos := 0
	program, err := parseBlock(lines, &pos, -1)
	if err != nil {
		return nil, err
	}
	if pos != len(lines) {
		ln := lines[pos]
		return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "unexpected dedent"), covmerr.Position{Line: ln.lineNo, Column: ln.indent + 1})
	}
	return program, nil
}

func scanLines(src string) []srcLine {
	var out []srcLine
	for i, raw := range strings.Split(src, "\n") {
		trimmed := strings.TrimRight(raw, " \t\r")
		stripped := strings.TrimLeft(trimmed, " \t")
		if stripped == "" || strings.HasPrefix(stripped, "#") {
			continue
		}
		indent := len(trimmed) - len(stripped)
		out = append(out, srcLine{lineNo: i + 1, indent: indent, text: stripped})
	}
	return out
}

func pos(ln srcLine) covmerr.Position { return covmerr.Position{Line: ln.lineNo, Column: ln.indent + 1} }

// parseBlock consumes sibling statements at the first indent level deeper
// than parentIndent, stopping when it sees a line at or below parentIndent.
func parseBlock(lines []srcLine, i *int, parentIndent int) ([]ops.Op, error) {
	var out []ops.Op
	if *i >= len(lines) {
		return out, nil
	}
	blockIndent := lines[*i].indent
	if blockIndent <= parentIndent {
		return out, nil
	}
	for *i < len(lines) {
		ln := lines[*i]
		if ln.indent < blockIndent {
			break
		}
		if ln.indent > blockIndent {
			return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "unexpected indent"), pos(ln))
		}
		op, err := parseStatement(lines, i)
		if err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, nil
}

// expectNamedBlock requires the next line to be "<name>:" at indent equal to
// the current statement's child indent, then returns its nested block.
func expectNamedBlock(lines []srcLine, i *int, headerIndent int, name string, required bool) ([]ops.Op, bool, error) {
	if *i >= len(lines) || lines[*i].indent <= headerIndent {
		if required {
			return nil, false, covmerr.New(covmerr.KindSyntaxError, "expected \""+name+":\" block")
		}
		return nil, false, nil
	}
	ln := lines[*i]
	if !strings.HasSuffix(ln.text, ":") || strings.TrimSuffix(ln.text, ":") != name {
		if required {
			return nil, false, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "expected \""+name+":\""), pos(ln))
		}
		return nil, false, nil
	}
	*i++
	body, err := parseBlock(lines, i, ln.indent)
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

func parseStatement(lines []srcLine, i *int) (ops.Op, error) {
	ln := lines[*i]
	*i++

	if strings.HasSuffix(ln.text, ":") {
		header := strings.TrimSuffix(ln.text, ":")
		toks := tokenize(header)
		if len(toks) == 0 {
			return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "empty block header"), pos(ln))
		}
		switch toks[0] {
		case "if":
			cond, _, err := expectNamedBlock(lines, i, ln.indent, "condition", false)
			if err != nil {
				return nil, err
			}
			then, ok, err := expectNamedBlock(lines, i, ln.indent, "then", true)
			if err != nil {
				return nil, err
			}
			_ = ok
			els, _, err := expectNamedBlock(lines, i, ln.indent, "else", false)
			if err != nil {
				return nil, err
			}
			return ops.If{Condition: cond, Then: then, Else: els}, nil
		case "while":
			cond, _, err := expectNamedBlock(lines, i, ln.indent, "condition", true)
			if err != nil {
				return nil, err
			}
			body, _, err := expectNamedBlock(lines, i, ln.indent, "body", true)
			if err != nil {
				return nil, err
			}
			return ops.While{Condition: cond, Body: body}, nil
		case "loop":
			if len(toks) < 2 {
				return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "loop requires a count"), pos(ln))
			}
			count, err := strconv.Atoi(toks[1])
			if err != nil {
				return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "invalid loop count"), pos(ln))
			}
			body, _, err := expectNamedBlock(lines, i, ln.indent, "body", true)
			if err != nil {
				return nil, err
			}
			return ops.Loop{Count: count, Body: body}, nil
		case "match":
			valProg, _, err := expectNamedBlock(lines, i, ln.indent, "value", false)
			if err != nil {
				return nil, err
			}
			var cases []ops.MatchCase
			for *i < len(lines) && lines[*i].indent > ln.indent {
				caseLn := lines[*i]
				if !strings.HasSuffix(caseLn.text, ":") {
					break
				}
				caseHeader := strings.TrimSuffix(caseLn.text, ":")
				ctoks := tokenize(caseHeader)
				if len(ctoks) >= 1 && ctoks[0] == "default" {
					*i++
					def, err := parseBlock(lines, i, caseLn.indent)
					if err != nil {
						return nil, err
					}
					return ops.Match{Value: valProg, Cases: cases, Default: def}, nil
				}
				if len(ctoks) < 2 || ctoks[0] != "case" {
					break
				}
				key, err := parseLiteral(ctoks[1:], caseLn)
				if err != nil {
					return nil, err
				}
				*i++
				caseBody, err := parseBlock(lines, i, caseLn.indent)
				if err != nil {
					return nil, err
				}
				cases = append(cases, ops.MatchCase{Key: key, Ops: caseBody})
			}
			return ops.Match{Value: valProg, Cases: cases}, nil
		case "def":
			if len(toks) < 2 {
				return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "def requires a name"), pos(ln))
			}
			name := toks[1]
			params := toks[2:]
			body, err := parseBlock(lines, i, ln.indent)
			if err != nil {
				return nil, err
			}
			return ops.Def{Name: name, Params: params, Body: body}, nil
		default:
			return nil, covmerr.At(covmerr.Newf(covmerr.KindSyntaxError, "unknown block %q", toks[0]), pos(ln))
		}
	}

	toks := tokenize(ln.text)
	if len(toks) == 0 {
		return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "empty statement"), pos(ln))
	}
	return parseSimple(toks, ln)
}

func parseSimple(toks []string, ln srcLine) (ops.Op, error) {
	head := toks[0]
	args := toks[1:]
	switch head {
	case "push":
		v, err := parseLiteral(args, ln)
		if err != nil {
			return nil, err
		}
		return ops.Push{Value: v}, nil
	case "pop":
		return ops.Pop{}, nil
	case "dup":
		return ops.Dup{}, nil
	case "swap":
		return ops.Swap{}, nil
	case "over":
		return ops.Over{}, nil
	case "add":
		return ops.Add{}, nil
	case "sub":
		return ops.Sub{}, nil
	case "mul":
		return ops.Mul{}, nil
	case "div":
		return ops.Div{}, nil
	case "mod":
		return ops.Mod{}, nil
	case "negate":
		return ops.Negate{}, nil
	case "not":
		return ops.Not{}, nil
	case "eq":
		return ops.Eq{}, nil
	case "gt":
		return ops.Gt{}, nil
	case "lt":
		return ops.Lt{}, nil
	case "and":
		return ops.And{}, nil
	case "or":
		return ops.Or{}, nil
	case "store":
		return requireString(args, ln, "store", func(s string) ops.Op { return ops.Store{Name: s} })
	case "load":
		return requireString(args, ln, "load", func(s string) ops.Op { return ops.Load{Name: s} })
	case "emit":
		return ops.Emit{Text: strings.Join(args, " ")}, nil
	case "emit_event":
		if len(args) < 1 {
			return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "emit_event requires a category"), pos(ln))
		}
		return ops.EmitEvent{Category: args[0], Message: strings.Join(args[1:], " ")}, nil
	case "store_p":
		return requireString(args, ln, "store_p", func(s string) ops.Op { return ops.StoreP{Key: s} })
	case "load_p":
		return requireString(args, ln, "load_p", func(s string) ops.Op { return ops.LoadP{Key: s} })
	case "store_p_typed":
		if len(args) < 2 {
			return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "store_p_typed requires key and type"), pos(ln))
		}
		return ops.StorePTyped{Key: args[0], Type: args[1]}, nil
	case "load_p_typed":
		if len(args) < 2 {
			return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "load_p_typed requires key and type"), pos(ln))
		}
		return ops.LoadPTyped{Key: args[0], Type: args[1]}, nil
	case "key_exists_p":
		return requireString(args, ln, "key_exists_p", func(s string) ops.Op { return ops.KeyExistsP{Key: s} })
	case "list_keys_p":
		prefix := ""
		if len(args) > 0 {
			prefix = args[0]
		}
		return ops.ListKeysP{Prefix: prefix}, nil
	case "delete_p":
		return requireString(args, ln, "delete_p", func(s string) ops.Op { return ops.DeleteP{Key: s} })
	case "begin_tx":
		return ops.BeginTx{}, nil
	case "commit_tx":
		return ops.CommitTx{}, nil
	case "rollback_tx":
		return ops.RollbackTx{}, nil
	case "verify_identity":
		if len(args) < 3 {
			return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "verify_identity requires id, message, signature"), pos(ln))
		}
		return ops.VerifyIdentity{ID: args[0], Message: args[1], Signature: args[2]}, nil
	case "check_membership":
		if len(args) < 2 {
			return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "check_membership requires id, namespace"), pos(ln))
		}
		return ops.CheckMembership{ID: args[0], Namespace: args[1]}, nil
	case "check_delegation":
		if len(args) < 2 {
			return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "check_delegation requires delegator, delegate"), pos(ln))
		}
		return ops.CheckDelegation{Delegator: args[0], Delegate: args[1]}, nil
	case "ranked_vote":
		if len(args) < 2 {
			return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "ranked_vote requires candidate_count, ballot_count"), pos(ln))
		}
		c, err1 := strconv.Atoi(args[0])
		b, err2 := strconv.Atoi(args[1])
		if err1 != nil || err2 != nil {
			return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "ranked_vote counts must be integers"), pos(ln))
		}
		return ops.RankedVote{CandidateCount: c, BallotCount: b}, nil
	case "quorum_threshold":
		if len(args) < 1 {
			return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "quorum_threshold requires a ratio"), pos(ln))
		}
		r, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "invalid ratio"), pos(ln))
		}
		return ops.QuorumThreshold{Ratio: r}, nil
	case "vote_threshold":
		if len(args) < 1 {
			return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "vote_threshold requires a min"), pos(ln))
		}
		m, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "invalid min"), pos(ln))
		}
		return ops.VoteThreshold{Min: m}, nil
	case "liquid_delegate":
		from := ""
		to := ""
		if len(args) > 0 {
			from = args[0]
		}
		if len(args) > 1 {
			to = args[1]
		}
		return ops.LiquidDelegate{From: from, To: to}, nil
	case "break":
		return ops.Break{}, nil
	case "continue":
		return ops.Continue{}, nil
	case "return":
		return ops.Return{}, nil
	case "assert_equal_stack":
		if len(args) < 1 {
			return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "assert_equal_stack requires a depth"), pos(ln))
		}
		d, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "invalid depth"), pos(ln))
		}
		return ops.AssertEqualStack{Depth: d}, nil
	case "call":
		if len(args) < 1 {
			return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "call requires a name"), pos(ln))
		}
		var callArgs []ops.Op
		for _, a := range args[1:] {
			v, err := parseLiteral([]string{a}, ln)
			if err != nil {
				return nil, err
			}
			callArgs = append(callArgs, ops.Push{Value: v})
		}
		return ops.Call{Name: args[0], Args: callArgs}, nil
	default:
		return nil, covmerr.At(covmerr.Newf(covmerr.KindUndefinedOperation, "unknown statement %q", head), pos(ln))
	}
}

func requireString(args []string, ln srcLine, op string, build func(string) ops.Op) (ops.Op, error) {
	if len(args) < 1 {
		return nil, covmerr.At(covmerr.Newf(covmerr.KindSyntaxError, "%s requires an argument", op), pos(ln))
	}
	return build(args[0]), nil
}

func parseLiteral(args []string, ln srcLine) (value.Value, error) {
	if len(args) == 0 {
		return nil, covmerr.At(covmerr.New(covmerr.KindSyntaxError, "expected a value"), pos(ln))
	}
	tok := args[0]
	switch tok {
	case "true":
		return value.Boolean(true), nil
	case "false":
		return value.Boolean(false), nil
	case "null":
		return value.Null{}, nil
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return value.Number(f), nil
	}
	return value.String(tok), nil
}

// tokenize splits a line on whitespace, treating "..." as a single token
// with quotes stripped.
func tokenize(text string) []string {
	var toks []string
	var cur strings.Builder
	inQuotes := false
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case (r == ' ' || r == '\t') && !inQuotes:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}
