package ops

import (
	"encoding/json"
	"fmt"

	"github.com/icn-covm/governance-vm/covmerr"
	"github.com/icn-covm/governance-vm/value"
)

// Marshal renders an operation tree in a JSON-like tagged form:
// {type: <name>, ...fields}, sub-programs as arrays.
func Marshal(program []Op) ([]byte, error) {
	return json.Marshal(encodeProgram(program))
}

func encodeProgram(program []Op) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(program))
	for _, o := range program {
		out = append(out, encodeOp(o))
	}
	return out
}

func encodeValue(v value.Value) map[string]interface{} {
	switch t := v.(type) {
	case value.Number:
		return map[string]interface{}{"number": float64(t)}
	case value.String:
		return map[string]interface{}{"string": string(t)}
	case value.Boolean:
		return map[string]interface{}{"boolean": bool(t)}
	case value.Null:
		return map[string]interface{}{"null": true}
	default:
		return map[string]interface{}{"null": true}
	}
}

func encodeOp(o Op) map[string]interface{} {
	switch t := o.(type) {
	case Push:
		return map[string]interface{}{"type": "push", "value": encodeValue(t.Value)}
	case Pop:
		return tagged("pop")
	case Dup:
		return tagged("dup")
	case Swap:
		return tagged("swap")
	case Over:
		return tagged("over")
	case Add:
		return tagged("add")
	case Sub:
		return tagged("sub")
	case Mul:
		return tagged("mul")
	case Div:
		return tagged("div")
	case Mod:
		return tagged("mod")
	case Negate:
		return tagged("negate")
	case Not:
		return tagged("not")
	case Eq:
		return tagged("eq")
	case Gt:
		return tagged("gt")
	case Lt:
		return tagged("lt")
	case And:
		return tagged("and")
	case Or:
		return tagged("or")
	case Store:
		return map[string]interface{}{"type": "store", "name": t.Name}
	case Load:
		return map[string]interface{}{"type": "load", "name": t.Name}
	case If:
		m := map[string]interface{}{"type": "if", "condition": encodeProgram(t.Condition), "then": encodeProgram(t.Then)}
		if t.Else != nil {
			m["else"] = encodeProgram(t.Else)
		}
		return m
	case While:
		return map[string]interface{}{"type": "while", "condition": encodeProgram(t.Condition), "body": encodeProgram(t.Body)}
	case Loop:
		return map[string]interface{}{"type": "loop", "count": t.Count, "body": encodeProgram(t.Body)}
	case Break:
		return tagged("break")
	case Continue:
		return tagged("continue")
	case Match:
		cases := make([]map[string]interface{}, 0, len(t.Cases))
		for _, c := range t.Cases {
			cases = append(cases, map[string]interface{}{"key": encodeValue(c.Key), "ops": encodeProgram(c.Ops)})
		}
		m := map[string]interface{}{"type": "match", "value_ops": encodeProgram(t.Value), "cases": cases}
		if t.Default != nil {
			m["default"] = encodeProgram(t.Default)
		}
		return m
	case AssertEqualStack:
		return map[string]interface{}{"type": "assert_equal_stack", "depth": t.Depth}
	case Def:
		return map[string]interface{}{"type": "def", "name": t.Name, "params": t.Params, "body": encodeProgram(t.Body)}
	case Call:
		return map[string]interface{}{"type": "call", "name": t.Name, "args": encodeProgram(t.Args)}
	case Return:
		return tagged("return")
	case Emit:
		return map[string]interface{}{"type": "emit", "text": t.Text}
	case EmitEvent:
		return map[string]interface{}{"type": "emit_event", "category": t.Category, "message": t.Message}
	case StoreP:
		return map[string]interface{}{"type": "store_p", "key": t.Key}
	case LoadP:
		return map[string]interface{}{"type": "load_p", "key": t.Key}
	case StorePTyped:
		return map[string]interface{}{"type": "store_p_typed", "key": t.Key, "value_type": t.Type}
	case LoadPTyped:
		return map[string]interface{}{"type": "load_p_typed", "key": t.Key, "value_type": t.Type}
	case KeyExistsP:
		return map[string]interface{}{"type": "key_exists_p", "key": t.Key}
	case ListKeysP:
		return map[string]interface{}{"type": "list_keys_p", "prefix": t.Prefix}
	case DeleteP:
		return map[string]interface{}{"type": "delete_p", "key": t.Key}
	case BeginTx:
		return tagged("begin_tx")
	case CommitTx:
		return tagged("commit_tx")
	case RollbackTx:
		return tagged("rollback_tx")
	case VerifyIdentity:
		return map[string]interface{}{"type": "verify_identity", "id": t.ID, "message": t.Message, "signature": t.Signature}
	case CheckMembership:
		return map[string]interface{}{"type": "check_membership", "id": t.ID, "namespace": t.Namespace}
	case CheckDelegation:
		return map[string]interface{}{"type": "check_delegation", "delegator": t.Delegator, "delegate": t.Delegate}
	case RankedVote:
		return map[string]interface{}{"type": "ranked_vote", "candidate_count": t.CandidateCount, "ballot_count": t.BallotCount}
	case QuorumThreshold:
		return map[string]interface{}{"type": "quorum_threshold", "ratio": t.Ratio}
	case VoteThreshold:
		return map[string]interface{}{"type": "vote_threshold", "min": t.Min}
	case LiquidDelegate:
		return map[string]interface{}{"type": "liquid_delegate", "from": t.From, "to": t.To}
	default:
		return tagged(fmt.Sprintf("%T", o))
	}
}

func tagged(name string) map[string]interface{} {
	return map[string]interface{}{"type": name}
}

// Unmarshal parses the JSON-like tagged form back into an operation tree.
func Unmarshal(data []byte) ([]Op, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, covmerr.Wrap(covmerr.KindParseError, "invalid operation tree", err)
	}
	return decodeProgram(raw)
}

func decodeProgram(raw []json.RawMessage) ([]Op, error) {
	out := make([]Op, 0, len(raw))
	for _, r := range raw {
		o, err := decodeOp(r)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func decodeValue(m map[string]interface{}) value.Value {
	if n, ok := m["number"]; ok {
		if f, ok := n.(float64); ok {
			return value.Number(f)
		}
	}
	if s, ok := m["string"]; ok {
		if str, ok := s.(string); ok {
			return value.String(str)
		}
	}
	if b, ok := m["boolean"]; ok {
		if bb, ok := b.(bool); ok {
			return value.Boolean(bb)
		}
	}
	return value.Null{}
}

type rawOp struct {
	Type           string            `json:"type"`
	Value          map[string]interface{} `json:"value"`
	Name           string            `json:"name"`
	Condition      []json.RawMessage `json:"condition"`
	Then           []json.RawMessage `json:"then"`
	Else           []json.RawMessage `json:"else"`
	Body           []json.RawMessage `json:"body"`
	Count          int               `json:"count"`
	MatchValue     []json.RawMessage `json:"value_ops"`
	Cases          []rawMatchCase    `json:"cases"`
	Default        []json.RawMessage `json:"default"`
	Depth          int               `json:"depth"`
	Params         []string          `json:"params"`
	Args           []json.RawMessage `json:"args"`
	Text           string            `json:"text"`
	Category       string            `json:"category"`
	Message        string            `json:"message"`
	Key            string            `json:"key"`
	ValueType      string            `json:"value_type"`
	Prefix         string            `json:"prefix"`
	ID             string            `json:"id"`
	Signature      string            `json:"signature"`
	Namespace      string            `json:"namespace"`
	Delegator      string            `json:"delegator"`
	Delegate       string            `json:"delegate"`
	CandidateCount int               `json:"candidate_count"`
	BallotCount    int               `json:"ballot_count"`
	Ratio          float64           `json:"ratio"`
	Min            float64           `json:"min"`
	From           string            `json:"from"`
	To             string            `json:"to"`
}

type rawMatchCase struct {
	Key map[string]interface{} `json:"key"`
	Ops []json.RawMessage      `json:"ops"`
}

func decodeOp(data json.RawMessage) (Op, error) {
	var r rawOp
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, covmerr.Wrap(covmerr.KindParseError, "invalid operation", err)
	}
	switch r.Type {
	case "push":
		return Push{Value: decodeValue(r.Value)}, nil
	case "pop":
		return Pop{}, nil
	case "dup":
		return Dup{}, nil
	case "swap":
		return Swap{}, nil
	case "over":
		return Over{}, nil
	case "add":
		return Add{}, nil
	case "sub":
		return Sub{}, nil
	case "mul":
		return Mul{}, nil
	case "div":
		return Div{}, nil
	case "mod":
		return Mod{}, nil
	case "negate":
		return Negate{}, nil
	case "not":
		return Not{}, nil
	case "eq":
		return Eq{}, nil
	case "gt":
		return Gt{}, nil
	case "lt":
		return Lt{}, nil
	case "and":
		return And{}, nil
	case "or":
		return Or{}, nil
	case "store":
		return Store{Name: r.Name}, nil
	case "load":
		return Load{Name: r.Name}, nil
	case "if":
		cond, err := decodeProgram(r.Condition)
		if err != nil {
			return nil, err
		}
		then, err := decodeProgram(r.Then)
		if err != nil {
			return nil, err
		}
		var els []Op
		if r.Else != nil {
			els, err = decodeProgram(r.Else)
			if err != nil {
				return nil, err
			}
		}
		return If{Condition: cond, Then: then, Else: els}, nil
	case "while":
		cond, err := decodeProgram(r.Condition)
		if err != nil {
			return nil, err
		}
		body, err := decodeProgram(r.Body)
		if err != nil {
			return nil, err
		}
		return While{Condition: cond, Body: body}, nil
	case "loop":
		body, err := decodeProgram(r.Body)
		if err != nil {
			return nil, err
		}
		return Loop{Count: r.Count, Body: body}, nil
	case "break":
		return Break{}, nil
	case "continue":
		return Continue{}, nil
	case "match":
		valProg, err := decodeProgram(r.MatchValue)
		if err != nil {
			return nil, err
		}
		cases := make([]MatchCase, 0, len(r.Cases))
		for _, c := range r.Cases {
			ops, err := decodeProgram(c.Ops)
			if err != nil {
				return nil, err
			}
			cases = append(cases, MatchCase{Key: decodeValue(c.Key), Ops: ops})
		}
		var def []Op
		if r.Default != nil {
			def, err = decodeProgram(r.Default)
			if err != nil {
				return nil, err
			}
		}
		return Match{Value: valProg, Cases: cases, Default: def}, nil
	case "assert_equal_stack":
		return AssertEqualStack{Depth: r.Depth}, nil
	case "def":
		body, err := decodeProgram(r.Body)
		if err != nil {
			return nil, err
		}
		return Def{Name: r.Name, Params: r.Params, Body: body}, nil
	case "call":
		args, err := decodeProgram(r.Args)
		if err != nil {
			return nil, err
		}
		return Call{Name: r.Name, Args: args}, nil
	case "return":
		return Return{}, nil
	case "emit":
		return Emit{Text: r.Text}, nil
	case "emit_event":
		return EmitEvent{Category: r.Category, Message: r.Message}, nil
	case "store_p":
		return StoreP{Key: r.Key}, nil
	case "load_p":
		return LoadP{Key: r.Key}, nil
	case "store_p_typed":
		return StorePTyped{Key: r.Key, Type: r.ValueType}, nil
	case "load_p_typed":
		return LoadPTyped{Key: r.Key, Type: r.ValueType}, nil
	case "key_exists_p":
		return KeyExistsP{Key: r.Key}, nil
	case "list_keys_p":
		return ListKeysP{Prefix: r.Prefix}, nil
	case "delete_p":
		return DeleteP{Key: r.Key}, nil
	case "begin_tx":
		return BeginTx{}, nil
	case "commit_tx":
		return CommitTx{}, nil
	case "rollback_tx":
		return RollbackTx{}, nil
	case "verify_identity":
		return VerifyIdentity{ID: r.ID, Message: r.Message, Signature: r.Signature}, nil
	case "check_membership":
		return CheckMembership{ID: r.ID, Namespace: r.Namespace}, nil
	case "check_delegation":
		return CheckDelegation{Delegator: r.Delegator, Delegate: r.Delegate}, nil
	case "ranked_vote":
		return RankedVote{CandidateCount: r.CandidateCount, BallotCount: r.BallotCount}, nil
	case "quorum_threshold":
		return QuorumThreshold{Ratio: r.Ratio}, nil
	case "vote_threshold":
		return VoteThreshold{Min: r.Min}, nil
	case "liquid_delegate":
		return LiquidDelegate{From: r.From, To: r.To}, nil
	default:
		return nil, covmerr.Newf(covmerr.KindUndefinedOperation, "unknown operation type %q", r.Type)
	}
}
