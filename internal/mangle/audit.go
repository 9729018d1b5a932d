// Package mangle audits conversation state changes with a Google Mangle
// (Datalog) program. Every observed transition becomes an observed/4 fact; the
// permitted transition graph is loaded as edge/2 facts and illegal transitions
// are derived by rule.
package mangle

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"

	"callsim/internal/logging"
	"callsim/internal/types"
)

// Schema is the audit program. States are name constants such as /inquiry.
const Schema = `
Decl state(S).
Decl edge(From, To).
Decl observed(Epoch, Seq, From, To).

permitted(S, S) :- state(S).
permitted(A, B) :- edge(A, B).

illegal_transition(Epoch, Seq, A, B) :- observed(Epoch, Seq, A, B), !permitted(A, B).

reached(Epoch, S) :- observed(Epoch, Seq, From, S).
completed_session(Epoch) :- reached(Epoch, /completed).
transferred_session(Epoch) :- observed(Epoch, Seq, /queue_verification, /completed).
`

// Violation is a transition the permitted graph does not allow.
type Violation struct {
	Epoch uint64
	Seq   int64
	From  types.ConversationState
	To    types.ConversationState
}

func (v Violation) String() string {
	return fmt.Sprintf("session %d #%d: %s -> %s", v.Epoch, v.Seq, v.From, v.To)
}

// Auditor accumulates observed transitions and evaluates the audit program on
// demand. It is safe for concurrent use.
type Auditor struct {
	mu          sync.Mutex
	programInfo *analysis.ProgramInfo
	store       factstore.FactStoreWithRemove
	preds       map[string]ast.PredicateSym
	seq         int64
	observed    int
	evaluated   bool
}

// NewAuditor compiles Schema and loads the permitted graph from types.Edges.
func NewAuditor() (*Auditor, error) {
	unit, err := parse.Unit(bytes.NewReader([]byte(Schema)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse audit schema: %w", err)
	}
	programInfo, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze audit schema: %w", err)
	}

	a := &Auditor{
		programInfo: programInfo,
		store:       factstore.NewSimpleInMemoryStore(),
		preds:       make(map[string]ast.PredicateSym),
	}
	for sym := range programInfo.Decls {
		a.preds[sym.Symbol] = sym
	}
	for _, clause := range programInfo.Rules {
		a.preds[clause.Head.Predicate.Symbol] = clause.Head.Predicate
	}

	for _, s := range types.AllStates {
		if err := a.add("state", stateTerm(s)); err != nil {
			return nil, err
		}
	}
	for _, e := range types.Edges {
		if err := a.add("edge", stateTerm(e.From), stateTerm(e.To)); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// RecordTransition satisfies conversation.Auditor. Failures are logged; the
// call itself never fails.
func (a *Auditor) RecordTransition(epoch uint64, from, to types.ConversationState) {
	if err := a.Record(epoch, from, to); err != nil {
		logging.AuditError("record %s -> %s: %v", from, to, err)
	}
}

// Record adds one observed transition.
func (a *Auditor) Record(epoch uint64, from, to types.ConversationState) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.seq++
	err := a.addLocked("observed", ast.Number(int64(epoch)), ast.Number(a.seq), stateTerm(from), stateTerm(to))
	if err != nil {
		return err
	}
	a.observed++
	a.evaluated = false
	logging.Audit("observed #%d session %d: %s -> %s", a.seq, epoch, from, to)
	return nil
}

// Observed returns the number of recorded transitions.
func (a *Auditor) Observed() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.observed
}

// Violations evaluates the program and returns every illegal transition in
// recording order.
func (a *Auditor) Violations() ([]Violation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.evalLocked(); err != nil {
		return nil, err
	}

	var out []Violation
	err := a.scanLocked("illegal_transition", func(args []ast.Constant) {
		out = append(out, Violation{
			Epoch: uint64(args[0].NumValue),
			Seq:   args[1].NumValue,
			From:  stateFromConstant(args[2]),
			To:    stateFromConstant(args[3]),
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	if len(out) > 0 {
		logging.AuditError("%d illegal transition(s)", len(out))
	}
	return out, nil
}

// CompletedSessions returns the epochs that reached the completed state.
func (a *Auditor) CompletedSessions() ([]uint64, error) {
	return a.epochs("completed_session")
}

// TransferredSessions returns the epochs that ended by transfer.
func (a *Auditor) TransferredSessions() ([]uint64, error) {
	return a.epochs("transferred_session")
}

func (a *Auditor) epochs(pred string) ([]uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.evalLocked(); err != nil {
		return nil, err
	}
	var out []uint64
	err := a.scanLocked(pred, func(args []ast.Constant) {
		out = append(out, uint64(args[0].NumValue))
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, err
}

func (a *Auditor) evalLocked() error {
	if a.evaluated {
		return nil
	}
	timer := logging.StartTimer(logging.CategoryAudit, "audit evaluation")
	if _, err := mengine.EvalProgramWithStats(a.programInfo, a.store); err != nil {
		return fmt.Errorf("audit evaluation failed: %w", err)
	}
	timer.Stop()
	a.evaluated = true
	return nil
}

func (a *Auditor) scanLocked(pred string, fn func([]ast.Constant)) error {
	sym, ok := a.preds[pred]
	if !ok {
		return fmt.Errorf("predicate %s is not declared", pred)
	}
	return a.store.GetFacts(ast.NewQuery(sym), func(atom ast.Atom) error {
		args := make([]ast.Constant, len(atom.Args))
		for i, arg := range atom.Args {
			c, ok := arg.(ast.Constant)
			if !ok {
				return fmt.Errorf("%s: non-constant argument %v", pred, arg)
			}
			args[i] = c
		}
		fn(args)
		return nil
	})
}

func (a *Auditor) add(pred string, args ...ast.BaseTerm) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addLocked(pred, args...)
}

func (a *Auditor) addLocked(pred string, args ...ast.BaseTerm) error {
	sym, ok := a.preds[pred]
	if !ok {
		return fmt.Errorf("predicate %s is not declared in schema", pred)
	}
	if len(args) != sym.Arity {
		return fmt.Errorf("predicate %s expects %d args, got %d", pred, sym.Arity, len(args))
	}
	for i, arg := range args {
		if arg == nil {
			return fmt.Errorf("predicate %s arg %d: invalid term", pred, i)
		}
	}
	a.store.Add(ast.Atom{Predicate: sym, Args: args})
	return nil
}

// stateTerm returns the name constant for s, or nil if s cannot be encoded.
func stateTerm(s types.ConversationState) ast.BaseTerm {
	c, err := ast.Name("/" + string(s))
	if err != nil {
		return nil
	}
	return c
}

func stateFromConstant(c ast.Constant) types.ConversationState {
	return types.ConversationState(strings.TrimPrefix(c.Symbol, "/"))
}
