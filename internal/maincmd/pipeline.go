package maincmd

import (
	"fmt"
	"os"

	"github.com/crosscut-lang/crosscut/host"
	"github.com/crosscut-lang/crosscut/lang/ast"
	"github.com/crosscut-lang/crosscut/lang/calls"
	"github.com/crosscut-lang/crosscut/lang/compiler"
	"github.com/crosscut-lang/crosscut/lang/deps"
	"github.com/crosscut-lang/crosscut/lang/parser"
	"github.com/crosscut-lang/crosscut/lang/tokenizer"
	"github.com/crosscut-lang/crosscut/lang/types"
)

// emptyHost is the host table used by the CLI's stand-alone subcommands.
// Host applications are out of scope for this repository -- the table
// exists only so calls.New and types.Infer have something to consult when a
// source file happens to reference an identifier that isn't an intrinsic or
// a user function, in which case it is reported as an unresolved host call
// rather than treated as an error at this stage.
var emptyHost = host.NewTable(nil)

func hostLookup(name string) (uint8, bool) {
	fn, ok := emptyHost.Lookup(name)
	return fn.Number, ok
}

func hostSignature(number uint8) types.Signature {
	if fn, ok := emptyHost.ByNumber(number); ok {
		return fn.Signature
	}
	return types.Signature{}
}

// sourceUnit bundles every stage's output for one source file, so later
// subcommands can rerun earlier stages without repeating themselves.
type sourceUnit struct {
	Path     string
	Src      []byte
	Tree     *ast.Tree
	FC       *calls.FunctionCalls
	Graph    *deps.Graph
	Clusters []deps.Cluster
	Hashes   *ast.Hashes
	Types    *types.Map
	Program  *compiler.Program
}

func tokenizeFile(path string) ([]tokenizer.TokenAndValue, []byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	toks, err := tokenizer.Tokenize(src)
	if err != nil {
		return nil, src, fmt.Errorf("%s: %w", path, err)
	}
	return toks, src, nil
}

func parseFile(path string) (*ast.Tree, []byte, error) {
	toks, src, err := tokenizeFile(path)
	if err != nil {
		return nil, src, err
	}
	tree, err := parser.ParseTokens(toks)
	if err != nil {
		return nil, src, fmt.Errorf("%s: %w", path, err)
	}
	return tree, src, nil
}

func resolveCalls(path string) (*sourceUnit, error) {
	tree, src, err := parseFile(path)
	if err != nil {
		return nil, err
	}
	fc := calls.New(tree, hostLookup)
	return &sourceUnit{Path: path, Src: src, Tree: tree, FC: fc}, nil
}

func resolveDeps(path string) (*sourceUnit, error) {
	u, err := resolveCalls(path)
	if err != nil {
		return nil, err
	}
	u.Graph = deps.BuildGraph(u.Tree, u.FC)
	u.Clusters = deps.Condense(u.Tree, u.Graph, u.FC)
	return u, nil
}

func resolveTypes(path string) (*sourceUnit, error) {
	u, err := resolveDeps(path)
	if err != nil {
		return nil, err
	}
	m, err := types.Infer(u.Tree, u.FC, u.Clusters, hostSignature)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	u.Types = m
	return u, nil
}

func compileFile(path string) (*sourceUnit, error) {
	u, err := resolveTypes(path)
	if err != nil {
		return nil, err
	}
	u.Hashes = ast.Freeze(u.Tree)
	prog, err := compiler.Compile(u.Tree, u.Hashes, u.FC, u.Clusters)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	u.Program = prog
	return u, nil
}
