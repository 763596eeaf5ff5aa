package protocol

import (
	"fmt"

	"github.com/crosscut-lang/crosscut/lang/ast"
	"github.com/crosscut-lang/crosscut/lang/compiler"
	"gopkg.in/yaml.v3"
)

// Artifact is the persisted compilation format: versioned by a monotonic
// Timestamp, self-describing enough for determinism and diffing (two
// artifacts of the same source produce byte-identical YAML). It carries the
// source text, the function table, the instructions and the source map; the
// syntax tree and the inferred types are not stored in it.
type Artifact struct {
	Timestamp uint64 `yaml:"timestamp"`
	Source    string `yaml:"source"`

	Functions []ArtifactFunction `yaml:"functions"`

	Instructions []ArtifactInstruction `yaml:"instructions"`
	SourceMap    []ArtifactSourceMapEntry `yaml:"source_map"`
}

// ArtifactFunction is one entry of the persisted function table: name, hash,
// entry address, and the parameter patterns used to validate a call site
// without recompiling.
type ArtifactFunction struct {
	Name       string `yaml:"name"`
	Hash       string `yaml:"hash"`
	Entry      uint32 `yaml:"entry"`
	Parameters []ArtifactParameter `yaml:"parameters"`
}

// ArtifactParameter mirrors ast.Parameter in a form stable across process
// restarts (no token.Range, since byte offsets are meaningless once detached
// from the exact source text).
type ArtifactParameter struct {
	Binding bool   `yaml:"binding"`
	Name    string `yaml:"name,omitempty"`
	Type    string `yaml:"type,omitempty"`
	Value   int32  `yaml:"value,omitempty"`
}

// ArtifactInstruction is one compiled instruction in the persisted array.
type ArtifactInstruction struct {
	Op         string `yaml:"op"`
	Name       string `yaml:"name,omitempty"`
	PushValue  int32  `yaml:"push_value,omitempty"`
	Intrinsic  string `yaml:"intrinsic,omitempty"`
	HostNumber uint8  `yaml:"host_number,omitempty"`
	Callee     string `yaml:"callee,omitempty"`
	IsTailCall bool   `yaml:"is_tail_call,omitempty"`
	Effect     string `yaml:"effect,omitempty"`
	Target     uint32 `yaml:"target,omitempty"`
}

// ArtifactSourceMapEntry records one MemberLocation -> instruction address
// pairing, flattened from lang/compiler.SourceMap's two swiss.Map tables
// into a format yaml.v3 can marshal directly.
type ArtifactSourceMapEntry struct {
	Location string `yaml:"location"`
	Address  uint32 `yaml:"address"`
}

// BuildArtifact assembles an Artifact from a compiled Program and the tree
// it was compiled from, stamping it with timestamp (the caller's monotonic
// clock reading -- persistence timestamps belong to the embedding host, not
// this package).
func BuildArtifact(timestamp uint64, source string, tree *ast.Tree, prog *compiler.Program) Artifact {
	a := Artifact{Timestamp: timestamp, Source: source}

	ast.WalkFunctions(tree, func(loc ast.FunctionLocation, nf ast.NamedFunction) {
		entry, ok := prog.Functions.ByName(nf.Name)
		if !ok {
			return
		}
		af := ArtifactFunction{Name: nf.Name, Hash: entry.Hash.String(), Entry: uint32(entry.Entry)}
		first, _ := nf.Inner.Branches.Get(0)
		first.Parameters.Each(func(_ ast.Index[ast.Parameter], p ast.Parameter) bool {
			af.Parameters = append(af.Parameters, ArtifactParameter{
				Binding: p.Kind == ast.Binding,
				Name:    p.Name,
				Type:    p.Type,
				Value:   p.Value,
			})
			return true
		})
		a.Functions = append(a.Functions, af)
	})

	for _, instr := range prog.Instructions {
		a.Instructions = append(a.Instructions, ArtifactInstruction{
			Op:         instr.Op.String(),
			Name:       instr.Name,
			PushValue:  instr.PushValue,
			Intrinsic:  instr.Intrinsic.String(),
			HostNumber: instr.HostNumber,
			Callee:     instr.Callee.String(),
			IsTailCall: instr.IsTailCall,
			Effect:     instr.Effect.String(),
			Target:     uint32(instr.Target),
		})
	}

	for i := range prog.Instructions {
		addr := compiler.InstructionAddress(i)
		if loc, ok := prog.SourceMap.InstructionToMember(addr); ok {
			a.SourceMap = append(a.SourceMap, ArtifactSourceMapEntry{Location: loc.String(), Address: uint32(addr)})
		}
	}

	return a
}

// Marshal encodes a into the self-describing YAML text format.
func Marshal(a Artifact) ([]byte, error) {
	return yaml.Marshal(a)
}

// Unmarshal decodes an Artifact previously produced by Marshal.
func Unmarshal(data []byte) (Artifact, error) {
	var a Artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return Artifact{}, fmt.Errorf("protocol: unmarshal artifact: %w", err)
	}
	return a, nil
}
