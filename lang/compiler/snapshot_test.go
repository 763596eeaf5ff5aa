package compiler_test

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/crosscut-lang/crosscut/internal/filetest"
	"github.com/crosscut-lang/crosscut/lang/compiler"
)

var testUpdateCompilerTests = flag.Bool("test.update-compiler-tests", false, "If set, replace expected compiler snapshot results with actual results.")

// dumpFunctionTable renders one line per named function, sorted by name, of
// its declared arity and how many instructions its compiled body spans --
// a function's span is the gap between its own entry address and the next
// function's, by entry order, since compileFunction emits each function's
// instructions contiguously.
func dumpFunctionTable(p *compiler.Program) string {
	names := p.Functions.Names()
	entries := make([]compiler.FunctionEntry, 0, len(names))
	for _, h := range names {
		e, ok := p.Functions.ByHash(h)
		if ok {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Entry < entries[j].Entry })

	counts := make(map[string]int, len(entries))
	for i, e := range entries {
		end := len(p.Instructions)
		if i+1 < len(entries) {
			end = int(entries[i+1].Entry)
		}
		counts[e.Name] = end - int(e.Entry)
	}

	sortedNames := make([]string, 0, len(entries))
	for _, e := range entries {
		sortedNames = append(sortedNames, e.Name)
	}
	sort.Strings(sortedNames)

	var b strings.Builder
	for _, name := range sortedNames {
		entry, _ := p.Functions.ByName(name)
		fmt.Fprintf(&b, "%s arity=%d instructions=%d\n", name, entry.Arity, counts[name])
	}
	return b.String()
}

// TestCompileSnapshots diffs the compiled function table's shape against a
// golden file per testdata/in/*.crx source -- a regression net over the
// branch-dispatch instruction counts, not the exact opcode stream, so it
// survives encoding changes that don't alter the dispatch it compiles to.
func TestCompileSnapshots(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".crx") {
		t.Run(fi.Name(), func(t *testing.T) {
			b, err := os.ReadFile(filepath.Join(srcDir, fi.Name()))
			if err != nil {
				t.Fatal(err)
			}
			p := compileSrc(t, string(b))
			filetest.DiffOutput(t, fi, dumpFunctionTable(p), resultDir, testUpdateCompilerTests)
		})
	}
}
