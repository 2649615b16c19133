package memory

import (
	"testing"

	"diagramcore/testutil"
)

func TestMemoryStoreStaysBelowEngine(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.Under("diagramcore/internal/core"), "backends are wired by the engine, not the reverse")
}
