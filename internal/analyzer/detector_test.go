package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"numpycheck/internal/models"
	"numpycheck/internal/rules"
)

func newTestTable(t *testing.T, list []rules.Rule) *rules.Table {
	t.Helper()
	table, err := rules.NewTable(list, []string{"np.", "numpy."})
	require.NoError(t, err)
	return table
}

func defaultRules() []rules.Rule {
	return []rules.Rule{
		{APIName: "np.geterrobj", ChangeType: models.ChangeRemoved, Severity: models.SeverityHigh, Suggestion: "Use np.geterr() instead."},
		{APIName: "np.float_", ChangeType: models.ChangeRemoved, Severity: models.SeverityHigh, Suggestion: "Use np.float64 instead."},
		{APIName: "np.product", ChangeType: models.ChangeRemoved, Severity: models.SeverityMedium, Suggestion: "Use np.prod instead."},
		{APIName: "np.random.random_integers", ChangeType: models.ChangeRemoved, Severity: models.SeverityHigh},
	}
}

func analyze(t *testing.T, src string) ([]models.Finding, []models.ImportRecord) {
	t.Helper()
	d := NewDetector(newTestTable(t, defaultRules()), "numpy", nil)
	findings, imports, err := d.AnalyzeSource(context.Background(), []byte(src), "test.py")
	require.NoError(t, err)
	return findings, imports
}

func TestAliasedImportCall(t *testing.T) {
	findings, _ := analyze(t, "import numpy as np\nnp.geterrobj()\n")

	require.Len(t, findings, 1)
	f := findings[0]
	assert.Equal(t, "geterrobj", f.APIName)
	assert.Equal(t, "np.geterrobj", f.ActualCall)
	assert.Equal(t, 2, f.Line)
	assert.Equal(t, 1, f.Column)
	assert.Equal(t, models.ChangeRemoved, f.ChangeType)
	assert.Equal(t, models.SeverityHigh, f.Severity)
}

func TestArbitraryAliasName(t *testing.T) {
	findings, _ := analyze(t, "import numpy as npy\nx = npy.float_(3.14)\n")

	require.Len(t, findings, 1)
	assert.Equal(t, "float_", findings[0].APIName)
	assert.Equal(t, "npy.float_", findings[0].ActualCall)
}

func TestPlainImportCall(t *testing.T) {
	findings, _ := analyze(t, "import numpy\nnumpy.geterrobj()\n")

	require.Len(t, findings, 1)
	assert.Equal(t, "geterrobj", findings[0].APIName)
}

func TestFromImportBareCall(t *testing.T) {
	findings, _ := analyze(t, "from numpy import geterrobj\ngeterrobj()\n")

	require.Len(t, findings, 1)
	assert.Equal(t, "geterrobj", findings[0].APIName)
	assert.Equal(t, "geterrobj", findings[0].ActualCall)
}

func TestFromImportedModuleAttributeCall(t *testing.T) {
	// random resolves through its origin, but randint has no rule
	findings, _ := analyze(t, "from numpy import random\nrandom.randint(0, 10)\n")
	assert.Empty(t, findings)
}

func TestFromImportedModuleAttributeCallWithRule(t *testing.T) {
	findings, _ := analyze(t, "from numpy import random\nrandom.random_integers(0, 10)\n")

	require.Len(t, findings, 1)
	assert.Equal(t, "random.random_integers", findings[0].APIName)
	assert.Equal(t, "random.random_integers", findings[0].ActualCall)
}

func TestSubmoduleAlias(t *testing.T) {
	findings, _ := analyze(t, "import numpy.random as nr\nnr.random_integers(0, 10)\n")

	require.Len(t, findings, 1)
	assert.Equal(t, "random.random_integers", findings[0].APIName)
	assert.Equal(t, "nr.random_integers", findings[0].ActualCall)
}

func TestSubmodulePlainImport(t *testing.T) {
	// "import numpy.random" binds the name numpy
	findings, _ := analyze(t, "import numpy.random\nnumpy.random.random_integers(0, 10)\n")

	require.Len(t, findings, 1)
	assert.Equal(t, "random.random_integers", findings[0].APIName)
}

func TestUnimportedNameIsIgnored(t *testing.T) {
	// np is a local object here, not the library
	findings, _ := analyze(t, "np = make_thing()\nnp.geterrobj()\n")
	assert.Empty(t, findings)
}

func TestOtherLibraryAliasIsIgnored(t *testing.T) {
	findings, _ := analyze(t, "import pandas as np\nnp.geterrobj()\n")
	assert.Empty(t, findings)
}

func TestSubpackageNamedLikeLibraryIsIgnored(t *testing.T) {
	// foo is a foreign package; its numpy subpackage is not the library
	findings, _ := analyze(t, "import foo.numpy\nfoo.geterrobj()\nfoo.numpy.geterrobj()\n")
	assert.Empty(t, findings)
}

func TestAliasedSubpackageNamedLikeLibraryIsIgnored(t *testing.T) {
	findings, _ := analyze(t, "import foo.numpy as np\nnp.geterrobj()\n")
	assert.Empty(t, findings)
}

func TestCallBeforeImportIsIgnored(t *testing.T) {
	findings, _ := analyze(t, "np.geterrobj()\nimport numpy as np\n")
	assert.Empty(t, findings)
}

func TestChainRootedInSelfIsUnresolved(t *testing.T) {
	src := `import numpy as np
class Holder:
    def __init__(self):
        self.np = np
    def run(self):
        return self.np.geterrobj()
`
	findings, _ := analyze(t, src)
	assert.Empty(t, findings)
}

func TestNestedCallsBothDetected(t *testing.T) {
	findings, _ := analyze(t, "import numpy as np\nx = np.float_(np.product([1, 2]))\n")

	require.Len(t, findings, 2)
	names := []string{findings[0].APIName, findings[1].APIName}
	assert.Contains(t, names, "float_")
	assert.Contains(t, names, "product")
}

func TestAttributeAccessWithoutCallIsIgnored(t *testing.T) {
	findings, _ := analyze(t, "import numpy as np\nx = np.float_\n")
	assert.Empty(t, findings)
}

func TestNoRuleNoFinding(t *testing.T) {
	findings, _ := analyze(t, "import numpy as np\nnp.array([1, 2, 3])\n")
	assert.Empty(t, findings)
}

func TestIdempotence(t *testing.T) {
	src := []byte("import numpy as np\nnp.geterrobj()\nnp.float_(1)\n")
	d := NewDetector(newTestTable(t, defaultRules()), "numpy", nil)

	first, _, err := d.AnalyzeSource(context.Background(), src, "test.py")
	require.NoError(t, err)
	second, _, err := d.AnalyzeSource(context.Background(), src, "test.py")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSyntaxErrorReturnsParseError(t *testing.T) {
	d := NewDetector(newTestTable(t, defaultRules()), "numpy", nil)
	_, _, err := d.AnalyzeSource(context.Background(), []byte("def broken(:\n    pass\n"), "broken.py")

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "broken.py", pe.File)
}

func TestImportRecords(t *testing.T) {
	src := `import numpy as np
import numpy.random
from numpy import float_, product as prod
from numpy.random import *
import os
`
	_, imports := analyze(t, src)

	require.Len(t, imports, 4, "os import should not be recorded")

	assert.Equal(t, "numpy", imports[0].Module)
	assert.Equal(t, "np", imports[0].Alias)
	assert.Equal(t, 1, imports[0].Line)

	assert.Equal(t, "numpy.random", imports[1].Module)

	assert.Equal(t, "numpy", imports[2].Module)
	assert.Equal(t, []string{"float_", "product as prod"}, imports[2].Symbols)

	assert.Equal(t, "numpy.random", imports[3].Module)
	assert.True(t, imports[3].Wildcard)
}

func TestFromImportAliasBindsLocalName(t *testing.T) {
	findings, _ := analyze(t, "from numpy import product as prod\nprod([1, 2])\n")

	require.Len(t, findings, 1)
	assert.Equal(t, "product", findings[0].APIName)
	assert.Equal(t, "prod", findings[0].ActualCall)
}

func TestAnalyzeFileReadsDisk(t *testing.T) {
	d := NewDetector(newTestTable(t, defaultRules()), "numpy", nil)
	findings, _, err := d.AnalyzeFile(context.Background(), "../../testdata/legacy_api.py")
	require.NoError(t, err)
	assert.NotEmpty(t, findings)
}
