package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taxmap/core/catalog"
	"taxmap/core/currency"
	"taxmap/core/engine"
	"taxmap/core/output"
	"taxmap/core/ui"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cfgFile, outputFile, outputFormat = "", "", ""
	explain = false
	catalogPath = ""

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "taxmap version "+Version)
}

func TestCalculateWritesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxes.csv")
	_, err := execute(t, "calculate", "--salary", "5000", "--offline", "--format", "csv", "--output", path, "--display-currency", "EUR")
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Total Tax (EUR)", records[0][3])
	assert.Greater(t, len(records), 40)
}

func TestCalculateRejectsSalary(t *testing.T) {
	_, err := execute(t, "calculate", "--salary", "-1", "--offline")
	assert.Error(t, err)
}

func TestCalculateRejectsInvalidCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	doc := "countries:\n  - key: overtaxed\n    currency: USD\n    brackets:\n      - {min: 0, rate: 150}\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	_, err := execute(t, "calculate", "--salary", "5000", "--offline", "--catalog", path, "--format", "csv",
		"--output", filepath.Join(t.TempDir(), "out.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overtaxed")
}

func TestCatalogValidateBuiltIn(t *testing.T) {
	_, err := execute(t, "catalog", "validate")
	assert.NoError(t, err)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	_, err := execute(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = execute(t, "--config", path, "config", "init")
	assert.Error(t, err)
}

func testPrompt(t *testing.T) (*prompt, *bytes.Buffer) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	var buf bytes.Buffer
	p := &prompt{
		session: engine.NewSession(cat, currency.NewStaticProvider(currency.Fallback()),
			engine.NewOrchestrator(engine.WithLogger(zap.NewNop()))),
		catalog:   cat,
		w:         ui.NewWriter(&buf, true),
		formatter: output.NewTableFormatter(true),
		request:   engine.Request{InputCurrency: "USD", DisplayCurrency: "USD"},
	}
	return p, &buf
}

func TestPromptFlow(t *testing.T) {
	p, buf := testPrompt(t)
	ctx := context.Background()

	assert.False(t, p.handle(ctx, "country germany"))
	assert.Contains(t, buf.String(), "No results yet")

	assert.False(t, p.handle(ctx, "5,000"))
	latest := p.session.Latest()
	require.False(t, latest.Empty())
	assert.Equal(t, 5000.0, latest.Request.MonthlySalary)

	assert.False(t, p.handle(ctx, "show eur"))
	assert.Equal(t, "EUR", string(p.session.Latest().Request.DisplayCurrency))

	buf.Reset()
	assert.False(t, p.handle(ctx, "country germany"))
	assert.Contains(t, buf.String(), "Germany")

	assert.False(t, p.handle(ctx, "top x"))
	assert.False(t, p.handle(ctx, "clear"))
	assert.True(t, p.session.Latest().Empty())

	buf.Reset()
	assert.False(t, p.handle(ctx, "-5"))
	assert.Contains(t, buf.String(), "INVALID_INPUT")

	assert.True(t, p.handle(ctx, "quit"))
}
