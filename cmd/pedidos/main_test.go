package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
)

// offline keeps every command on the local heuristic.
func offline(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("USE_VERTEX", "false")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("VOCABULARY_FILE", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("TRACING_ENABLED", "false")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInterpretCmd_Argument(t *testing.T) {
	offline(t)

	out, err := run(t, "", "interpretar", "--canal", "whatsapp",
		"Necesito 3 buñuelos para mañana antes de las 3pm en la Calle 10 #5-20, barrio Chapinero. Es frágil.")
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "whatsapp", rec["entrada_original"].(map[string]any)["canal"])
	det := rec["interpretacion_IA"].(map[string]any)["detalles"].(map[string]any)
	assert.Equal(t, "Calle 10 #5-20", det["direccion_entrega"].(map[string]any)["texto"])
	assert.Contains(t, out, "buñuelos")
}

func TestInterpretCmd_Stdin(t *testing.T) {
	offline(t)

	out, err := run(t, "2 arepas para hoy\n", "interpretar", "--compact", "--usar-modelo=true")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(out), "\n")+1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "2 arepas para hoy", rec["entrada_original"].(map[string]any)["texto_libre"])
}

func TestInterpretCmd_Errors(t *testing.T) {
	offline(t)

	_, err := run(t, "   ", "interpretar")
	require.Error(t, err)
	assert.Equal(t, "texto_libre vacío.", err.Error())

	_, err = run(t, "", "interpretar", "--canal", "fax", "1 pan")
	assert.Error(t, err)

	t.Setenv("LLM_PROVIDER", "claude")
	_, err = run(t, "", "interpretar", "1 pan")
	assert.Error(t, err)
}

func TestBatchCmd(t *testing.T) {
	offline(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "uno.txt"), []byte("3 buñuelos para hoy en la Calle 10 #5-20"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dos.txt"), []byte("   "), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nota.md"), []byte("ignorada"), 0o644))
	outPath := filepath.Join(t.TempDir(), "reporte.xlsx")

	out, err := run(t, "", "lote", "--dir", dir, "--out", outPath, "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Processed 2 files (1 OK, 1 FAILED")

	f, err := excelize.OpenFile(outPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Pedidos")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	// lexical order: dos.txt then uno.txt
	assert.Equal(t, []string{"dos.txt", "FAILED"}, rows[1][:2])
	assert.Equal(t, []string{"uno.txt", "OK"}, rows[2][:2])
}

func TestBatchCmd_RequiresDir(t *testing.T) {
	offline(t)
	_, err := run(t, "", "lote")
	assert.ErrorContains(t, err, "--dir")
}

func TestInterpretCmd_Tracing(t *testing.T) {
	offline(t)
	t.Setenv("TRACING_ENABLED", "true")
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"interpretar", "2 arepas para hoy"})
	require.NoError(t, cmd.Execute())

	var rec map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	assert.Contains(t, errOut.String(), `"Name":"interpretar_pedido"`)
}
