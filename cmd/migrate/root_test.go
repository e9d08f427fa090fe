package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/horario/internal/pkg/apperrors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// fixture writes a config whose programs point at CSVs in a temp dir.
func fixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "icc.csv"), "NRC,Clave,Materia,Secc,Dias,Hora,Salon,Profesor\n"+
		"12345,COMP 101,Intro,A,AJ,1600-1659,B-12,Jane Doe\n"+
		"12346,COMP 102,Prog,B,L,0700-0859,CCO1,John Roe\n")
	writeFile(t, filepath.Join(dir, "iti.csv"), "NRC,Clave,Materia,Secc,Dia,Hora,Salon,Profesor\n"+
		"20001,ITIS 201,Redes,A,V,0900-1059,CCO2,Jane Doe\n")

	cfg := fmt.Sprintf(`
loader:
  pace: 0s
import:
  data_dir: %s
programs:
  - {id: ICC, name: Ciencias, source: icc.csv}
  - {id: LICC, name: Licenciatura, source: licc.csv}
  - {id: ITI, name: Tecnologias, source: iti.csv}
logging:
  level: error
`, dir)
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, cfg)
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrate_DryRunAllPrograms(t *testing.T) {
	cfg := fixture(t)

	out, err := run(t, "ALL", "PA2026", "--config", cfg, "--dry-run", "--batch-size", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run summary, term PA2026")
	assert.Contains(t, out, "ICC")
	assert.Contains(t, out, "source missing")
	assert.Contains(t, out, "ITI")
}

func TestMigrate_DryRunSingleProgramMissingSource(t *testing.T) {
	cfg := fixture(t)

	_, err := run(t, "licc", "PA2026", "--config", cfg, "--dry-run")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSourceNotFound)
	assert.Equal(t, exitSource, exitCode(err))
}

func TestMigrate_UsageErrors(t *testing.T) {
	cfg := fixture(t)

	for _, args := range [][]string{
		{"ICC"},
		{"ICC", " "},
		{"ICC", "PA2026", "--no-such-flag"},
		{"NOPE", "PA2026", "--config", cfg, "--dry-run"},
	} {
		_, err := run(t, args...)
		require.Error(t, err, args)
		assert.Equal(t, exitUsage, exitCode(err), args)
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "horarios.csv")
	writeFile(t, path, "NRC,Clave,Materia,Secc,Dias,Hora,Salon,Profesor\n"+
		"12345,COMP 101,Intro,A,AJ,1600-1659,B-12,Jane Doe\n"+
		"12346,COMP 102,Prog,B,,0700-0859,CCO1,John Roe\n")

	out, err := run(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Jane Doe")
	assert.Contains(t, out, "16:00:00")
	assert.Contains(t, out, "1 row(s) skipped")

	out, err = run(t, "inspect", path, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"nrc": "12345"`)
	assert.Contains(t, out, `"reason": "empty day field"`)

	_, err = run(t, "inspect", filepath.Join(dir, "missing.pdf"))
	assert.Equal(t, exitSource, exitCode(err))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{errors.New("boom"), exitFailure},
		{withCode(exitUsage, errors.New("bad flag")), exitUsage},
		{fmt.Errorf("connect: %w", apperrors.ErrConnection), exitConnection},
		{apperrors.NewStoreError("insert", "sections", errors.New("boom")), exitStoreWrite},
		{apperrors.NewSourceNotFoundError("data/x.csv"), exitSource},
		{fmt.Errorf("%w: header", apperrors.ErrParseMismatch), exitSource},
		{fmt.Errorf("%w: XYZ", apperrors.ErrUnknownProgram), exitUsage},
		{errors.Join(context.Canceled, apperrors.ErrStoreOperation), exitCancelled},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), fmt.Sprint(tt.err))
	}
}
