package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/alexanderramin/siteledger/internal/importer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const villaYAML = `
project:
  code: VILLA01
  name: Villa
  status: active
  contract_value: 1000
  expected:
    material: 400
    labor: 800
    equipment: 0
    contract_value: 1000
boq:
  - ref: structure
    name: Structure
  - ref: concrete
    parent_ref: structure
    name: Concrete
    quantity: 10
    unit_price: 10
  - ref: rebar
    parent_ref: structure
    name: Rebar
    quantity: 5
    unit_price: 50
tasks:
  - ref: build
    name: Build
  - ref: dig
    parent_ref: build
    name: Dig
    progress: 100
  - ref: pour
    parent_ref: build
    name: Pour
    progress: 80
  - ref: frame
    parent_ref: build
    name: Frame
    progress: 20
dprs:
  - date: "2025-02-01"
    employee_count: 2
    per_day_cost: 50
`

func writeImportFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestImportService_ImportProject_YAML(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	res, err := s.imports.ImportProject(ctx, writeImportFile(t, "villa.yaml", villaYAML))
	require.NoError(t, err)

	assert.Equal(t, 3, res.BOQCount)
	assert.Equal(t, 4, res.TaskCount)
	assert.Equal(t, 1, res.DPRCount)
	assert.Equal(t, domain.ProjectActive, res.Project.Status)
	assert.Equal(t, 2150.0, res.Project.TotalCost)

	stored := s.reload(t, res.Project.ID)
	assert.Equal(t, 350.0, stored.MaterialCost)
	assert.Equal(t, 800.0, stored.LaborCost)
	assert.Equal(t, 2150.0, stored.TotalCost)
	assert.InDelta(t, 66.67, stored.ProgressPercent, 0.01)
	assert.Equal(t, 2200.0, stored.ExpectedTotalCost)

	items, err := s.boq.List(ctx, stored.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, 350.0, items[0].TotalPrice)
	for i, item := range items {
		assert.Equal(t, i+1, item.Seq)
	}

	dig, err := s.tasks.Get(ctx, stored.ID, "#5")
	require.NoError(t, err)
	assert.Equal(t, "Dig", dig.Name)
}

func TestImportService_InvalidSchemaWritesNothing(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	schema := &importer.ImportSchema{
		Project: importer.ProjectImport{Code: "bad", Name: ""},
		Tasks:   []importer.TaskImport{{Ref: "t1", Name: "Dig", Progress: 150}},
	}
	_, err := s.imports.ImportProjectFromSchema(ctx, schema)
	require.ErrorIs(t, err, ErrInvalidImport)
	assert.ErrorContains(t, err, "(3 errors)")

	all, err := s.projects.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestImportService_NonFiniteYAMLValuesRejected(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	body := `
project:
  code: VILLA02
  name: Villa
  contract_value: .inf
boq:
  - ref: slab
    name: Slab
    quantity: .nan
    unit_price: 10
`
	_, err := s.imports.ImportProject(ctx, writeImportFile(t, "villa.yaml", body))
	require.ErrorIs(t, err, ErrInvalidImport)
	assert.ErrorContains(t, err, "contract_value must be a finite number")
	assert.ErrorContains(t, err, "quantity must be a finite number")

	all, err := s.projects.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestImportService_DuplicateCodeRollsBack(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	path := writeImportFile(t, "villa.yml", villaYAML)

	first, err := s.imports.ImportProject(ctx, path)
	require.NoError(t, err)

	_, err = s.imports.ImportProject(ctx, path)
	require.Error(t, err)

	all, err := s.projects.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, first.Project.ID, all[0].ID)
}

func TestImportService_MissingFile(t *testing.T) {
	s := setupServices(t)
	_, err := s.imports.ImportProject(context.Background(), filepath.Join(t.TempDir(), "none.json"))
	assert.ErrorContains(t, err, "loading import file")
}
