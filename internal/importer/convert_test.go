package importer

import (
	"testing"
	"time"

	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var importTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestConvert_MinimalProject(t *testing.T) {
	out, err := Convert(validMinimalSchema(), importTime)
	require.NoError(t, err)

	p := out.Project
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "VILLA01", p.Code)
	assert.Equal(t, domain.ProjectDraft, p.Status)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, importTime, p.CreatedAt)

	require.Len(t, out.BOQ, 2)
	assert.Nil(t, out.BOQ[0].ParentID)
	require.NotNil(t, out.BOQ[1].ParentID)
	assert.Equal(t, out.BOQ[0].ID, *out.BOQ[1].ParentID)
	assert.Equal(t, 100.0, out.BOQ[1].TotalPrice)
	assert.Equal(t, 1, out.BOQ[1].OrderIndex)
	for _, b := range out.BOQ {
		assert.Equal(t, p.ID, b.ProjectID)
	}

	require.Len(t, out.Tasks, 1)
	assert.Equal(t, 50.0, out.Tasks[0].LeafProgress)
	assert.Equal(t, domain.TaskNotStarted, out.Tasks[0].Status)
	assert.Empty(t, out.DPRs)
}

func TestConvert_LowercaseCodeIsNormalized(t *testing.T) {
	s := validMinimalSchema()
	s.Project.Code = "villa01"

	out, err := Convert(s, importTime)
	require.NoError(t, err)
	assert.Equal(t, "VILLA01", out.Project.Code)
}

func TestConvert_RecordsLinkToRefs(t *testing.T) {
	s := validMinimalSchema()
	s.Project.Expected = &ExpectedImport{Material: 500, Labor: 1000, Equipment: 100}
	s.DPRs = []DPRImport{{
		Date: "2025-02-01", EmployeeCount: 5, PerDayCost: 20,
		Materials: []DPRMaterialImport{{Product: "Cement", Quantity: 10, UnitCost: 11.5}},
	}}
	s.Equipment = []EquipmentImport{{Equipment: "Excavator", TaskRef: ptrStr("t1"), AllocationDate: "2025-02-01", HourlyRate: 10}}
	s.Purchases = []PurchaseImport{{BOQRef: ptrStr("b2"), Amount: 500, State: "purchase"}}

	out, err := Convert(s, importTime)
	require.NoError(t, err)

	assert.Equal(t, 1600.0, out.Project.Expected.Total())

	require.Len(t, out.DPRs, 1)
	d := out.DPRs[0]
	assert.Equal(t, float64(domain.DefaultWorkingHours), d.WorkingHours)
	assert.Equal(t, 800.0, d.LaborCost())
	require.Len(t, d.Materials, 1)
	assert.Equal(t, d.ID, d.Materials[0].DPRID)

	require.Len(t, out.Equipment, 1)
	e := out.Equipment[0]
	require.NotNil(t, e.TaskID)
	assert.Equal(t, out.Tasks[0].ID, *e.TaskID)
	assert.Equal(t, domain.EquipmentAllocated, e.State)
	assert.Equal(t, domain.EquipmentOwned, e.Category)
	assert.Equal(t, "EQ-VILLA01-001", e.Reference)

	require.Len(t, out.Purchases, 1)
	po := out.Purchases[0]
	require.NotNil(t, po.BOQItemID)
	assert.Equal(t, out.BOQ[1].ID, *po.BOQItemID)
	assert.True(t, po.Confirmed())
	assert.Equal(t, "PO-VILLA01-001", po.Reference)
}

func TestConvert_UnknownParentFails(t *testing.T) {
	s := validMinimalSchema()
	s.Tasks = append(s.Tasks, TaskImport{Ref: "t2", ParentRef: ptrStr("zz"), Name: "Orphan"})

	_, err := Convert(s, importTime)
	assert.ErrorContains(t, err, `parent_ref "zz"`)
}

func TestParseImportSchema_YAMLAndJSON(t *testing.T) {
	yamlDoc := []byte(`
project:
  code: VILLA01
  name: Villa
  contract_value: 1000
boq:
  - ref: b1
    name: Structure
  - ref: b2
    parent_ref: b1
    name: Concrete
    quantity: 10
    unit_price: 10
tasks:
  - ref: t1
    name: Foundations
    progress: 50
`)
	jsonDoc := []byte(`{
  "project": {"code": "VILLA01", "name": "Villa", "contract_value": 1000},
  "boq": [
    {"ref": "b1", "name": "Structure"},
    {"ref": "b2", "parent_ref": "b1", "name": "Concrete", "quantity": 10, "unit_price": 10}
  ],
  "tasks": [{"ref": "t1", "name": "Foundations", "progress": 50}]
}`)

	fromYAML, err := ParseImportSchema(yamlDoc, ".yaml")
	require.NoError(t, err)
	fromJSON, err := ParseImportSchema(jsonDoc, ".json")
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromYAML)
	assert.Empty(t, ValidateImportSchema(fromYAML))
	require.NotNil(t, fromYAML.BOQ[1].ParentRef)
	assert.Equal(t, "b1", *fromYAML.BOQ[1].ParentRef)
}

func TestParseImportSchema_Malformed(t *testing.T) {
	_, err := ParseImportSchema([]byte("{"), ".json")
	assert.ErrorContains(t, err, "parsing import file")

	_, err = ParseImportSchema([]byte("project: [unclosed"), ".yml")
	assert.ErrorContains(t, err, "parsing import file")
}
