package costing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecomputeProjectCosts_TotalIncludesContract(t *testing.T) {
	in := Inputs{
		BOQRoots:      []float64{350},
		Labor:         []Labor{{PerDayCost: 50, WorkingHours: 8, EmployeeCount: 2}},
		ContractValue: 1000,
	}

	c := RecomputeProjectCosts(in)

	assert.Equal(t, 350.0, c.Material)
	assert.Equal(t, 800.0, c.Labor)
	assert.Equal(t, 0.0, c.Equipment)
	assert.Equal(t, 2150.0, c.Total)
}

func TestMaterialCost_ConfirmedPurchasesOverrideBOQ(t *testing.T) {
	purchases := []Purchase{
		{Amount: 200, Confirmed: true},
		{Amount: 300, Confirmed: true},
		{Amount: 9999, Confirmed: false},
	}
	assert.Equal(t, 500.0, MaterialCost([]float64{350}, purchases))
}

func TestMaterialCost_DraftPurchasesFallBackToBOQ(t *testing.T) {
	purchases := []Purchase{{Amount: 9999, Confirmed: false}}
	assert.Equal(t, 350.0, MaterialCost([]float64{100, 250}, purchases))
}

func TestMaterialCost_ZeroValueConfirmedPurchaseStillOverrides(t *testing.T) {
	assert.Equal(t, 0.0, MaterialCost([]float64{350}, []Purchase{{Amount: 0, Confirmed: true}}))
}

func TestEquipmentCost_AllocationsWin(t *testing.T) {
	items := []NamedAmount{{Name: "Equipment hire", Amount: 900}}
	assert.Equal(t, 125.0, EquipmentCost([]float64{100, 25}, items))
}

func TestEquipmentCost_KeywordFallback(t *testing.T) {
	items := []NamedAmount{
		{Name: "Heavy EQUIPMENT", Amount: 400},
		{Name: "Hand tools", Amount: 60},
		{Name: "Concrete", Amount: 1000},
	}
	assert.Equal(t, 460.0, EquipmentCost(nil, items))
}

func TestIsEquipmentName(t *testing.T) {
	assert.True(t, IsEquipmentName("Scaffolding Equipment"))
	assert.True(t, IsEquipmentName("toolbox"))
	assert.False(t, IsEquipmentName("Rebar"))
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0.0, Progress(nil))
	assert.InDelta(t, 200.0/3.0, Progress([]float64{100, 80, 20}), 1e-9)
}

func TestRecomputeProjectCosts_Idempotent(t *testing.T) {
	in := Inputs{
		BOQRoots:      []float64{100.1, 250.2},
		BOQItems:      []NamedAmount{{Name: "tools", Amount: 12.3}},
		Labor:         []Labor{{PerDayCost: 33.3, WorkingHours: 7.5, EmployeeCount: 3}},
		ContractValue: 10,
		TaskRoots:     []float64{10, 20, 33.3},
	}
	first := RecomputeProjectCosts(in)
	second := RecomputeProjectCosts(in)
	assert.Equal(t, first, second)
}

func TestLabor_Cost(t *testing.T) {
	assert.Equal(t, 0.0, Labor{PerDayCost: 50, WorkingHours: 8}.Cost())
	assert.Equal(t, 400.0, Labor{PerDayCost: 50, WorkingHours: 8, EmployeeCount: 1}.Cost())
}
