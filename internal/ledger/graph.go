package ledger

import "github.com/alexanderramin/siteledger/internal/recompute"

// Input keys, written by mutators.
const (
	KeyBOQLeaves     recompute.Key = "boq.leaves"
	KeyBOQStructure  recompute.Key = "boq.structure"
	KeyBOQNames      recompute.Key = "boq.names"
	KeyTaskLeaves    recompute.Key = "task.leaves"
	KeyTaskStructure recompute.Key = "task.structure"
	KeyPurchases     recompute.Key = "purchases"
	KeyLabor         recompute.Key = "labor"
	KeyEquipment     recompute.Key = "equipment"
	KeyContract      recompute.Key = "contract_value"
	KeyExpected      recompute.Key = "expected_costs"
	KeyInvoices      recompute.Key = "invoices"
	KeyPayments      recompute.Key = "payments"
)

// Derived keys, recomputed by the scheduler.
const (
	KeyBOQRollup     recompute.Key = "boq.rollup"
	KeyTaskRollup    recompute.Key = "task.rollup"
	KeyMaterialCost  recompute.Key = "project.material_cost"
	KeyLaborCost     recompute.Key = "project.labor_cost"
	KeyEquipmentCost recompute.Key = "project.equipment_cost"
	KeyProgress      recompute.Key = "project.progress_percent"
	KeyTotalCost     recompute.Key = "project.total_cost"
	KeyExpectedTotal recompute.Key = "project.expected_total_cost"
	KeyVariance      recompute.Key = "project.cost_variance"
	KeyFinancials    recompute.Key = "project.financials"
)

// projectGraph is shared by every Ledger; a built Graph is read-only.
var projectGraph = recompute.NewGraph().
	Input(
		KeyBOQLeaves, KeyBOQStructure, KeyBOQNames,
		KeyTaskLeaves, KeyTaskStructure,
		KeyPurchases, KeyLabor, KeyEquipment,
		KeyContract, KeyExpected, KeyInvoices, KeyPayments,
	).
	Derive(KeyBOQRollup, KeyBOQLeaves, KeyBOQStructure).
	Derive(KeyTaskRollup, KeyTaskLeaves, KeyTaskStructure).
	Derive(KeyMaterialCost, KeyBOQRollup, KeyPurchases).
	Derive(KeyLaborCost, KeyLabor).
	Derive(KeyEquipmentCost, KeyEquipment, KeyBOQRollup, KeyBOQNames).
	Derive(KeyProgress, KeyTaskRollup).
	Derive(KeyTotalCost, KeyMaterialCost, KeyLaborCost, KeyEquipmentCost, KeyContract).
	Derive(KeyExpectedTotal, KeyExpected).
	Derive(KeyVariance, KeyExpectedTotal, KeyTotalCost).
	Derive(KeyFinancials, KeyInvoices, KeyPayments).
	MustBuild()

// RecomputeOrder returns the derived fields in the order they are computed.
func RecomputeOrder() []recompute.Key {
	return projectGraph.Order()
}
