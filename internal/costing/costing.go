// Package costing computes project-level cost and progress figures from the
// flat collections a project owns. Every function is pure.
package costing

import "strings"

// Purchase is the part of a purchase order that affects material cost.
type Purchase struct {
	Amount    float64
	Confirmed bool
}

// Labor is the part of a daily report that affects labor cost.
type Labor struct {
	PerDayCost    float64
	WorkingHours  float64
	EmployeeCount int
}

// Cost is PerDayCost x WorkingHours x EmployeeCount.
func (l Labor) Cost() float64 {
	return l.PerDayCost * l.WorkingHours * float64(l.EmployeeCount)
}

// NamedAmount is a BOQ item's name and rolled-up total.
type NamedAmount struct {
	Name   string
	Amount float64
}

// Inputs is everything RecomputeProjectCosts reads.
type Inputs struct {
	BOQRoots      []float64
	BOQItems      []NamedAmount
	Purchases     []Purchase
	Labor         []Labor
	Equipment     []float64
	ContractValue float64
	TaskRoots     []float64
}

// Costs are the derived project fields.
type Costs struct {
	Material        float64
	Labor           float64
	Equipment       float64
	Total           float64
	ProgressPercent float64
}

// equipmentKeywords identify BOQ lines that stand in for equipment cost when
// no allocation exists.
var equipmentKeywords = []string{"equipment", "tool"}

// RecomputeProjectCosts derives every cost field and the progress percent.
func RecomputeProjectCosts(in Inputs) Costs {
	c := Costs{
		Material:        MaterialCost(in.BOQRoots, in.Purchases),
		Labor:           LaborCost(in.Labor),
		Equipment:       EquipmentCost(in.Equipment, in.BOQItems),
		ProgressPercent: Progress(in.TaskRoots),
	}
	c.Total = TotalCost(c.Material, c.Labor, c.Equipment, in.ContractValue)
	return c
}

// MaterialCost is the sum of confirmed purchases when at least one confirmed
// purchase exists, otherwise the sum of the top-level BOQ totals. Purchases
// replace the estimate; they are not added to it.
func MaterialCost(boqRoots []float64, purchases []Purchase) float64 {
	var confirmed float64
	var any bool
	for _, p := range purchases {
		if p.Confirmed {
			confirmed += p.Amount
			any = true
		}
	}
	if any {
		return confirmed
	}
	return sum(boqRoots)
}

// LaborCost sums the labor of every report.
func LaborCost(reports []Labor) float64 {
	var total float64
	for _, r := range reports {
		total += r.Cost()
	}
	return total
}

// EquipmentCost is the sum of allocation costs when any allocation exists.
// Otherwise it falls back to BOQ items at any depth whose name mentions
// equipment or tools. A matching parent and a matching child both count.
func EquipmentCost(allocations []float64, boqItems []NamedAmount) float64 {
	if len(allocations) > 0 {
		return sum(allocations)
	}
	var total float64
	for _, item := range boqItems {
		if IsEquipmentName(item.Name) {
			total += item.Amount
		}
	}
	return total
}

// IsEquipmentName reports whether a BOQ item name marks an equipment line.
func IsEquipmentName(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range equipmentKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// TotalCost adds the contract value to the three cost categories.
func TotalCost(material, labor, equipment, contract float64) float64 {
	return material + labor + equipment + contract
}

// Progress is the mean of the top-level task progress values, 0 with none.
func Progress(taskRoots []float64) float64 {
	if len(taskRoots) == 0 {
		return 0
	}
	return sum(taskRoots) / float64(len(taskRoots))
}

func sum(vals []float64) float64 {
	var total float64
	for _, v := range vals {
		total += v
	}
	return total
}
