package domain

type ProjectStatus string

const (
	ProjectDraft     ProjectStatus = "draft"
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
	ProjectArchived  ProjectStatus = "archived"
)

// ValidProjectStatuses is the canonical set of accepted project status strings.
var ValidProjectStatuses = map[string]bool{
	"draft": true, "active": true, "completed": true,
	"cancelled": true, "archived": true,
}

type TaskStatus string

const (
	TaskNotStarted TaskStatus = "not_started"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// ValidTaskStatuses is the canonical set of accepted task status strings.
var ValidTaskStatuses = map[string]bool{
	"not_started": true, "in_progress": true, "completed": true,
}

type EquipmentCategory string

const (
	EquipmentOwned       EquipmentCategory = "owned"
	EquipmentContractual EquipmentCategory = "contractual"
)

type EquipmentState string

const (
	EquipmentDraft     EquipmentState = "draft"
	EquipmentAllocated EquipmentState = "allocated"
	EquipmentInUse     EquipmentState = "in_use"
	EquipmentReturned  EquipmentState = "returned"
	EquipmentCancelled EquipmentState = "cancelled"
)

type PurchaseState string

const (
	PurchaseDraft     PurchaseState = "draft"
	PurchaseConfirmed PurchaseState = "purchase"
	PurchaseDone      PurchaseState = "done"
	PurchaseCancelled PurchaseState = "cancel"
)

type PostingState string

const (
	PostingDraft     PostingState = "draft"
	PostingPosted    PostingState = "posted"
	PostingCancelled PostingState = "cancel"
)

type PaymentKind string

const (
	PaymentAdvance   PaymentKind = "advance"
	PaymentProgress  PaymentKind = "progress"
	PaymentRetention PaymentKind = "retention"
	PaymentFinal     PaymentKind = "final"
)

// ValidPaymentKinds is the canonical set of accepted payment kind strings.
var ValidPaymentKinds = map[string]bool{
	"advance": true, "progress": true, "retention": true, "final": true,
}

type QuotationState string

const (
	QuotationDraft     QuotationState = "draft"
	QuotationSent      QuotationState = "sent"
	QuotationApproved  QuotationState = "approved"
	QuotationRejected  QuotationState = "rejected"
	QuotationConverted QuotationState = "converted"
)

type WorkType string

const (
	WorkCeilingPlaster WorkType = "ceiling_plaster"
	WorkPartition      WorkType = "partition"
	WorkPainting       WorkType = "painting"
	WorkTiling         WorkType = "tiling"
	WorkFlooring       WorkType = "flooring"
	WorkElectrical     WorkType = "electrical"
	WorkPlumbing       WorkType = "plumbing"
	WorkCarpentry      WorkType = "carpentry"
	WorkMasonry        WorkType = "masonry"
	WorkRoofing        WorkType = "roofing"
	WorkOther          WorkType = "other"
)

// ValidWorkTypes is the canonical set of accepted quotation work types.
var ValidWorkTypes = map[string]bool{
	"ceiling_plaster": true, "partition": true, "painting": true,
	"tiling": true, "flooring": true, "electrical": true, "plumbing": true,
	"carpentry": true, "masonry": true, "roofing": true, "other": true,
}
