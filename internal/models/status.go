package models

// Part statuses, in canonical forward order.
const (
	PartPending   = "Pending"
	PartCut       = "Cut"
	PartSorted    = "Sorted"
	PartAssembled = "Assembled"
	PartShipped   = "Shipped"
)

// Product statuses.
const (
	ProductPending    = "Pending"
	ProductInProgress = "InProgress"
	ProductComplete   = "Complete"
	ProductShipped    = "Shipped"
)

// Work order statuses.
const (
	WorkOrderActive   = "Active"
	WorkOrderComplete = "Complete"
	WorkOrderShipped  = "Shipped"
)

// Nest sheet statuses.
const (
	SheetPending = "Pending"
	SheetCut     = "Cut"
)
