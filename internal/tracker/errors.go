package tracker

import (
	"errors"
	"fmt"

	"github.com/zulandar/shopfloor/internal/assembly"
	"github.com/zulandar/shopfloor/internal/catalog"
	"github.com/zulandar/shopfloor/internal/part"
	"github.com/zulandar/shopfloor/internal/rack"
	"github.com/zulandar/shopfloor/internal/sheet"
)

// Kind classifies the outcome of an operation for callers.
type Kind string

// Outcome kinds. Everything except KindInternal is an expected condition the
// operator can act on.
const (
	KindOK                Kind = "ok"
	KindNotFound          Kind = "not_found"
	KindInvalidTransition Kind = "invalid_transition"
	KindAlreadySorted     Kind = "already_sorted"
	KindAlreadyComplete   Kind = "already_complete"
	KindNoSlotAvailable   Kind = "no_slot_available"
	KindNoPartsOnSheet    Kind = "no_parts_on_sheet"
	KindAlreadyCut        Kind = "already_cut"
	KindPartsNotReady     Kind = "parts_not_ready"
	KindNotComplete       Kind = "not_complete"
	KindConflict          Kind = "conflict"
	KindInternal          Kind = "internal"
)

// Classify maps an error to its kind and an operator-facing message.
func Classify(err error) (Kind, string) {
	if err == nil {
		return KindOK, ""
	}

	var notReady *assembly.PartsNotReadyError
	if errors.As(err, &notReady) {
		if notReady.Total == 0 {
			return KindPartsNotReady, fmt.Sprintf("Product %s has no parts to assemble.", notReady.ProductNumber)
		}
		return KindPartsNotReady, fmt.Sprintf("Product %s is not ready: %d of %d parts are not sorted yet.",
			notReady.ProductNumber, notReady.Missing, notReady.Total)
	}

	switch {
	case errors.Is(err, part.ErrNotFound):
		return KindNotFound, "Part not found. Check the part number and scan again."
	case errors.Is(err, assembly.ErrProductNotFound), errors.Is(err, catalog.ErrProductNotFound):
		return KindNotFound, "Product not found. Check the product number and scan again."
	case errors.Is(err, sheet.ErrSheetNotFound):
		return KindNotFound, "No nest sheet has that barcode."
	case errors.Is(err, catalog.ErrWorkOrderNotFound):
		return KindNotFound, "Work order not found."
	case errors.Is(err, rack.ErrNotFound):
		return KindNotFound, "Rack not found."
	case errors.Is(err, part.ErrAlreadySorted):
		return KindAlreadySorted, "Part is already sorted. Look up its slot instead of scanning it again."
	case errors.Is(err, assembly.ErrAlreadyComplete):
		return KindAlreadyComplete, "Product is already assembled."
	case errors.Is(err, rack.ErrNoSlotAvailable):
		return KindNoSlotAvailable, "Every active rack is full. Free a slot or activate another rack."
	case errors.Is(err, sheet.ErrNoPartsOnSheet):
		return KindNoPartsOnSheet, "No parts are nested on this sheet. The sheet data may be incomplete."
	case errors.Is(err, sheet.ErrAlreadyCut):
		return KindAlreadyCut, "This sheet was already cut."
	case errors.Is(err, assembly.ErrNotComplete):
		return KindNotComplete, "Product is not assembled yet and cannot ship."
	case errors.Is(err, part.ErrInvalidTransition), errors.Is(err, part.ErrLocationRequired):
		return KindInvalidTransition, "That scan does not fit the part's current status."
	case errors.Is(err, catalog.ErrClosed), errors.Is(err, rack.ErrInUse):
		return KindConflict, "The change conflicts with work already on the floor."
	default:
		return KindInternal, "Internal error. The scan was not applied; try again."
	}
}
