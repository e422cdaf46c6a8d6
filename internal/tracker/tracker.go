// Package tracker applies shop floor scans. Each scan runs as one database
// transaction; notifications go out only after it commits.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/zulandar/shopfloor/internal/assembly"
	"github.com/zulandar/shopfloor/internal/metrics"
	"github.com/zulandar/shopfloor/internal/models"
	"github.com/zulandar/shopfloor/internal/notify"
	"github.com/zulandar/shopfloor/internal/part"
	"github.com/zulandar/shopfloor/internal/rack"
	"github.com/zulandar/shopfloor/internal/rollup"
	"github.com/zulandar/shopfloor/internal/sheet"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Operation names used in logs and metrics.
const (
	OpSort     = "sort"
	OpCut      = "cut"
	OpAssemble = "assemble"
	OpShip     = "ship"
)

// Opts holds the dependencies of a Tracker.
type Opts struct {
	DB     *gorm.DB
	Sink   notify.Sink
	Logger *zap.Logger
}

// Tracker is the entry point for scans and dashboard projections.
type Tracker struct {
	db     *gorm.DB
	sink   notify.Sink
	logger *zap.Logger
	racks  *rack.Locker
	locks  *keyedLocks
}

// ScanOpts identifies where a scan came from.
type ScanOpts struct {
	Station  string
	Operator string
}

// SortResult reports where a sorted part was stored.
type SortResult struct {
	PartID        string `json:"partId"`
	PartNumber    string `json:"partNumber"`
	ProductNumber string `json:"productNumber"`
	RackID        uint   `json:"rackId"`
	RackName      string `json:"rackName"`
	Row           int    `json:"row"`
	Column        int    `json:"column"`
}

// CutResult reports the outcome of a sheet scan.
type CutResult struct {
	SheetName      string   `json:"sheetName"`
	PartsProcessed int      `json:"partsProcessed"`
	Skipped        []string `json:"skipped,omitempty"`
}

// AssembleResult reports the outcome of an assembly scan.
type AssembleResult struct {
	ProductNumber  string `json:"productNumber"`
	PartsAssembled int    `json:"partsAssembled"`
}

// ShipResult reports the outcome of a shipping scan.
type ShipResult struct {
	ProductNumber string `json:"productNumber"`
	PartsShipped  int    `json:"partsShipped"`
}

// New creates a Tracker.
func New(opts Opts) (*Tracker, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("tracker: db is required")
	}
	if opts.Sink == nil {
		opts.Sink = notify.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Tracker{
		db:     opts.DB,
		sink:   opts.Sink,
		logger: opts.Logger,
		racks:  rack.NewLocker(),
		locks:  newKeyedLocks(),
	}, nil
}

func (o ScanOpts) transition(activity string) part.TransitionOpts {
	return part.TransitionOpts{Station: o.Station, Operator: o.Operator, Activity: activity}
}

// finish records metrics and logs the outcome of a scan.
func (t *Tracker) finish(op, key string, start time.Time, err error) {
	kind := KindOK
	if err != nil {
		kind, _ = Classify(err)
	}
	metrics.RecordScan(op, string(kind), time.Since(start))
	switch {
	case err == nil:
		t.logger.Info("scan applied", zap.String("op", op), zap.String("key", key), zap.Duration("took", time.Since(start)))
	case kind == KindInternal:
		t.logger.Error("scan failed", zap.String("op", op), zap.String("key", key), zap.Error(err))
	default:
		t.logger.Info("scan rejected", zap.String("op", op), zap.String("key", key), zap.String("kind", string(kind)), zap.Error(err))
	}
}

// ScanForSort assigns the scanned part a storage slot and marks it Sorted.
func (t *Tracker) ScanForSort(ctx context.Context, partNumber string, opts ScanOpts) (res *SortResult, err error) {
	start := time.Now()
	defer func() { t.finish(OpSort, partNumber, start, err) }()
	db := t.db.WithContext(ctx)

	found, err := part.FindByNumber(db, partNumber)
	if err != nil {
		return nil, err
	}
	unlockPart := t.locks.Lock("part:" + found.ID)
	defer unlockPart()

	var rackIDs []uint
	if err := db.Model(&models.StorageRack{}).Where("active = ?", true).Order("id ASC").Pluck("id", &rackIDs).Error; err != nil {
		return nil, fmt.Errorf("tracker: active racks: %w", err)
	}
	lockStart := time.Now()
	unlockRacks := t.racks.Lock(rackIDs...)
	defer unlockRacks()
	lockWait := time.Since(lockStart)

	var (
		ev      part.Event
		started bool
	)
	res = &SortResult{}
	err = db.Transaction(func(tx *gorm.DB) error {
		p, err := part.GetForUpdate(tx, found.ID)
		if err != nil {
			return err
		}
		if err := part.CheckStatus(p, models.PartSorted, false); err != nil {
			return err
		}

		occ, err := rack.LockOccupancy(tx)
		if err != nil {
			return err
		}
		occ.Racks = lockedOnly(occ.Racks, rackIDs)
		slot, err := rack.FindSlot(occ, p.ProductID)
		if err != nil {
			return fmt.Errorf("tracker: sort %s: %w", p.PartNumber, err)
		}

		ev, err = part.Transition(tx, p, models.PartSorted, part.TransitionOpts{
			Station:  opts.Station,
			Operator: opts.Operator,
			Activity: "Part sorted",
			Location: slot,
		})
		if err != nil {
			return err
		}
		started, err = cascade(tx, p.ProductID)
		if err != nil {
			return err
		}

		var product models.Product
		if err := tx.Select("id", "product_number").Where("id = ?", p.ProductID).First(&product).Error; err != nil {
			return fmt.Errorf("tracker: product of %s: %w", p.PartNumber, err)
		}
		res.PartID = p.ID
		res.PartNumber = p.PartNumber
		res.ProductNumber = product.ProductNumber
		res.RackID, res.Row, res.Column = slot.RackID, slot.Row, slot.Column
		for _, r := range occ.Racks {
			if r.ID == slot.RackID {
				res.RackName = r.Name
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordSlot(res.RackName, lockWait)
	t.emitPart(ctx, ev, res.RackName)
	if started {
		t.emitProduct(ctx, ev.ProductID, res.ProductNumber, models.ProductInProgress, 0, opts.Station)
	}
	return res, nil
}

// ScanSheetCut marks every part nested on the scanned sheet as Cut.
func (t *Tracker) ScanSheetCut(ctx context.Context, barcode string, opts ScanOpts) (res *CutResult, err error) {
	start := time.Now()
	defer func() { t.finish(OpCut, barcode, start, err) }()
	db := t.db.WithContext(ctx)

	s, err := sheet.FindByBarcode(db, barcode)
	if err != nil {
		return nil, err
	}
	onSheet, err := sheet.PartsOn(db, s.ID)
	if err != nil {
		return nil, err
	}
	keys := []string{"sheet:" + s.ID}
	for _, p := range onSheet {
		keys = append(keys, "part:"+p.ID)
	}
	unlock := t.locks.Lock(keys...)
	defer unlock()

	var (
		cut     *sheet.CutResult
		started []string
	)
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		cut, err = sheet.ProcessScan(tx, barcode, opts.transition(""))
		if err != nil {
			return err
		}
		seen := make(map[string]bool)
		for _, ev := range cut.Events {
			if seen[ev.ProductID] {
				continue
			}
			seen[ev.ProductID] = true
			ok, err := cascade(tx, ev.ProductID)
			if err != nil {
				return err
			}
			if ok {
				started = append(started, ev.ProductID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range cut.Events {
		t.emitPart(ctx, ev, "")
	}
	t.sink.Notify(ctx, notify.Event{
		Kind:      notify.KindSheetCut,
		SheetName: cut.SheetName,
		Count:     cut.PartsProcessed,
		Station:   opts.Station,
		At:        time.Now(),
	})
	for _, id := range started {
		t.emitProduct(ctx, id, "", models.ProductInProgress, 0, opts.Station)
	}
	if len(cut.Skipped) > 0 {
		t.logger.Info("sheet parts already past cut", zap.String("sheet", cut.SheetName), zap.Strings("parts", cut.Skipped))
	}
	return &CutResult{SheetName: cut.SheetName, PartsProcessed: cut.PartsProcessed, Skipped: cut.Skipped}, nil
}

// CompleteProductAssembly moves every part of the product to Assembled and
// completes the product, or changes nothing.
func (t *Tracker) CompleteProductAssembly(ctx context.Context, productNumber string, opts ScanOpts) (res *AssembleResult, err error) {
	start := time.Now()
	defer func() { t.finish(OpAssemble, productNumber, start, err) }()

	batch, err := t.productBatch(ctx, productNumber, func(tx *gorm.DB) (*assembly.Result, error) {
		return assembly.CompleteAssembly(tx, productNumber, opts.transition(""))
	}, models.ProductPending, models.ProductInProgress)
	if err != nil {
		return nil, err
	}
	for _, ev := range batch.Events {
		t.emitPart(ctx, ev, "")
	}
	t.emitProduct(ctx, batch.ProductID, batch.ProductNumber, models.ProductComplete, batch.PartsChanged, opts.Station)
	return &AssembleResult{ProductNumber: batch.ProductNumber, PartsAssembled: batch.PartsChanged}, nil
}

// ShipProduct moves every part of a completed product to Shipped.
func (t *Tracker) ShipProduct(ctx context.Context, productNumber string, opts ScanOpts) (res *ShipResult, err error) {
	start := time.Now()
	defer func() { t.finish(OpShip, productNumber, start, err) }()

	batch, err := t.productBatch(ctx, productNumber, func(tx *gorm.DB) (*assembly.Result, error) {
		return assembly.Ship(tx, productNumber, opts.transition(""))
	}, models.ProductComplete)
	if err != nil {
		return nil, err
	}
	for _, ev := range batch.Events {
		t.emitPart(ctx, ev, "")
	}
	t.emitProduct(ctx, batch.ProductID, batch.ProductNumber, models.ProductShipped, batch.PartsChanged, opts.Station)
	return &ShipResult{ProductNumber: batch.ProductNumber, PartsShipped: batch.PartsChanged}, nil
}

// productBatch locks a product and its parts and runs fn in a transaction.
func (t *Tracker) productBatch(ctx context.Context, productNumber string, fn func(tx *gorm.DB) (*assembly.Result, error), prefer ...string) (*assembly.Result, error) {
	db := t.db.WithContext(ctx)
	product, err := assembly.FindProduct(db, productNumber, prefer...)
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := db.Model(&models.Part{}).Where("product_id = ?", product.ID).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("tracker: parts of %s: %w", product.ProductNumber, err)
	}
	keys := []string{"product:" + product.ID}
	for _, id := range ids {
		keys = append(keys, "part:"+id)
	}
	unlock := t.locks.Lock(keys...)
	defer unlock()

	var res *assembly.Result
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = fn(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// cascade runs the rollup cascade for a product and reports whether the
// product moved from Pending to InProgress.
func cascade(tx *gorm.DB, productID string) (bool, error) {
	var before models.Product
	if err := tx.Select("id", "status").Where("id = ?", productID).First(&before).Error; err != nil {
		return false, fmt.Errorf("tracker: product %s: %w", productID, err)
	}
	if err := rollup.Cascade(tx, productID); err != nil {
		return false, err
	}
	if before.Status != models.ProductPending {
		return false, nil
	}
	var after models.Product
	if err := tx.Select("id", "status").Where("id = ?", productID).First(&after).Error; err != nil {
		return false, fmt.Errorf("tracker: product %s: %w", productID, err)
	}
	return after.Status == models.ProductInProgress, nil
}

func lockedOnly(racks []models.StorageRack, ids []uint) []models.StorageRack {
	locked := make(map[uint]bool, len(ids))
	for _, id := range ids {
		locked[id] = true
	}
	out := racks[:0]
	for _, r := range racks {
		if locked[r.ID] {
			out = append(out, r)
		}
	}
	return out
}

func (t *Tracker) emitPart(ctx context.Context, ev part.Event, rackName string) {
	metrics.RecordTransition(ev.OldStatus, ev.NewStatus)
	location := ev.Location.String()
	if rackName != "" && !ev.Location.IsZero() {
		location = fmt.Sprintf("%s R%dC%d", rackName, ev.Location.Row, ev.Location.Column)
	}
	t.sink.Notify(ctx, notify.Event{
		Kind:       notify.KindPartStatus,
		PartID:     ev.PartID,
		PartNumber: ev.PartNumber,
		ProductID:  ev.ProductID,
		OldStatus:  ev.OldStatus,
		Status:     ev.NewStatus,
		Location:   location,
		Station:    ev.Station,
		At:         ev.At,
	})
}

func (t *Tracker) emitProduct(ctx context.Context, productID, productNumber, status string, parts int, station string) {
	if productNumber == "" {
		var p models.Product
		if err := t.db.WithContext(ctx).Select("id", "product_number").Where("id = ?", productID).First(&p).Error; err != nil {
			t.logger.Warn("tracker: product for notification", zap.String("product", productID), zap.Error(err))
		}
		productNumber = p.ProductNumber
	}
	t.sink.Notify(ctx, notify.Event{
		Kind:          notify.KindProductStatus,
		ProductID:     productID,
		ProductNumber: productNumber,
		Status:        status,
		Count:         parts,
		Station:       station,
		At:            time.Now(),
	})
}
