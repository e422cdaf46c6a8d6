package rack

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zulandar/shopfloor/internal/config"
	"github.com/zulandar/shopfloor/internal/models"
	"gorm.io/gorm"
)

// AddOpts holds the parameters for creating or updating a rack.
type AddOpts struct {
	Name    string
	Rows    int
	Columns int
	Active  bool
}

// Usage pairs a rack with its current occupancy.
type Usage struct {
	Rack     models.StorageRack
	Occupied int
}

// Add creates the named rack, or updates it if one with that name exists.
// Changing the dimensions of a rack that holds Sorted parts fails with
// ErrInUse.
func Add(db *gorm.DB, opts AddOpts) (*models.StorageRack, error) {
	opts.Name = strings.TrimSpace(opts.Name)
	if opts.Name == "" {
		return nil, fmt.Errorf("rack: name is required")
	}
	if opts.Rows <= 0 || opts.Columns <= 0 {
		return nil, fmt.Errorf("rack: %s: rows and columns must be positive (got %dx%d)", opts.Name, opts.Rows, opts.Columns)
	}

	var out models.StorageRack
	err := db.Transaction(func(tx *gorm.DB) error {
		var existing models.StorageRack
		err := tx.Where("name = ?", opts.Name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			out = models.StorageRack{
				Name:    opts.Name,
				Rows:    opts.Rows,
				Columns: opts.Columns,
				Active:  opts.Active,
			}
			if err := tx.Create(&out).Error; err != nil {
				return fmt.Errorf("rack: create %s: %w", opts.Name, err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("rack: get %s: %w", opts.Name, err)
		}

		if existing.Rows != opts.Rows || existing.Columns != opts.Columns {
			var held int64
			if err := tx.Model(&models.Part{}).
				Where("storage_rack_id = ? AND status = ?", existing.ID, models.PartSorted).
				Count(&held).Error; err != nil {
				return fmt.Errorf("rack: count parts in %s: %w", opts.Name, err)
			}
			if held > 0 {
				return fmt.Errorf("rack: %s: cannot resize from %dx%d to %dx%d while %d parts are sorted into it: %w",
					opts.Name, existing.Rows, existing.Columns, opts.Rows, opts.Columns, held, ErrInUse)
			}
		}

		if err := tx.Model(&models.StorageRack{}).Where("id = ?", existing.ID).Updates(map[string]interface{}{
			"rows":    opts.Rows,
			"columns": opts.Columns,
			"active":  opts.Active,
		}).Error; err != nil {
			return fmt.Errorf("rack: update %s: %w", opts.Name, err)
		}
		existing.Rows, existing.Columns, existing.Active = opts.Rows, opts.Columns, opts.Active
		out = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Provision applies the racks declared in the config file.
func Provision(db *gorm.DB, racks []config.RackConfig) ([]models.StorageRack, error) {
	out := make([]models.StorageRack, 0, len(racks))
	for _, rc := range racks {
		r, err := Add(db, AddOpts{
			Name:    rc.Name,
			Rows:    rc.Rows,
			Columns: rc.Columns,
			Active:  rc.IsActive(),
		})
		if err != nil {
			return out, err
		}
		out = append(out, *r)
	}
	return out, nil
}

// Get retrieves a rack by ID.
func Get(db *gorm.DB, id uint) (*models.StorageRack, error) {
	var r models.StorageRack
	if err := db.Where("id = ?", id).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("rack: %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("rack: get %d: %w", id, err)
	}
	return &r, nil
}

// Names returns rack names keyed by rack ID.
func Names(db *gorm.DB) (map[uint]string, error) {
	var racks []models.StorageRack
	if err := db.Select("id", "name").Find(&racks).Error; err != nil {
		return nil, fmt.Errorf("rack: names: %w", err)
	}
	names := make(map[uint]string, len(racks))
	for _, r := range racks {
		names[r.ID] = r.Name
	}
	return names, nil
}

// List returns every rack with its occupancy, ordered by id. Inactive racks
// are included when all is set.
func List(db *gorm.DB, all bool) ([]Usage, error) {
	q := db.Model(&models.StorageRack{})
	if !all {
		q = q.Where("active = ?", true)
	}
	var racks []models.StorageRack
	if err := q.Order("id ASC").Find(&racks).Error; err != nil {
		return nil, fmt.Errorf("rack: list: %w", err)
	}

	type row struct {
		StorageRackID uint
		Count         int
	}
	var counts []row
	if err := db.Model(&models.Part{}).
		Select("storage_rack_id, COUNT(*) as count").
		Where("status = ? AND storage_rack_id IS NOT NULL", models.PartSorted).
		Group("storage_rack_id").
		Find(&counts).Error; err != nil {
		return nil, fmt.Errorf("rack: occupancy: %w", err)
	}
	held := make(map[uint]int, len(counts))
	for _, c := range counts {
		held[c.StorageRackID] = c.Count
	}

	out := make([]Usage, 0, len(racks))
	for _, r := range racks {
		out = append(out, Usage{Rack: r, Occupied: held[r.ID]})
	}
	return out, nil
}
