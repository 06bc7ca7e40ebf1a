package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// LineInput is a requested document line. A line references an inventory
// item or carries a free-text description, never neither.
type LineInput struct {
	InventoryID *int64           `json:"inventory_id,omitempty" validate:"required_without=Description"`
	Description string           `json:"description,omitempty" validate:"required_without=InventoryID,max=255"`
	ItemCode    string           `json:"item_code,omitempty" validate:"max=64"`
	Quantity    int              `json:"quantity" validate:"gt=0"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
}

// ValidateLines checks the shape of every line before any store access.
func ValidateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: at least one line is required", ErrInvalidItem)
	}
	for i, line := range lines {
		if err := validate.Struct(line); err != nil {
			return fmt.Errorf("%w: line %d: %s", ErrInvalidItem, i+1, describeValidation(err))
		}
		if line.InventoryID == nil && line.UnitPrice == nil {
			return fmt.Errorf("%w: line %d: unit price required for custom lines", ErrInvalidItem, i+1)
		}
		if line.UnitPrice != nil && line.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: line %d: unit price must not be negative", ErrInvalidItem, i+1)
		}
	}
	return nil
}

// Validate runs struct tag validation and maps failures to ErrInvalidValue.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidValue, describeValidation(err))
	}
	return nil
}

func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}

// LineAmount is quantity times unit price rounded to cents.
func LineAmount(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// Demand sums requested quantities per inventory item.
type Demand map[int64]int

// Add records quantity against itemID.
func (d Demand) Add(itemID int64, quantity int) {
	d[itemID] += quantity
}

// DemandOf aggregates inventory-backed lines.
func DemandOf(lines []LineInput) Demand {
	d := Demand{}
	for _, line := range lines {
		if line.InventoryID != nil {
			d.Add(*line.InventoryID, line.Quantity)
		}
	}
	return d
}
