package pricing

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/macado/b2b-backend/pkg/errors"
)

// QuantityCheck pairs a requested quantity with the product's minimum order quantity.
type QuantityCheck struct {
	ProductID   uuid.UUID
	ProductName string
	MinQuantity int
	Quantity    int
}

// MinimumViolation is reported to callers for every line below its minimum.
type MinimumViolation struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	Required    int       `json:"required_quantity"`
	Requested   int       `json:"requested_quantity"`
}

// ValidateMinimumQuantity checks a single line. A minimum of zero or one is treated as one.
func ValidateMinimumQuantity(check QuantityCheck) error {
	return ValidateMinimumQuantities([]QuantityCheck{check})
}

// ValidateMinimumQuantities reports every line whose quantity is below its product minimum.
func ValidateMinimumQuantities(checks []QuantityCheck) error {
	var violations []MinimumViolation
	for _, check := range checks {
		required := check.MinQuantity
		if required < 1 {
			required = 1
		}
		if check.Quantity >= required {
			continue
		}
		violations = append(violations, MinimumViolation{
			ProductID:   check.ProductID,
			ProductName: check.ProductName,
			Required:    required,
			Requested:   check.Quantity,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("minimum order quantity not met for %d item(s)", len(violations))).
		WithDetails(map[string]any{"violations": violations})
}
