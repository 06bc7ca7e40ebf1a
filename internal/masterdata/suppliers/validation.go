package suppliers

import (
	"fmt"
	"strings"

	"github.com/bizledger/bizledger/internal/ledger"
)

func (s *Service) validate(in *SupplierInput) (ledger.Currency, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := ledger.Validate(*in); err != nil {
		return "", err
	}
	currency, err := ledger.ParseCurrency(in.Currency)
	if err != nil {
		return "", fmt.Errorf("supplier currency: %w", err)
	}
	return currency, nil
}
