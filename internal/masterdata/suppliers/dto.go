package suppliers

// SupplierInput creates or replaces a supplier.
type SupplierInput struct {
	Name          string `json:"name" validate:"required,max=200"`
	ContactPerson string `json:"contact_person" validate:"max=200"`
	Phone         string `json:"phone" validate:"max=50"`
	Email         string `json:"email" validate:"omitempty,email"`
	Address       string `json:"address" validate:"max=500"`
	PaymentTerms  string `json:"payment_terms" validate:"max=200"`
	Currency      string `json:"currency"`
	Notes         string `json:"notes" validate:"max=1000"`
}
