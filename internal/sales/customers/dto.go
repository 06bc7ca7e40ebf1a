package customers

type CreateCustomerRequest struct {
	// ID is the business identification code. Blank assigns the next numeric id.
	ID          string `json:"id" validate:"omitempty,max=64"`
	Name        string `json:"name" validate:"required,max=200"`
	Surname     string `json:"surname" validate:"max=200"`
	Citizenship string `json:"citizenship" validate:"max=100"`
	Address     string `json:"address" validate:"max=500"`
	Phone       string `json:"phone" validate:"max=50"`
	Email       string `json:"email" validate:"omitempty,email"`
}

type UpdateCustomerRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Surname     *string `json:"surname,omitempty" validate:"omitempty,max=200"`
	Citizenship *string `json:"citizenship,omitempty" validate:"omitempty,max=100"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
}

type ListCustomersRequest struct {
	Search  string
	Page    int
	PerPage int `validate:"gte=0,lte=1000"`
}
