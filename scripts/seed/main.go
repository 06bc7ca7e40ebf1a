package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizledger/bizledger/internal/app"
	"github.com/bizledger/bizledger/internal/ar/invoices"
	"github.com/bizledger/bizledger/internal/ar/payments"
	"github.com/bizledger/bizledger/internal/finance"
	"github.com/bizledger/bizledger/internal/inventory"
	"github.com/bizledger/bizledger/internal/ledger"
	"github.com/bizledger/bizledger/internal/ledger/pgstore"
	"github.com/bizledger/bizledger/internal/masterdata/suppliers"
	"github.com/bizledger/bizledger/internal/platform/db"
	"github.com/bizledger/bizledger/internal/sales/activities"
	"github.com/bizledger/bizledger/internal/sales/customers"
	"github.com/bizledger/bizledger/internal/sales/quotations"
)

type services struct {
	suppliers  *suppliers.Service
	inventory  *inventory.Service
	customers  *customers.Service
	activities *activities.Service
	quotations *quotations.Service
	invoices   *invoices.Service
	payments   *payments.Service
	finance    *finance.Service
}

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx := context.Background()
	if err := db.Migrate(cfg.PGDSN); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: 2})
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	store := pgstore.New(pool)
	financeSvc := finance.NewService(store, finance.ServiceConfig{})
	svc := services{
		suppliers:  suppliers.NewService(store, nil, nil),
		inventory:  inventory.NewService(store, inventory.ServiceConfig{}),
		customers:  customers.NewService(store, nil),
		activities: activities.NewService(store, activities.ServiceConfig{}),
		quotations: quotations.NewService(store, quotations.ServiceConfig{DefaultDueDays: cfg.InvoiceDueDays}),
		invoices:   invoices.NewService(store, invoices.ServiceConfig{DefaultDueDays: cfg.InvoiceDueDays}),
		payments:   payments.NewService(store, payments.ServiceConfig{}),
		finance:    financeSvc,
	}

	existing, err := svc.inventory.ListItems(ctx)
	if err != nil {
		log.Fatalf("list items: %v", err)
	}
	if len(existing) > 0 {
		fmt.Println("✓ Database already holds inventory, skipping seed")
		return
	}

	fmt.Println("→ Seeding inventory...")
	items, err := seedInventory(ctx, svc)
	if err != nil {
		log.Fatalf("seed inventory: %v", err)
	}
	fmt.Println("→ Seeding customers...")
	custs, err := seedCustomers(ctx, svc)
	if err != nil {
		log.Fatalf("seed customers: %v", err)
	}
	fmt.Println("→ Seeding sales documents...")
	if err := seedSales(ctx, svc, custs, items); err != nil {
		log.Fatalf("seed sales: %v", err)
	}
	fmt.Println("→ Seeding expenses...")
	if err := seedExpenses(ctx, svc); err != nil {
		log.Fatalf("seed expenses: %v", err)
	}

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

func seedInventory(ctx context.Context, svc services) ([]ledger.InventoryItem, error) {
	helios, err := svc.suppliers.Create(ctx, suppliers.SupplierInput{Name: "Helios Distribution", ContactPerson: "Kadri Lepp", PaymentTerms: "30 days"})
	if err != nil {
		return nil, fmt.Errorf("supplier: %w", err)
	}
	inputs := []inventory.CreateItemInput{
		{Name: "Solar Panel 400W", Brand: "Helios", Category: "Panels", Specifications: "SP-400", Quantity: 40, UnitPrice: decimal.RequireFromString("210.00"), CostPrice: decimal.RequireFromString("150.00"), MinimumStockLevel: 10, SupplierID: &helios.ID},
		{Name: "Hybrid Inverter 5kW", Brand: "Voltra", Category: "Inverters", Specifications: "INV-5K", Quantity: 8, UnitPrice: decimal.RequireFromString("1150.00"), CostPrice: decimal.RequireFromString("860.00"), MinimumStockLevel: 3},
		{Name: "Mounting Rail 2m", Category: "Mounting", Quantity: 120, UnitPrice: decimal.RequireFromString("18.50"), CostPrice: decimal.RequireFromString("9.75"), MinimumStockLevel: 30},
		{Name: "PV Cable 6mm (m)", Category: "Cabling", Quantity: 500, UnitPrice: decimal.RequireFromString("1.90"), CostPrice: decimal.RequireFromString("0.85"), MinimumStockLevel: 100},
	}
	out := make([]ledger.InventoryItem, 0, len(inputs))
	for _, in := range inputs {
		item, err := svc.inventory.CreateItem(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in.Name, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func seedCustomers(ctx context.Context, svc services) ([]ledger.Customer, error) {
	reqs := []customers.CreateCustomerRequest{
		{ID: "AB12345", Name: "Alice", Surname: "Baker", Citizenship: "Estonia", Address: "Pikk 12, Tallinn", Email: "alice@example.com"},
		{Name: "Marek", Surname: "Tamm", Citizenship: "Estonia", Phone: "+372 5555 0101"},
		{Name: "Northwind Energy", Address: "Harbour Road 4, Tartu", Email: "billing@northwind.example"},
	}
	out := make([]ledger.Customer, 0, len(reqs))
	for _, req := range reqs {
		c, err := svc.customers.Create(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", req.Name, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func seedSales(ctx context.Context, svc services, custs []ledger.Customer, items []ledger.InventoryItem) error {
	install, err := svc.invoices.CreateActivityType(ctx, invoices.CreateActivityTypeRequest{Name: "Installation"})
	if err != nil {
		return fmt.Errorf("activity type: %w", err)
	}

	q, err := svc.quotations.Create(ctx, quotations.CreateQuotationRequest{
		CustomerID: custs[0].ID,
		Lines: []ledger.LineInput{
			{InventoryID: ledger.Int64Ptr(items[0].ID), Quantity: 10},
			{InventoryID: ledger.Int64Ptr(items[1].ID), Quantity: 1},
			{Description: "Site survey", Quantity: 1, UnitPrice: decPtr("150.00")},
		},
		Notes: "Rooftop array, 4kW",
	})
	if err != nil {
		return fmt.Errorf("quotation: %w", err)
	}
	quotedInv, err := svc.quotations.Convert(ctx, q.ID)
	if err != nil {
		return fmt.Errorf("convert quotation: %w", err)
	}

	inv, err := svc.invoices.Create(ctx, invoices.CreateInvoiceRequest{
		CustomerID:     custs[2].ID,
		ActivityTypeID: ledger.Int64Ptr(install.ID),
		Lines: []ledger.LineInput{
			{InventoryID: ledger.Int64Ptr(items[2].ID), Quantity: 12},
			{InventoryID: ledger.Int64Ptr(items[3].ID), Quantity: 60},
			{Description: "Installation labour", Quantity: 6, UnitPrice: decPtr("45.00")},
		},
	})
	if err != nil {
		return fmt.Errorf("invoice: %w", err)
	}
	if _, err := svc.invoices.Send(ctx, inv.ID); err != nil {
		return fmt.Errorf("send invoice: %w", err)
	}
	if _, err := svc.activities.Create(ctx, activities.CreateActivityRequest{
		CustomerID:     ledger.StringPtr(custs[2].ID),
		ActivityTypeID: ledger.Int64Ptr(install.ID),
		Description:    "Rooftop installation",
		Status:         string(ledger.ActivityCompleted),
		Technician:     "Rein",
		TotalCost:      decimal.RequireFromString("270.00"),
	}); err != nil {
		return fmt.Errorf("activity: %w", err)
	}

	half := quotedInv.TotalAmount.Div(decimal.NewFromInt(2)).Round(2)
	if _, err := svc.payments.Record(ctx, payments.RecordPaymentRequest{
		InvoiceID: quotedInv.ID,
		Amount:    half,
		Method:    string(ledger.MethodTransfer),
		PayerName: custs[0].Name + " " + custs[0].Surname,
		Reference: "DEPOSIT",
	}); err != nil {
		return fmt.Errorf("record payment: %w", err)
	}
	return nil
}

func seedExpenses(ctx context.Context, svc services) error {
	entries := []finance.RecordEntryRequest{
		{Type: string(ledger.Expense), Category: "Rent", Description: "Warehouse rent", Amount: decimal.RequireFromString("900.00")},
		{Type: string(ledger.Expense), Category: "Fuel", Description: "Van fuel", Amount: decimal.RequireFromString("120.40")},
	}
	for _, e := range entries {
		if _, err := svc.finance.Record(ctx, e); err != nil {
			return fmt.Errorf("%s: %w", e.Description, err)
		}
	}
	return nil
}

func decPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}
