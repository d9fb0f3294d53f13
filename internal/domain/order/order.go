package order

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the order lifecycle status.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// AllStatuses lists every status in display order.
var AllStatuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusCancelled}

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Source records how an order entered the system.
type Source string

const (
	SourceManual Source = "manual"
	SourceImport Source = "import"
)

const (
	DefaultCurrency = "TWD"

	maxCustomerNameLength = 255
	maxPhoneLength        = 50
)

// Item is one order line.
type Item struct {
	shared.BaseEntity
	OrderID     uuid.UUID
	ProductName string
	ProductSKU  string
	Quantity    int64
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// Order is the order aggregate root.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber     string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerAddress string
	OrderDate       time.Time
	Status          Status
	TotalAmount     decimal.Decimal
	Currency        string
	Notes           string
	Source          Source
	ImportBatchID   string
	Items           []Item
}

// ItemDraft is the unvalidated input for one item. A nil Subtotal is
// computed as quantity times unit price.
type ItemDraft struct {
	ProductName string
	ProductSKU  string
	Quantity    int64
	UnitPrice   decimal.Decimal
	Subtotal    *decimal.Decimal
}

// Draft is the unvalidated input for New. Zero values take defaults: a
// generated order number, the current time, pending status, TWD currency and
// manual source. A nil TotalAmount is the sum of item subtotals; a supplied
// zero is kept.
type Draft struct {
	OrderNumber     string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerAddress string
	OrderDate       *time.Time
	Status          string
	TotalAmount     *decimal.Decimal
	Currency        string
	Notes           string
	Source          Source
	ImportBatchID   string
	Items           []ItemDraft
}

// New validates a draft and builds the order with its items.
func New(d Draft) (*Order, error) {
	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       strings.TrimSpace(d.OrderNumber),
		CustomerName:      strings.TrimSpace(d.CustomerName),
		CustomerEmail:     strings.TrimSpace(d.CustomerEmail),
		CustomerPhone:     strings.TrimSpace(d.CustomerPhone),
		CustomerAddress:   strings.TrimSpace(d.CustomerAddress),
		Status:            Status(strings.ToLower(strings.TrimSpace(d.Status))),
		Currency:          strings.ToUpper(strings.TrimSpace(d.Currency)),
		Notes:             d.Notes,
		Source:            d.Source,
		ImportBatchID:     d.ImportBatchID,
	}
	if o.OrderNumber == "" {
		o.OrderNumber = NewOrderNumber()
	}
	if d.OrderDate != nil && !d.OrderDate.IsZero() {
		o.OrderDate = d.OrderDate.UTC()
	} else {
		o.OrderDate = o.CreatedAt.UTC()
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	if o.Currency == "" {
		o.Currency = DefaultCurrency
	}
	if o.Source == "" {
		o.Source = SourceManual
	}

	var problems []string
	problems = append(problems, o.validateCustomer()...)
	if !o.Status.IsValid() {
		problems = append(problems, fmt.Sprintf("invalid status %q", o.Status))
	}
	if len(d.Items) == 0 {
		problems = append(problems, "at least one item is required")
	}

	total := decimal.Zero
	for i, id := range d.Items {
		item, itemProblems := newItem(o.ID, i+1, id)
		problems = append(problems, itemProblems...)
		o.Items = append(o.Items, item)
		total = total.Add(item.Subtotal)
	}

	if d.TotalAmount != nil {
		o.TotalAmount = *d.TotalAmount
	} else {
		o.TotalAmount = total
	}
	if o.TotalAmount.IsNegative() {
		problems = append(problems, "total_amount must not be negative")
	}

	if len(problems) > 0 {
		return nil, shared.NewValidationError(strings.Join(problems, "; "))
	}
	if o.Source == SourceImport {
		o.AddDomainEvent(NewOrderImportedEvent(o))
	}
	return o, nil
}

func newItem(orderID uuid.UUID, position int, d ItemDraft) (Item, []string) {
	item := Item{
		BaseEntity:  shared.NewBaseEntity(),
		OrderID:     orderID,
		ProductName: strings.TrimSpace(d.ProductName),
		ProductSKU:  strings.TrimSpace(d.ProductSKU),
		Quantity:    d.Quantity,
		UnitPrice:   d.UnitPrice,
	}
	if d.Subtotal != nil {
		item.Subtotal = *d.Subtotal
	} else {
		item.Subtotal = d.UnitPrice.Mul(decimal.NewFromInt(d.Quantity))
	}

	var problems []string
	if item.ProductName == "" {
		problems = append(problems, fmt.Sprintf("item %d: product_name is required", position))
	}
	if item.Quantity <= 0 {
		problems = append(problems, fmt.Sprintf("item %d: quantity must be greater than 0", position))
	}
	if item.UnitPrice.IsNegative() {
		problems = append(problems, fmt.Sprintf("item %d: unit_price must not be negative", position))
	}
	return item, problems
}

func (o *Order) validateCustomer() []string {
	var problems []string
	switch n := len([]rune(o.CustomerName)); {
	case n == 0:
		problems = append(problems, "customer_name is required")
	case n > maxCustomerNameLength:
		problems = append(problems, fmt.Sprintf("customer_name must be at most %d characters", maxCustomerNameLength))
	}
	if o.CustomerEmail != "" && !isValidEmail(o.CustomerEmail) {
		problems = append(problems, "customer_email must be a valid email address")
	}
	if len([]rune(o.CustomerPhone)) > maxPhoneLength {
		problems = append(problems, fmt.Sprintf("customer_phone must be at most %d characters", maxPhoneLength))
	}
	return problems
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func isValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Patch carries a partial update; nil fields are left unchanged.
type Patch struct {
	CustomerName    *string
	CustomerEmail   *string
	CustomerPhone   *string
	CustomerAddress *string
	Status          *string
	Notes           *string
}

// Update applies p and revalidates the customer fields.
func (o *Order) Update(p Patch) error {
	next := *o
	if p.CustomerName != nil {
		next.CustomerName = strings.TrimSpace(*p.CustomerName)
	}
	if p.CustomerEmail != nil {
		next.CustomerEmail = strings.TrimSpace(*p.CustomerEmail)
	}
	if p.CustomerPhone != nil {
		next.CustomerPhone = strings.TrimSpace(*p.CustomerPhone)
	}
	if p.CustomerAddress != nil {
		next.CustomerAddress = strings.TrimSpace(*p.CustomerAddress)
	}
	if p.Notes != nil {
		next.Notes = *p.Notes
	}
	if p.Status != nil {
		next.Status = Status(strings.ToLower(strings.TrimSpace(*p.Status)))
	}

	problems := next.validateCustomer()
	if !next.Status.IsValid() {
		problems = append(problems, fmt.Sprintf("invalid status %q", next.Status))
	}
	if len(problems) > 0 {
		return shared.NewValidationError(strings.Join(problems, "; "))
	}
	*o = next
	o.Touch()
	return nil
}

const orderNumberAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewOrderNumber returns "ORD-<unix millis>-<9 random base36 chars>".
func NewOrderNumber() string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = orderNumberAlphabet[rand.IntN(len(orderNumberAlphabet))]
	}
	return "ORD-" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + string(suffix)
}
