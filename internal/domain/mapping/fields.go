package mapping

// FieldType is the canonical value type of a system field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeInteger FieldType = "integer"
	TypeDate    FieldType = "date"
	TypeBoolean FieldType = "boolean"
)

// Scope tells whether a field belongs to the order or to one of its items.
type Scope string

const (
	ScopeOrder Scope = "order"
	ScopeItem  Scope = "item"
)

// FieldDefinition describes one canonical target field.
type FieldDefinition struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"`
	Scope    Scope     `json:"scope"`
}

// Canonical field names.
const (
	FieldOrderNumber     = "order_number"
	FieldCustomerID      = "customer_id"
	FieldCustomerName    = "customer_name"
	FieldCustomerEmail   = "customer_email"
	FieldCustomerPhone   = "customer_phone"
	FieldCustomerAddress = "customer_address"
	FieldOrderDate       = "order_date"
	FieldStatus          = "status"
	FieldTotalAmount     = "total_amount"
	FieldCurrency        = "currency"
	FieldNotes           = "notes"
	FieldSource          = "source"
	FieldImportBatchID   = "import_batch_id"

	FieldProductName = "product_name"
	FieldProductSKU  = "product_sku"
	FieldQuantity    = "quantity"
	FieldUnitPrice   = "unit_price"
	FieldSubtotal    = "subtotal"
)

// Declaration order matters: suggestion walks order fields first, then item
// fields, each in this order.
var (
	orderFieldDefs = []FieldDefinition{
		{Name: FieldOrderNumber, Label: "訂單號碼", Type: TypeString},
		{Name: FieldCustomerName, Label: "客戶名稱", Type: TypeString, Required: true},
		{Name: FieldCustomerEmail, Label: "客戶信箱", Type: TypeString},
		{Name: FieldCustomerPhone, Label: "客戶電話", Type: TypeString},
		{Name: FieldCustomerAddress, Label: "客戶地址", Type: TypeString},
		{Name: FieldOrderDate, Label: "訂單日期", Type: TypeDate},
		{Name: FieldStatus, Label: "訂單狀態", Type: TypeString, Options: []string{"pending", "processing", "completed", "cancelled"}},
		{Name: FieldTotalAmount, Label: "總金額", Type: TypeNumber},
		{Name: FieldCurrency, Label: "幣別", Type: TypeString},
		{Name: FieldNotes, Label: "備註", Type: TypeString},
	}
	itemFieldDefs = []FieldDefinition{
		{Name: FieldProductName, Label: "商品名稱", Type: TypeString, Required: true},
		{Name: FieldProductSKU, Label: "商品編號", Type: TypeString},
		{Name: FieldQuantity, Label: "數量", Type: TypeInteger, Required: true},
		{Name: FieldUnitPrice, Label: "單價", Type: TypeNumber, Required: true},
		{Name: FieldSubtotal, Label: "小計", Type: TypeNumber},
	}

	// orderAttributeNames is wider than the visible definitions: provenance
	// fields may be mapped but are not offered in the catalogue.
	orderAttributeNames = map[string]struct{}{
		FieldOrderNumber: {}, FieldCustomerID: {}, FieldCustomerName: {}, FieldCustomerEmail: {},
		FieldCustomerPhone: {}, FieldCustomerAddress: {}, FieldOrderDate: {}, FieldStatus: {},
		FieldTotalAmount: {}, FieldCurrency: {}, FieldNotes: {}, FieldSource: {}, FieldImportBatchID: {},
	}
	itemAttributeNames = map[string]struct{}{
		FieldProductName: {}, FieldProductSKU: {}, FieldQuantity: {}, FieldUnitPrice: {}, FieldSubtotal: {},
	}

	definitionsByName = func() map[string]FieldDefinition {
		m := make(map[string]FieldDefinition, len(orderFieldDefs)+len(itemFieldDefs))
		for _, d := range orderFieldDefs {
			d.Scope = ScopeOrder
			m[d.Name] = d
		}
		for _, d := range itemFieldDefs {
			d.Scope = ScopeItem
			m[d.Name] = d
		}
		return m
	}()
)

// OrderFields returns the order-level field catalogue in declaration order.
func OrderFields() []FieldDefinition {
	return cloneDefs(orderFieldDefs, ScopeOrder)
}

// ItemFields returns the item-level field catalogue in declaration order.
func ItemFields() []FieldDefinition {
	return cloneDefs(itemFieldDefs, ScopeItem)
}

// LookupField returns the definition of a catalogued field.
func LookupField(name string) (FieldDefinition, bool) {
	d, ok := definitionsByName[name]
	return d, ok
}

// IsOrderAttribute reports whether name belongs to the closed order-level set.
func IsOrderAttribute(name string) bool {
	_, ok := orderAttributeNames[name]
	return ok
}

// IsItemAttribute reports whether name belongs to the closed item-level set.
func IsItemAttribute(name string) bool {
	_, ok := itemAttributeNames[name]
	return ok
}

// TypeOf returns the declared type of a field. Uncatalogued order attributes
// are strings.
func TypeOf(name string) FieldType {
	if d, ok := definitionsByName[name]; ok {
		return d.Type
	}
	return TypeString
}

func cloneDefs(defs []FieldDefinition, scope Scope) []FieldDefinition {
	out := make([]FieldDefinition, len(defs))
	for i, d := range defs {
		d.Scope = scope
		if d.Options != nil {
			d.Options = append([]string(nil), d.Options...)
		}
		out[i] = d
	}
	return out
}
