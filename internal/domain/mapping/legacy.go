package mapping

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Fixed spellings of the auto-normalize mode, in lookup priority order.
var (
	legacyOrderKeys = []struct {
		field string
		keys  []string
	}{
		{FieldOrderNumber, []string{"order_number", "orderNumber", "訂單號碼", "訂單編號"}},
		{FieldCustomerName, []string{"customer_name", "customerName", "客戶名稱", "客戶姓名"}},
		{FieldCustomerEmail, []string{"customer_email", "customerEmail", "客戶信箱", "電子郵件"}},
		{FieldCustomerPhone, []string{"customer_phone", "customerPhone", "客戶電話", "聯絡電話"}},
		{FieldCustomerAddress, []string{"customer_address", "customerAddress", "客戶地址", "地址"}},
		{FieldOrderDate, []string{"order_date", "orderDate", "訂單日期"}},
		{FieldStatus, []string{"status", "狀態"}},
		{FieldTotalAmount, []string{"total_amount", "totalAmount", "總金額", "金額"}},
		{FieldCurrency, []string{"currency", "幣別"}},
		{FieldNotes, []string{"notes", "備註"}},
	}

	legacyItemsKeys = []string{"items", "商品"}

	legacyRowItemKeys = map[string][]string{
		FieldProductName: {"product_name", "productName", "商品名稱", "產品名稱"},
		FieldProductSKU:  {"product_sku", "productSku", "商品編號", "SKU"},
		FieldQuantity:    {"quantity", "數量"},
		FieldUnitPrice:   {"unit_price", "unitPrice", "單價"},
		FieldSubtotal:    {"subtotal", "小計"},
	}

	legacyNestedItemKeys = map[string][]string{
		FieldProductName: {"product_name", "productName", "商品名稱"},
		FieldProductSKU:  {"product_sku", "productSku", "商品編號"},
		FieldQuantity:    {"quantity", "數量"},
		FieldUnitPrice:   {"unit_price", "unitPrice", "單價"},
		FieldSubtotal:    {"subtotal", "小計"},
	}
)

// Defaults applied by the auto-normalize mode.
const (
	DefaultStatus   = "pending"
	DefaultCurrency = "TWD"
	SourceImport    = "import"
)

// AutoNormalizeStrategy reads well-known header spellings straight off the
// record. It ignores any mapping and is not configurable.
type AutoNormalizeStrategy struct {
	newOrderNumber func() string
}

// NewAutoNormalizeStrategy returns the strategy. newOrderNumber supplies an
// order number when the record has none.
func NewAutoNormalizeStrategy(newOrderNumber func() string) *AutoNormalizeStrategy {
	return &AutoNormalizeStrategy{newOrderNumber: newOrderNumber}
}

// Name implements RecordTransform.
func (s *AutoNormalizeStrategy) Name() string { return "auto-normalize" }

// Transform implements RecordTransform.
func (s *AutoNormalizeStrategy) Transform(raw *RawRecord) (CanonicalRecord, error) {
	order := make(Attributes, len(legacyOrderKeys)+1)
	for _, spec := range legacyOrderKeys {
		if v, ok := firstTruthy(raw.Get, spec.keys); ok {
			if c := Coerce(v, TypeOf(spec.field)); c != nil {
				order[spec.field] = c
			}
		}
	}
	if !order.Has(FieldOrderNumber) && s.newOrderNumber != nil {
		order[FieldOrderNumber] = s.newOrderNumber()
	}
	if !order.Has(FieldCustomerName) {
		order[FieldCustomerName] = ""
	}
	if !order.Has(FieldStatus) {
		order[FieldStatus] = DefaultStatus
	}
	if !order.Has(FieldCurrency) {
		order[FieldCurrency] = DefaultCurrency
	}
	order[FieldSource] = SourceImport

	return CanonicalRecord{Order: order, Items: legacyItems(raw)}, nil
}

func legacyItems(raw *RawRecord) []Attributes {
	if v, ok := firstTruthy(raw.Get, legacyItemsKeys); ok {
		return nestedItems(v)
	}
	if _, ok := firstTruthy(raw.Get, legacyRowItemKeys[FieldProductName]); !ok {
		return nil
	}
	return []Attributes{buildItem(raw.Get, legacyRowItemKeys)}
}

// nestedItems reads an items collection given as JSON text or a native slice.
// Anything that is not an array yields no items.
func nestedItems(v any) []Attributes {
	var doc string
	switch x := v.(type) {
	case string:
		doc = x
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return nil
		}
		doc = string(b)
	}
	if !gjson.Valid(doc) {
		return nil
	}
	parsed := gjson.Parse(doc)
	if !parsed.IsArray() {
		return nil
	}
	var items []Attributes
	parsed.ForEach(func(_, el gjson.Result) bool {
		get := func(key string) (any, bool) {
			r := el.Get(key)
			if !r.Exists() {
				return nil, false
			}
			return r.Value(), true
		}
		items = append(items, buildItem(get, legacyNestedItemKeys))
		return true
	})
	return items
}

// buildItem applies item defaults: quantity 1, unit price 0, and a subtotal
// of quantity times unit price when none is given.
func buildItem(get func(string) (any, bool), keys map[string][]string) Attributes {
	item := make(Attributes, 5)
	if v, ok := firstTruthy(get, keys[FieldProductName]); ok {
		item[FieldProductName] = Coerce(v, TypeString)
	} else {
		item[FieldProductName] = ""
	}
	if v, ok := firstTruthy(get, keys[FieldProductSKU]); ok {
		item[FieldProductSKU] = Coerce(v, TypeString)
	}

	var qty any = int64(1)
	if v, ok := firstTruthy(get, keys[FieldQuantity]); ok {
		qty = Coerce(v, TypeInteger)
	}
	if qty != nil {
		item[FieldQuantity] = qty
	}

	var price any = decimal.Zero
	if v, ok := firstTruthy(get, keys[FieldUnitPrice]); ok {
		price = Coerce(v, TypeNumber)
	}
	if price != nil {
		item[FieldUnitPrice] = price
	}

	if v, ok := firstTruthy(get, keys[FieldSubtotal]); ok {
		if sub := Coerce(v, TypeNumber); sub != nil {
			item[FieldSubtotal] = sub
		}
	}
	return item
}

// firstTruthy returns the first value under keys that is present and not
// empty, zero or false.
func firstTruthy(get func(string) (any, bool), keys []string) (any, bool) {
	for _, k := range keys {
		v, ok := get(k)
		if ok && truthy(v) {
			return v, true
		}
	}
	return nil, false
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case int64:
		return x != 0
	case int:
		return x != 0
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case decimal.Decimal:
		return !x.IsZero()
	case []any:
		return true
	case map[string]any:
		return true
	}
	return !strings.EqualFold(stringify(v), "")
}
