package mapping

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/width"
)

type synonymEntry struct {
	field    string
	patterns []string
}

// synonymTable lists accepted header spellings per canonical field, order
// fields first and item fields after, both in declaration order.
var synonymTable = []synonymEntry{
	{FieldOrderNumber, []string{"order_number", "ordernumber", "order_id", "orderid", "訂單號碼", "訂單編號", "order no", "order no."}},
	{FieldCustomerName, []string{"customer_name", "customername", "name", "client_name", "客戶名稱", "客戶姓名", "姓名"}},
	{FieldCustomerEmail, []string{"customer_email", "customeremail", "email", "e-mail", "客戶信箱", "電子郵件", "信箱"}},
	{FieldCustomerPhone, []string{"customer_phone", "customerphone", "phone", "tel", "telephone", "客戶電話", "聯絡電話", "電話"}},
	{FieldCustomerAddress, []string{"customer_address", "customeraddress", "address", "客戶地址", "地址", "收件地址"}},
	{FieldOrderDate, []string{"order_date", "orderdate", "date", "created_at", "訂單日期", "日期", "下單日期"}},
	{FieldStatus, []string{"status", "order_status", "orderstatus", "狀態", "訂單狀態"}},
	{FieldTotalAmount, []string{"total_amount", "totalamount", "total", "amount", "price", "總金額", "金額", "總價"}},
	{FieldCurrency, []string{"currency", "幣別", "貨幣"}},
	{FieldNotes, []string{"notes", "note", "remark", "remarks", "comment", "備註", "註記"}},

	{FieldProductName, []string{"product_name", "productname", "item_name", "itemname", "product", "商品名稱", "產品名稱", "品名"}},
	{FieldProductSKU, []string{"product_sku", "productsku", "sku", "item_code", "product_code", "商品編號", "SKU", "產品編號"}},
	{FieldQuantity, []string{"quantity", "qty", "amount", "count", "數量", "件數"}},
	{FieldUnitPrice, []string{"unit_price", "unitprice", "price", "item_price", "單價", "價格"}},
	{FieldSubtotal, []string{"subtotal", "sub_total", "item_total", "小計", "金額"}},
}

type normalizedEntry struct {
	field    string
	patterns []string
}

// normalizedSynonyms is synonymTable with every pattern pre-normalized.
var normalizedSynonyms = func() []normalizedEntry {
	out := make([]normalizedEntry, len(synonymTable))
	for i, e := range synonymTable {
		ps := make([]string, 0, len(e.patterns))
		for _, p := range e.patterns {
			ps = append(ps, NormalizeHeader(p))
		}
		out[i] = normalizedEntry{field: e.field, patterns: ps}
	}
	return out
}()

// NormalizeHeader folds full-width characters and case, then drops spaces,
// hyphens and underscores.
func NormalizeHeader(h string) string {
	h = width.Fold.String(strings.TrimSpace(h))
	h = cases.Lower(language.Und).String(h)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '-', '_':
			return -1
		}
		return r
	}, h)
}

// matchSynonym returns the first field whose pattern equals or is contained
// in the normalized header.
func matchSynonym(header string) (string, bool) {
	n := NormalizeHeader(header)
	if n == "" {
		return "", false
	}
	for _, e := range normalizedSynonyms {
		for _, p := range e.patterns {
			if n == p || strings.Contains(n, p) {
				return e.field, true
			}
		}
	}
	return "", false
}
