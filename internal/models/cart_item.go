package models

import "strings"

// RateType 租赁计价周期
type RateType string

const (
	RateDaily   RateType = "daily"
	RateWeekly  RateType = "weekly"
	RateMonthly RateType = "monthly"
)

// ParseRateType 解析计价周期，未知值返回 false
func ParseRateType(raw string) (RateType, bool) {
	switch RateType(strings.ToLower(strings.TrimSpace(raw))) {
	case RateDaily:
		return RateDaily, true
	case RateWeekly:
		return RateWeekly, true
	case RateMonthly:
		return RateMonthly, true
	}
	return "", false
}

// Label 展示名称
func (r RateType) Label() string {
	switch r {
	case RateDaily:
		return "Daily"
	case RateWeekly:
		return "Weekly"
	case RateMonthly:
		return "Monthly"
	}
	return ""
}

// CartItem 购物车项，(Name, Model, RateType) 相同视为同一项
type CartItem struct {
	Name      string   `json:"name"`
	Model     string   `json:"model"`
	RateType  RateType `json:"rateType"`
	UnitPrice Money    `json:"unitPrice"`
	Quantity  int      `json:"quantity"`
}

// SameAs 判断是否为同一商品条目
func (i CartItem) SameAs(other CartItem) bool {
	return i.Name == other.Name && i.Model == other.Model && i.RateType == other.RateType
}

// LineTotal 小计
func (i CartItem) LineTotal() Money {
	return i.UnitPrice.Mul(i.Quantity)
}

// Cart 有序购物车
type Cart []CartItem

// Count 商品总件数
func (c Cart) Count() int {
	count := 0
	for _, item := range c {
		count += item.Quantity
	}
	return count
}

// Total 总金额
func (c Cart) Total() Money {
	var total Money
	for _, item := range c {
		total = total.Add(item.LineTotal())
	}
	return total
}

// CheckoutSnapshot 与购物车同步保存的结算快照
type CheckoutSnapshot struct {
	Total Money `json:"total"`
	Count int   `json:"count"`
}
