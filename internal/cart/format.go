package cart

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shatami1/Comcare/internal/models"
)

const discountSubject = "ComfortCare Discount Request"

// HeaderLabel 头部件数文案
func HeaderLabel(count int) string {
	if count == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", count)
}

// DiscountMailto 生成折扣咨询邮件链接，正文列出购物车明细
func DiscountMailto(email string, cart models.Cart) string {
	if len(cart) == 0 {
		return "mailto:" + email + "?subject=" + encodeComponent(discountSubject) + "&body=" + encodeComponent("My cart is currently empty.")
	}

	lines := []string{
		"Hello ComfortCare,",
		"",
		"Please review my cart for available discounts:",
	}
	for i, item := range cart {
		lines = append(lines, fmt.Sprintf("%d. %s %s | %s | Qty %d | $%s",
			i+1, item.Name, item.Model, item.RateType, item.Quantity, item.LineTotal()))
	}
	lines = append(lines,
		"",
		"Total: $"+cart.Total().String(),
		"",
		"Name:",
		"Phone:",
		"Email:",
	)
	return "mailto:" + email + "?subject=" + encodeComponent(discountSubject) + "&body=" + encodeComponent(strings.Join(lines, "\n"))
}

// encodeComponent 空格编码为 %20
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
