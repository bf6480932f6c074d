package cart

import (
	"fmt"
	"io"
	"sync"
)

// ListView 以文本形式输出完整购物车列表
type ListView struct {
	mu sync.Mutex
	w  io.Writer
}

// NewListView 创建列表视图
func NewListView(w io.Writer) *ListView {
	return &ListView{w: w}
}

// Render 渲染
func (v *ListView) Render(state ViewState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if state.Notice != "" {
		fmt.Fprintln(v.w, state.Notice)
	}
	if state.Empty {
		fmt.Fprintln(v.w, state.EmptyMessage)
		fmt.Fprintf(v.w, "Total: $%s\n", state.Total)
		return
	}
	for _, item := range state.Items {
		fmt.Fprintf(v.w, "[%d] %s\n    %s | %s | Qty %d\n    $%s each    $%s\n",
			item.Index, item.Name, item.Model, item.RateLabel, item.Quantity, item.UnitPrice, item.LineTotal)
	}
	fmt.Fprintf(v.w, "Total: $%s\n", state.Total)
}

// SummaryView 头部件数与总额，保存最近一次渲染结果
type SummaryView struct {
	mu    sync.RWMutex
	label string
	total string
	link  string
}

// Render 渲染
func (v *SummaryView) Render(state ViewState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.label = state.HeaderLabel
	v.total = "$" + state.Total.String()
	v.link = state.DiscountLink
}

// Label 件数文案
func (v *SummaryView) Label() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.label
}

// Total 总额文案
func (v *SummaryView) Total() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.total
}

// DiscountLink 折扣咨询链接
func (v *SummaryView) DiscountLink() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.link
}
