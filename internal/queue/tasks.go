package queue

import (
	"encoding/json"

	"github.com/shatami1/Comcare/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskCheckoutNotify 结算会话创建后的员工通知任务
	TaskCheckoutNotify = constants.TaskCheckoutNotify
)

// CheckoutNotifyItem 通知中的条目
type CheckoutNotifyItem struct {
	Name       string `json:"name"`
	Model      string `json:"model,omitempty"`
	Rate       string `json:"rate,omitempty"`
	UnitAmount int64  `json:"unit_amount"`
	Quantity   int    `json:"quantity"`
}

// CheckoutNotifyPayload 结算通知任务载荷
type CheckoutNotifyPayload struct {
	SessionID   string               `json:"session_id"`
	Origin      string               `json:"origin"`
	Currency    string               `json:"currency"`
	TotalAmount int64                `json:"total_amount"`
	Items       []CheckoutNotifyItem `json:"items"`
	CreatedAt   int64                `json:"created_at"`
}

// NewCheckoutNotifyTask 创建结算通知任务
func NewCheckoutNotifyTask(payload CheckoutNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCheckoutNotify, body), nil
}

// ParseCheckoutNotifyPayload 解析结算通知任务载荷
func ParseCheckoutNotifyPayload(task *asynq.Task) (CheckoutNotifyPayload, error) {
	var payload CheckoutNotifyPayload
	if task == nil {
		return payload, nil
	}
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}
