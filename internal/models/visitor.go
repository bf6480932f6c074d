package models

import "time"

// ContactProfile 访客保存的联系信息，用于表单自动填充
type ContactProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// PageView 页面访问记录
type PageView struct {
	Page      string    `json:"page"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
	UserAgent string    `json:"userAgent"`
}
