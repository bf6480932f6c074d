package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern   = regexp.MustCompile(`^\+?[0-9\-()\s.]{6,20}$`)
	zipCodePattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// Checkbox 表单勾选值，兼容 "on"/"true"/"1"/"yes" 与 JSON 布尔
type Checkbox bool

// UnmarshalJSON 接受布尔、字符串与数字
func (c *Checkbox) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*c = false
		return nil
	}
	var flag bool
	if err := json.Unmarshal(b, &flag); err == nil {
		*c = Checkbox(flag)
		return nil
	}
	var text string
	if err := json.Unmarshal(b, &text); err == nil {
		*c = Checkbox(parseCheckbox(text))
		return nil
	}
	*c = Checkbox(parseCheckbox(raw))
	return nil
}

// UnmarshalParam 供 gin 表单绑定使用
func (c *Checkbox) UnmarshalParam(param string) error {
	*c = Checkbox(parseCheckbox(param))
	return nil
}

// YesNo 用于通知展示
func (c Checkbox) YesNo() string {
	if c {
		return "Yes"
	}
	return "No"
}

func parseCheckbox(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "true", "1", "yes", "y", "checked":
		return true
	}
	return false
}

// FormText 表单文本值，JSON 中允许数字
type FormText string

// UnmarshalJSON 接受字符串与数字
func (t *FormText) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*t = ""
		return nil
	}
	var text string
	if err := json.Unmarshal(b, &text); err == nil {
		*t = FormText(text)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(b, &number); err != nil {
		return err
	}
	*t = FormText(number.String())
	return nil
}

// ContactForm 联系表单
type ContactForm struct {
	Name      string   `json:"name" form:"name" validate:"required"`
	Email     string   `json:"email" form:"email" validate:"required,email"`
	Phone     string   `json:"phone" form:"phone" validate:"required,phone"`
	Subject   string   `json:"subject" form:"subject" validate:"required"`
	Message   string   `json:"message" form:"message" validate:"required"`
	Subscribe Checkbox `json:"subscribe" form:"subscribe"`
	Privacy   Checkbox `json:"privacy" form:"privacy" validate:"accepted"`
}

func (f *ContactForm) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Subject = strings.TrimSpace(f.Subject)
	f.Message = strings.TrimSpace(f.Message)
}

// BookingForm 预订表单
type BookingForm struct {
	EquipmentType   string   `json:"equipmentType" form:"equipmentType" validate:"required"`
	RentalDays      FormText `json:"rentalDays" form:"rentalDays" validate:"required,rental_days"`
	StartDate       string   `json:"startDate" form:"startDate" validate:"required"`
	DeliveryDate    string   `json:"deliveryDate" form:"deliveryDate" validate:"required"`
	FullName        string   `json:"fullName" form:"fullName" validate:"required"`
	Phone           string   `json:"phone" form:"phone" validate:"required,phone"`
	Email           string   `json:"email" form:"email" validate:"required,email"`
	ZipCode         string   `json:"zipCode" form:"zipCode" validate:"required,zipcode"`
	Address         string   `json:"address" form:"address" validate:"required"`
	SpecialRequests string   `json:"specialRequests" form:"specialRequests"`
	Terms           Checkbox `json:"terms" form:"terms" validate:"accepted"`
}

func (f *BookingForm) normalize() {
	f.EquipmentType = strings.TrimSpace(f.EquipmentType)
	f.RentalDays = FormText(strings.TrimSpace(string(f.RentalDays)))
	f.StartDate = strings.TrimSpace(f.StartDate)
	f.DeliveryDate = strings.TrimSpace(f.DeliveryDate)
	f.FullName = strings.TrimSpace(f.FullName)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Email = strings.TrimSpace(f.Email)
	f.ZipCode = strings.TrimSpace(f.ZipCode)
	f.Address = strings.TrimSpace(f.Address)
	f.SpecialRequests = strings.TrimSpace(f.SpecialRequests)
}

const (
	msgFormMissingFields  = "Missing required fields"
	msgFormPrivacy        = "Must agree to privacy policy"
	msgFormInvalidEmail   = "Invalid email address"
	msgFormInvalidPhone   = "Invalid phone number"
	msgFormInvalidZip     = "Invalid zip code"
	msgFormInvalidDays    = "Invalid rental duration"
	msgFormInvalidGeneric = "Invalid form submission"
)

// formValidations 表单自定义校验标签
var formValidations = map[string]validator.Func{
	"phone": func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	},
	"zipcode": func(fl validator.FieldLevel) bool {
		return zipCodePattern.MatchString(fl.Field().String())
	},
	"accepted": func(fl validator.FieldLevel) bool {
		return fl.Field().Kind() == reflect.Bool && fl.Field().Bool()
	},
	"rental_days": func(fl validator.FieldLevel) bool {
		days, err := strconv.Atoi(fl.Field().String())
		return err == nil && days > 0
	},
}

var formValidate = newFormValidator()

func registerFormValidations(v *validator.Validate, validations map[string]validator.Func) error {
	for tag, fn := range validations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register form validation %q: %w", tag, err)
		}
	}
	return nil
}

func newFormValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	if err := registerFormValidations(v, formValidations); err != nil {
		panic(err)
	}
	return v
}

// validateForm 返回第一个面向用户的校验失败消息
func validateForm(form interface{}) error {
	err := formValidate.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return NewAppError(KindValidation, msgFormInvalidGeneric, errors.Join(ErrFormInvalid, err))
	}
	return NewAppError(KindValidation, formErrorMessage(fieldErrs), errors.Join(ErrFormInvalid, err))
}

func formErrorMessage(fieldErrs validator.ValidationErrors) string {
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return msgFormMissingFields
		}
	}
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "accepted":
			if fe.Field() == "privacy" {
				return msgFormPrivacy
			}
			return msgFormMissingFields
		case "email":
			return msgFormInvalidEmail
		case "phone":
			return msgFormInvalidPhone
		case "zipcode":
			return msgFormInvalidZip
		case "rental_days":
			return msgFormInvalidDays
		}
	}
	return msgFormInvalidGeneric
}
