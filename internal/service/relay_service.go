package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shatami1/Comcare/internal/logger"
	"github.com/shatami1/Comcare/internal/relay"
)

const (
	msgContactSubmitted = "Form submitted successfully"
	msgBookingSubmitted = "Booking submitted successfully"
	msgContactFailed    = "Failed to submit form"
	msgBookingFailed    = "Failed to submit booking"
	defaultBusinessName = "ComfortCare"
)

// RelayService 校验表单并投递到配置的通知通道
type RelayService struct {
	channel      relay.Channel
	businessName string
	now          func() time.Time
}

// NewRelayService 创建表单转发服务
func NewRelayService(channel relay.Channel, businessName string) *RelayService {
	businessName = strings.TrimSpace(businessName)
	if businessName == "" {
		businessName = defaultBusinessName
	}
	return &RelayService{channel: channel, businessName: businessName, now: time.Now}
}

// SubmitContact 投递联系表单
func (s *RelayService) SubmitContact(ctx context.Context, form ContactForm) (string, error) {
	form.normalize()
	if err := validateForm(form); err != nil {
		return "", err
	}
	msg := relay.Message{
		Subject:  "New Contact Form Submission: " + form.Subject,
		Title:    "New Contact Message",
		Icon:     "📬",
		Subtitle: "From: " + form.Name,
		Summary:  "New Contact Message from " + s.businessName,
		Fields: []relay.Field{
			{Name: "Name", Value: form.Name},
			{Name: "Email", Value: form.Email},
			{Name: "Phone", Value: form.Phone},
			{Name: "Subject", Value: form.Subject},
		},
		Section:     &relay.Field{Name: "Message", Value: form.Message},
		Trailer:     []relay.Field{{Name: "Subscribe to Updates", Value: form.Subscribe.YesNo()}},
		SubmittedAt: s.now(),
	}
	if err := s.deliver(ctx, "contact", msg, msgContactFailed); err != nil {
		return "", err
	}
	return msgContactSubmitted, nil
}

// SubmitBooking 投递预订表单
func (s *RelayService) SubmitBooking(ctx context.Context, form BookingForm) (string, error) {
	form.normalize()
	if err := validateForm(form); err != nil {
		return "", err
	}
	special := form.SpecialRequests
	if special == "" {
		special = "None"
	}
	msg := relay.Message{
		Subject:  "New Booking Request: " + form.EquipmentType,
		Title:    "New Booking Request",
		Icon:     "📋",
		Subtitle: "Equipment: " + form.EquipmentType,
		Summary:  "New Booking Request from " + s.businessName,
		Fields: []relay.Field{
			{Name: "Equipment Type", Value: form.EquipmentType},
			{Name: "Rental Duration", Value: fmt.Sprintf("%s days", form.RentalDays)},
			{Name: "Start Date", Value: form.StartDate},
			{Name: "Delivery/Return Date", Value: form.DeliveryDate},
			{Name: "Full Name", Value: form.FullName},
			{Name: "Phone", Value: form.Phone},
			{Name: "Email", Value: form.Email},
			{Name: "Zip Code", Value: form.ZipCode},
			{Name: "Address", Value: form.Address},
		},
		Section:     &relay.Field{Name: "Special Requests", Value: special},
		SubmittedAt: s.now(),
	}
	if err := s.deliver(ctx, "booking", msg, msgBookingFailed); err != nil {
		return "", err
	}
	return msgBookingSubmitted, nil
}

func (s *RelayService) deliver(ctx context.Context, form string, msg relay.Message, failure string) error {
	log := logger.FromContext(ctx)
	if s.channel == nil {
		log.Errorw("relay_channel_missing", "form", form)
		return NewAppError(KindConfiguration, failure, ErrRelayNotConfigured)
	}
	err := s.channel.Send(ctx, msg)
	if err == nil {
		log.Infow("relay_form_delivered", "form", form, "channel", s.channel.Name())
		return nil
	}
	log.Errorw("relay_form_delivery_failed", "form", form, "channel", s.channel.Name(), "error", err)
	switch {
	case errors.Is(err, relay.ErrChannelNotConfigured), errors.Is(err, relay.ErrInvalidRecipient):
		return NewAppError(KindConfiguration, failure, errors.Join(ErrRelayNotConfigured, err))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return NewAppError(KindTransport, failure, errors.Join(ErrRelayDeliveryFailed, err))
	default:
		return NewAppError(KindUpstream, failure, errors.Join(ErrRelayDeliveryFailed, err))
	}
}
