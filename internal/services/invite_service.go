package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// NotificationSender delivers a text message to a destination address,
// typically a phone number handled by an SMS gateway.
type NotificationSender interface {
	Send(ctx context.Context, destination, message string) error
}

// InviteService sends join-code invitations for stokvels.
type InviteService struct {
	sender   NotificationSender
	stokvels *StokvelService
	logger   *zap.Logger
}

// NewInviteService creates a new InviteService.
func NewInviteService(sender NotificationSender, stokvels *StokvelService, logger *zap.Logger) *InviteService {
	return &InviteService{
		sender:   sender,
		stokvels: stokvels,
		logger:   logger,
	}
}

type inviteTarget struct {
	Destination string `json:"phone_number" validate:"required,e164"`
}

// SendInvite formats an invitation for groupName and hands it to the sender.
// Delivery failures are returned wrapped in ErrDelivery.
func (s *InviteService) SendInvite(ctx context.Context, destination, groupName, joinCode string) error {
	target := inviteTarget{Destination: NormalizePhone(destination)}
	if err := validateStruct(target); err != nil {
		return err
	}

	message := InviteMessage(groupName, joinCode)
	if err := s.sender.Send(ctx, target.Destination, message); err != nil {
		s.logger.Error("invite delivery failed", zap.String("destination", target.Destination), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	s.logger.Info("invite sent", zap.String("destination", target.Destination))
	return nil
}

// InviteToStokvel sends an invite for stokvelID on behalf of its owner.
func (s *InviteService) InviteToStokvel(ctx context.Context, requesterID, stokvelID uint, destination string) error {
	stokvel, err := s.stokvels.GetStokvel(ctx, stokvelID)
	if err != nil {
		return err
	}
	if stokvel.UserID != requesterID {
		return ErrForbidden
	}
	return s.SendInvite(ctx, destination, stokvel.Name, stokvel.JoinCode)
}

// InviteMessage is the text delivered to an invited friend.
func InviteMessage(groupName, joinCode string) string {
	return fmt.Sprintf("You have been invited to join the stokvel %q. Use join code %s to join.", groupName, joinCode)
}

// NormalizePhone strips formatting from a phone number. Local South African
// numbers (leading 0) are rewritten to +27, and a 00 prefix becomes +.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(phone) {
		switch {
		case r >= '0' && r <= '9', r == '+':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '(', r == ')', r == '.':
		default:
			// Keep anything else so validation rejects it.
			b.WriteRune(r)
		}
	}
	n := b.String()

	switch {
	case strings.HasPrefix(n, "00"):
		return "+" + n[2:]
	case strings.HasPrefix(n, "0") && len(n) == 10:
		return "+27" + n[1:]
	default:
		return n
	}
}

// LogNotificationSender only logs invites. It stands in for the SMS pipeline
// when no message broker is configured.
type LogNotificationSender struct {
	logger *zap.Logger
}

// NewLogNotificationSender creates a new LogNotificationSender.
func NewLogNotificationSender(logger *zap.Logger) *LogNotificationSender {
	return &LogNotificationSender{logger: logger}
}

func (l *LogNotificationSender) Send(_ context.Context, destination, message string) error {
	l.logger.Info("notification (not delivered, no broker configured)",
		zap.String("destination", destination),
		zap.String("message", message),
	)
	return nil
}
