package consumerWorker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wb-go/wbf/zlog"

	"concerthub/internal/dto"
	"concerthub/internal/mailer"
	"concerthub/internal/rabbit"
)

// Reader drains the notification queue and turns every message into an email.
type Reader struct {
	RMQ    *rabbit.Client
	mail   *mailer.Mailer
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq *rabbit.Client, mail *mailer.Mailer) *Reader {
	return &Reader{
		RMQ:  rmq,
		mail: mail,
		done: make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("notification worker started")

	go func() {
		defer close(r.done)

		if err := r.RMQ.Consume(r.handle); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("notification worker stopped by context")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

func (r *Reader) handle(body []byte) error {
	var envelope dto.QueueMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		zlog.Logger.Error().Err(err).Msgf("failed to unmarshal message: %s", string(body))
		return err
	}

	switch envelope.Kind {
	case dto.MessageKindConcertModerated:
		return r.handleModerated(envelope.Payload)
	case dto.MessageKindTicketsPurchased:
		return r.handlePurchased(envelope.Payload)
	default:
		// Unknown kinds are dropped, requeueing them would loop forever.
		zlog.Logger.Warn().Str("kind", envelope.Kind).Msg("skipping message of unknown kind")
		return nil
	}
}

func (r *Reader) handleModerated(payload []byte) error {
	var msg dto.ConcertModeratedMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("unmarshal moderation message: %w", err)
	}

	zlog.Logger.Info().
		Str("concert_id", msg.ConcertID).
		Str("status", msg.Status).
		Msg("received moderation message")

	if err := r.mail.SendModerationEmail(msg.OrganizerEmail, msg.ConcertTitle, msg.Status); err != nil {
		zlog.Logger.Warn().
			Err(err).
			Str("email", msg.OrganizerEmail).
			Msg("failed to send moderation email")
	}
	return nil
}

func (r *Reader) handlePurchased(payload []byte) error {
	var msg dto.TicketsPurchasedMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("unmarshal purchase message: %w", err)
	}

	zlog.Logger.Info().
		Str("concert_id", msg.ConcertID).
		Int("tickets", len(msg.Barcodes)).
		Msg("received purchase message")

	if err := r.mail.SendReceiptEmail(msg.CustomerEmail, msg.ConcertTitle, msg.ConcertDate, msg.Barcodes, msg.TotalPrice); err != nil {
		zlog.Logger.Warn().
			Err(err).
			Str("email", msg.CustomerEmail).
			Msg("failed to send receipt email")
	}
	return nil
}
