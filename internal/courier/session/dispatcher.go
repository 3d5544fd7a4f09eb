package session

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/h2non/filetype"
	"github.com/rs/zerolog"

	"github.com/bizline/bizline/internal/common/uuid"
	"github.com/bizline/bizline/internal/courier/brain"
	"github.com/bizline/bizline/internal/courier/wire"
)

// Canned replies used when normal handling degrades. The contact always gets
// a response rather than silence, except where the message is ignored outright.
const (
	apologyReply          = "Sorry, I'm having trouble processing that right now. Please try again in a moment."
	imageTooLargeReply    = "That image is too large for me to process. Could you send a smaller version?"
	documentTooLargeReply = "That document is too large for me to process. Could you send a smaller file?"
	unsupportedReply      = "I can respond to text messages, images, documents, and voice notes."
)

// audioCaption is the brain-facing instruction attached to voice notes.
const audioCaption = "Voice message. Transcribe the audio and respond to its content."

// Fallback MIME types when the protocol engine didn't declare one.
const (
	defaultImageMime = "image/jpeg"
	defaultAudioMime = "audio/ogg"
)

// MediaOptions configures inbound media handling.
type MediaOptions struct {
	ImageMaxBytes    int64         // encoded image payload ceiling
	DocumentMaxBytes int64         // encoded document payload ceiling
	DefaultDocMime   string        // fallback MIME for documents that resist sniffing
	DownloadTimeout  time.Duration // per-attempt media download timeout
}

// dispatcher turns one inbound message into at most one outbound reply. It
// owns the guard checks, content classification, media handling, and the
// degradation policy when the brain or the transport misbehaves.
type dispatcher struct {
	brain    brain.Service
	media    MediaOptions
	delivery *delivery
}

func newDispatcher(brainSvc brain.Service, media MediaOptions, delivery *delivery) *dispatcher {
	return &dispatcher{
		brain:    brainSvc,
		media:    media,
		delivery: delivery,
	}
}

// dispatch handles one inbound message end to end. It never returns an error:
// failures degrade to an apology reply or, for guard-filtered messages, to
// silence. Messages for one tenant are dispatched one at a time by the
// session's event loop, so ordering is preserved per tenant.
func (d *dispatcher) dispatch(ctx context.Context, tenantID string, conn wire.Conn, msg *wire.Message, logger zerolog.Logger) {
	if msg == nil {
		return
	}
	// Guards: echoes of our own sends, group chatter, and empty payloads are
	// ignored without a reply.
	if msg.FromSelf || msg.Group {
		return
	}
	if msg.Kind == wire.KindText && strings.TrimSpace(msg.Text) == "" {
		return
	}

	corrID := uuid.New().String()
	logger = logger.With().
		Str("correlation_id", corrID).
		Str("sender", msg.Sender).
		Logger()
	logger.Info().Str("message_id", msg.ID).Msg("dispatching inbound message")

	reply := d.replyFor(ctx, tenantID, conn, msg, corrID, logger)
	if reply == "" {
		return
	}

	d.delivery.deliver(ctx, conn, msg.Sender, reply, logger)
}

func (d *dispatcher) replyFor(ctx context.Context, tenantID string, conn wire.Conn, msg *wire.Message, corrID string, logger zerolog.Logger) string {
	switch msg.Kind {
	case wire.KindText:
		reply, err := d.brain.Reply(ctx, &brain.ReplyRequest{
			Message:       msg.Text,
			SenderID:      msg.Sender,
			TenantID:      tenantID,
			CorrelationID: corrID,
		})
		if err != nil {
			logger.Error().Err(err).Msg("brain text reply failed")
			return apologyReply
		}
		return reply

	case wire.KindImage:
		data, err := d.download(ctx, conn, msg)
		if err != nil {
			logger.Error().Err(err).Msg("image download failed")
			return apologyReply
		}
		if len(data) == 0 {
			logger.Info().Msg("empty image payload ignored")
			return ""
		}
		encoded := base64.StdEncoding.EncodeToString(data)
		if int64(len(encoded)) > d.media.ImageMaxBytes {
			logger.Info().Int("encoded_bytes", len(encoded)).Msg("image over size ceiling")
			return imageTooLargeReply
		}
		return d.mediaReply(ctx, &brain.MediaReplyRequest{
			MediaBase64:   encoded,
			MimeType:      orDefault(msg.MimeType, defaultImageMime),
			Caption:       msg.Text,
			SenderID:      msg.Sender,
			TenantID:      tenantID,
			CorrelationID: corrID,
		}, logger)

	case wire.KindDocument:
		data, err := d.download(ctx, conn, msg)
		if err != nil {
			logger.Error().Err(err).Msg("document download failed")
			return apologyReply
		}
		if len(data) == 0 {
			logger.Info().Msg("empty document payload ignored")
			return ""
		}
		encoded := base64.StdEncoding.EncodeToString(data)
		if int64(len(encoded)) > d.media.DocumentMaxBytes {
			logger.Info().Int("encoded_bytes", len(encoded)).Msg("document over size ceiling")
			return documentTooLargeReply
		}
		return d.mediaReply(ctx, &brain.MediaReplyRequest{
			MediaBase64:   encoded,
			MimeType:      d.documentMime(msg, data),
			Caption:       msg.Text,
			SenderID:      msg.Sender,
			TenantID:      tenantID,
			CorrelationID: corrID,
		}, logger)

	case wire.KindAudio:
		// Voice notes carry no size ceiling; they are short by nature and the
		// brain handles transcription.
		data, err := d.download(ctx, conn, msg)
		if err != nil {
			logger.Error().Err(err).Msg("audio download failed")
			return apologyReply
		}
		if len(data) == 0 {
			logger.Info().Msg("empty audio payload ignored")
			return ""
		}
		return d.mediaReply(ctx, &brain.MediaReplyRequest{
			MediaBase64:   base64.StdEncoding.EncodeToString(data),
			MimeType:      orDefault(msg.MimeType, defaultAudioMime),
			Caption:       audioCaption,
			SenderID:      msg.Sender,
			TenantID:      tenantID,
			CorrelationID: corrID,
		}, logger)

	default:
		return unsupportedReply
	}
}

func (d *dispatcher) mediaReply(ctx context.Context, req *brain.MediaReplyRequest, logger zerolog.Logger) string {
	reply, err := d.brain.MediaReply(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("brain media reply failed")
		return apologyReply
	}
	return reply
}

// documentMime resolves the MIME type for a document: the engine's declared
// type wins, then content sniffing, then the configured fallback.
func (d *dispatcher) documentMime(msg *wire.Message, data []byte) string {
	if msg.MimeType != "" {
		return msg.MimeType
	}
	if t, err := filetype.Match(data); err == nil && t != filetype.Unknown {
		return t.MIME.Value
	}
	return d.media.DefaultDocMime
}

// download fetches a media payload with bounded retries. Each attempt gets a
// fresh timeout; transient transport failures back off between attempts.
func (d *dispatcher) download(ctx context.Context, conn wire.Conn, msg *wire.Message) ([]byte, error) {
	return retry.DoWithData(
		func() ([]byte, error) {
			dctx, cancel := context.WithTimeout(ctx, d.media.DownloadTimeout)
			defer cancel()
			return conn.Download(dctx, msg)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
