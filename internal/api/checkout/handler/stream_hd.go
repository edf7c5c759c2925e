package checkoutHandler

import (
	"ScanCheckout/internal/api/checkout"
	"ScanCheckout/internal/entity"
	contextPkg "ScanCheckout/pkg/context"
	jwtPkg "ScanCheckout/pkg/jwt"
	"ScanCheckout/pkg/response"
	"ScanCheckout/pkg/utils"
	"context"
	"errors"
	"time"

	"github.com/gofiber/websocket/v2"
)

func (h *CheckoutHandler) socketContext(c *websocket.Conn) context.Context {
	return contextPkg.FromLocals(func(key string) interface{} { return c.Locals(key) })
}

func (h *CheckoutHandler) writeStreamError(c *websocket.Conn, err error) error {
	msg := checkout.StreamError{Error: err.Error()}

	var respErr *response.Error
	switch {
	case errors.As(err, &respErr):
		msg.Code = respErr.Reason
	case errors.Is(err, utils.ErrFrameTooLarge):
		msg.Code = "FRAME_TOO_LARGE"
	case errors.Is(err, utils.ErrNotAnImage), errors.Is(err, utils.ErrEmptyFrame):
		msg.Code = "INVALID_FRAME"
	}

	if err := c.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.WriteJSON(msg)
}

func (h *CheckoutHandler) pongHandler(c *websocket.Conn) func(string) error {
	return func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	}
}

// handleFrameSocket receives binary camera frames from a kiosk and pushes
// them into the session's frame mailbox.
func (h *CheckoutHandler) handleFrameSocket(c *websocket.Conn) {
	ctx := h.socketContext(c)
	sessionID := c.Params("id")

	log := h.log.WithFields(contextPkg.Fields(ctx)).WithField("session_id", sessionID)
	log.Info("Frame socket connected")
	defer log.Info("Frame socket disconnected")

	terminal, ok := c.Locals(jwtPkg.LocalsTerminal).(entity.TerminalLoginData)
	if !ok {
		_ = h.writeStreamError(c, errors.New("unauthorized"))
		return
	}

	if err := h.checkoutService.AuthorizeSession(ctx, terminal.ID, sessionID); err != nil {
		_ = h.writeStreamError(c, err)
		return
	}

	c.SetReadLimit(frameReadLimit)
	c.SetPingHandler(h.pongHandler(c))

	var received uint64
	for {
		if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
			log.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithField("error", err.Error()).Warn("Frame socket error")
			}
			break
		}

		if messageType != websocket.BinaryMessage {
			log.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		if err := h.checkoutService.PublishFrame(ctx, sessionID, message); err != nil {
			if writeErr := h.writeStreamError(c, err); writeErr != nil {
				break
			}
			// Frames for a session that has ended will never be consumed.
			if errors.Is(err, checkout.ErrSessionNotFound) || errors.Is(err, checkout.ErrSourceNotPushable) {
				break
			}
			continue
		}
		received++
	}

	log.WithField("frames", received).Debug("Frame socket closed")
}

// handleEventSocket streams session events as JSON until the session ends or
// the client goes away.
func (h *CheckoutHandler) handleEventSocket(c *websocket.Conn) {
	ctx := h.socketContext(c)
	sessionID := c.Params("id")

	log := h.log.WithFields(contextPkg.Fields(ctx)).WithField("session_id", sessionID)
	log.Info("Event socket connected")
	defer log.Info("Event socket disconnected")

	terminal, ok := c.Locals(jwtPkg.LocalsTerminal).(entity.TerminalLoginData)
	if !ok {
		_ = h.writeStreamError(c, errors.New("unauthorized"))
		return
	}

	events, unsubscribe, err := h.checkoutService.Subscribe(ctx, terminal.ID, sessionID, eventBufferSize)
	if err != nil {
		_ = h.writeStreamError(c, err)
		return
	}
	defer unsubscribe()

	c.SetPingHandler(h.pongHandler(c))

	// Reads only serve control frames and close detection.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				_ = c.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
					time.Now().Add(writeTimeout))
				return
			}
			if err := c.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := c.WriteJSON(ev); err != nil {
				log.WithField("error", err.Error()).Warn("Error writing session event")
				return
			}
		case <-ticker.C:
			if err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
