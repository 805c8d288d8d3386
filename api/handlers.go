package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/spool/pkg/buffer"
	"github.com/papercomputeco/spool/pkg/dump"
	"github.com/papercomputeco/spool/pkg/merge"
	"github.com/papercomputeco/spool/pkg/utils"
	"github.com/papercomputeco/spool/pkg/value"
	"github.com/papercomputeco/spool/pkg/writer"
)

// payloadPreviewLen caps how much of a rejected body is echoed into logs.
const payloadPreviewLen = 80

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AppendResponse reports how many records were accepted and what is now
// pending in the buffer.
type AppendResponse struct {
	Accepted int    `json:"accepted"`
	Pending  int    `json:"pending"`
	State    string `json:"state"`
}

// StatusResponse describes the coordinator.
type StatusResponse struct {
	State     string `json:"state"`
	Pending   int    `json:"pending"`
	Enabled   bool   `json:"enabled"`
	Capacity  int    `json:"capacity"`
	Tolerance *int   `json:"tolerance"`
	Formatter string `json:"formatter"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleStatus handles GET /status. A null tolerance means unlimited.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	capacity, enabled := s.coordinator.Capacity()

	resp := StatusResponse{
		State:     s.coordinator.State().String(),
		Pending:   s.coordinator.Pending(),
		Enabled:   enabled,
		Capacity:  capacity,
		Formatter: s.coordinator.Formatter().String(),
	}
	if t := s.coordinator.Tolerance(); !t.IsUnlimited() {
		n := t.N()
		resp.Tolerance = &n
	}
	return c.JSON(resp)
}

// handleAppend handles POST /records. The body is one JSON record; with
// ?batch=true a JSON array is appended element by element.
func (s *Server) handleAppend(c *fiber.Ctx) error {
	record, err := value.ParseJSON(c.Body())
	if err != nil {
		s.logger.Debug("rejecting record body",
			zap.String("body", utils.Truncate(string(c.Body()), payloadPreviewLen)),
			zap.Error(err),
		)
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid JSON body"})
	}

	records := []value.Value{record}
	if c.QueryBool("batch") {
		if record.Kind() != value.KindSequence {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "batch body must be a JSON array"})
		}
		records = record.Elements()
	}

	accepted := 0
	for _, r := range records {
		if err := s.coordinator.Append(c.UserContext(), r); err != nil {
			return s.writeError(c, err, accepted)
		}
		accepted++
	}

	return c.Status(fiber.StatusAccepted).JSON(AppendResponse{
		Accepted: accepted,
		Pending:  s.coordinator.Pending(),
		State:    s.coordinator.State().String(),
	})
}

// handleFlush handles POST /flush.
func (s *Server) handleFlush(c *fiber.Ctx) error {
	if err := s.coordinator.FlushToFile(c.UserContext()); err != nil {
		return s.writeError(c, err, 0)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) writeError(c *fiber.Ctx, err error, accepted int) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, buffer.ErrOverflow):
		status = fiber.StatusTooManyRequests
	case errors.Is(err, dump.ErrValidation),
		errors.Is(err, writer.ErrUnknownFormat),
		errors.Is(err, merge.ErrKeyPath),
		errors.Is(err, merge.ErrMergeType):
		status = fiber.StatusUnprocessableEntity
	}

	s.logger.Warn("request failed",
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Int("accepted", accepted),
		zap.Error(err),
	)
	return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
}
