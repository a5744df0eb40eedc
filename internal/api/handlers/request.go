package handlers

import (
	"example.com/backstage/services/picking/internal/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		WriteError(c, NewValidationError("invalid "+name+": must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func requireActor(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.ActorID(c)
	if !ok {
		WriteError(c, ErrMissingActor)
	}
	return id, ok
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		log.Warn().Err(err).Str("path", c.FullPath()).Msg("Invalid request body")
		WriteError(c, ErrInvalidRequest)
		return false
	}
	return true
}
