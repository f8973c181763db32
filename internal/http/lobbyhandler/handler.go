package lobbyhandler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studylobby/internal/auth"
	"studylobby/internal/services/lobby"
)

type Handler struct {
	svc      lobby.ILobbyService
	verifier *auth.Verifier
}

func New(svc lobby.ILobbyService, verifier *auth.Verifier) *Handler {
	return &Handler{svc: svc, verifier: verifier}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/lobbies/list", h.list)
	r.GET("/lobby/:id", h.info)
	r.POST("/lobbies/create", h.create)
}

// @Summary		List open lobbies
// @Description	Returns the open lobbies for one class/school pair.
// @Tags			Lobbies
// @Param			className	query		string	true	"Course identifier"	default(MAT101)
// @Param			school		query		string	true	"School identifier"	default(State U)
// @Success		200			{array}		lobby.Summary
// @Failure		400			{object}	ErrorResponse
// @Router			/lobbies/list [get]
func (h *Handler) list(c *gin.Context) {
	var q ListLobbiesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.svc.ListLobbies(c.Request.Context(), q.ClassName, q.School))
}

// @Summary		Get lobby details
// @Description	Returns the summary of a single open lobby.
// @Tags			Lobbies
// @Param			id	path		string	true	"Lobby ID"
// @Success		200	{object}	lobby.Summary
// @Failure		404	{object}	ErrorResponse
// @Router			/lobby/{id} [get]
func (h *Handler) info(c *gin.Context) {
	sum, err := h.svc.GetLobby(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, sum)
}

// @Summary		Create a lobby
// @Description	Creates a lobby with the authenticated user as host. The host
// @Description	then joins over the websocket; that join is idempotent.
// @Tags			Lobbies
// @Param			Authorization	header	string			true	"Bearer token"
// @Param			body			body	CreateLobbyBody	true	"Lobby payload"
// @Success		201	{object}	lobby.Summary
// @Failure		400	{object}	ErrorResponse
// @Failure		401	{object}	ErrorResponse
// @Router			/lobbies/create [post]
func (h *Handler) create(ginCtx *gin.Context) {
	identity, err := h.verifier.Identity(auth.FromAuthHeader(ginCtx.GetHeader("Authorization")))
	if err != nil {
		ginCtx.JSON(http.StatusUnauthorized, &ErrorResponse{Error: err.Error()})
		return
	}

	var body CreateLobbyBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	sum, err := h.svc.CreateLobby(ginCtx.Request.Context(), "",
		identity, body.Name, body.ClassName, body.School, body.MaxUsers)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, lobby.ErrInvalidLobbyConfig) {
			status = http.StatusBadRequest
		}
		ginCtx.JSON(status, &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusCreated, sum)
}
