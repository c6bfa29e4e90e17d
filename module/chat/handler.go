package chat

import (
	"net/http"
	"strconv"

	midsec "PulseChat/middleware/security"
	chatsvc "PulseChat/module/chat/service"
	"PulseChat/tools/errs"

	"github.com/gin-gonic/gin"
)

// Handler exposes the conversation and message endpoints over gin.
type Handler struct {
	convs *chatsvc.ConversationService
	msgs  *chatsvc.MessageService
}

func NewHandler(convs *chatsvc.ConversationService, msgs *chatsvc.MessageService) *Handler {
	return &Handler{convs: convs, msgs: msgs}
}

func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.ErrArgs.Is(err):
		status = http.StatusBadRequest
	case errs.ErrForbidden.Is(err):
		status = http.StatusForbidden
	case errs.ErrRecordMissing.Is(err):
		status = http.StatusNotFound
	case errs.ErrRecordExists.Is(err):
		status = http.StatusConflict
	case errs.ErrUnauthorized.Is(err), errs.ErrTokenInvalid.Is(err):
		status = http.StatusUnauthorized
	}
	var ce *errs.CodeError
	if errs.As(err, &ce) {
		c.JSON(status, ce)
		return
	}
	c.JSON(status, gin.H{"msg": err.Error()})
}

// GET /conversations
func (h *Handler) ListConversations(c *gin.Context) {
	out, err := h.convs.ListMine(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// POST /conversations
func (h *Handler) CreateConversation(c *gin.Context) {
	var in chatsvc.CreateConversationParams
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	cv, err := h.convs.Create(c.Request.Context(), midsec.UserID(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cv)
}

// GET /conversations/:id
func (h *Handler) GetConversation(c *gin.Context) {
	cv, err := h.convs.Get(c.Request.Context(), c.Param("id"), midsec.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cv)
}

// GET /conversations/:id/participants
func (h *Handler) Participants(c *gin.Context) {
	out, err := h.convs.Participants(c.Request.Context(), c.Param("id"), midsec.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// POST /conversations/:id/participants/:userID
func (h *Handler) AddParticipant(c *gin.Context) {
	err := h.convs.AddParticipant(c.Request.Context(), c.Param("id"), midsec.UserID(c), c.Param("userID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"added": true})
}

// DELETE /conversations/:id/participants/:userID
func (h *Handler) RemoveParticipant(c *gin.Context) {
	err := h.convs.RemoveParticipant(c.Request.Context(), c.Param("id"), midsec.UserID(c), c.Param("userID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// DELETE /conversations/:id
func (h *Handler) DeleteConversation(c *gin.Context) {
	if err := h.convs.Delete(c.Request.Context(), c.Param("id"), midsec.UserID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// POST /messages
func (h *Handler) SendMessage(c *gin.Context) {
	var in chatsvc.SendMessageParams
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	m, err := h.msgs.Send(c.Request.Context(), midsec.UserID(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// GET /conversations/:id/messages?skip=&limit=
func (h *Handler) History(c *gin.Context) {
	skip, _ := strconv.Atoi(c.Query("skip"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	out, err := h.msgs.History(c.Request.Context(), c.Param("id"), midsec.UserID(c), skip, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type editReq struct {
	Content string `json:"content"`
}

// PUT /messages/:id
func (h *Handler) EditMessage(c *gin.Context) {
	var in editReq
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	m, err := h.msgs.Edit(c.Request.Context(), c.Param("id"), midsec.UserID(c), in.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// DELETE /messages/:id
func (h *Handler) DeleteMessage(c *gin.Context) {
	if err := h.msgs.Delete(c.Request.Context(), c.Param("id"), midsec.UserID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// POST /messages/:id/read/:messageID — :id is the conversation id here.
func (h *Handler) MarkRead(c *gin.Context) {
	err := h.msgs.MarkRead(c.Request.Context(), c.Param("id"), midsec.UserID(c), c.Param("messageID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}

type reactReq struct {
	Emoji string `json:"emoji"`
}

// POST /messages/:id/reactions
func (h *Handler) AddReaction(c *gin.Context) {
	var in reactReq
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	r, err := h.msgs.React(c.Request.Context(), c.Param("id"), midsec.UserID(c), in.Emoji)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// DELETE /messages/:id/reactions
func (h *Handler) RemoveReaction(c *gin.Context) {
	if err := h.msgs.Unreact(c.Request.Context(), c.Param("id"), midsec.UserID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// POST /messages/:id/attachments
func (h *Handler) AddAttachment(c *gin.Context) {
	var in chatsvc.AttachmentParams
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	a, err := h.msgs.Attach(c.Request.Context(), c.Param("id"), midsec.UserID(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}
