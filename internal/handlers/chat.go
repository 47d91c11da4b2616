package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"crm-chat-server/internal/chat"
	"crm-chat-server/internal/middleware"
	"crm-chat-server/internal/models"
	"crm-chat-server/internal/utils"
)

// ChatHandler handles the chat REST surface.
type ChatHandler struct {
	DB     *gorm.DB
	Store  *chat.Store
	Policy *chat.Policy
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(db *gorm.DB) *ChatHandler {
	return &ChatHandler{
		DB:     db,
		Store:  chat.NewStore(db),
		Policy: chat.NewPolicy(db),
	}
}

// SendMessageRequest represents the request body for sending a message.
type SendMessageRequest struct {
	ReceiverID  string             `json:"receiverId" binding:"required"`
	Message     string             `json:"message" binding:"required"`
	MessageType models.MessageType `json:"messageType"`
}

// currentUser loads the authenticated identity from the directory. Responds
// with an error and returns nil when the caller cannot be resolved.
func (h *ChatHandler) currentUser(c *gin.Context) *models.User {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return nil
	}
	actor, err := h.Policy.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondChatError(c, err)
		return nil
	}
	return actor
}

// respondChatError maps chat core errors onto HTTP status classes.
func respondChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrValidation):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, chat.ErrAccessDenied):
		utils.Forbidden(c, err.Error())
	case errors.Is(err, chat.ErrNotFound):
		utils.NotFound(c, err.Error())
	default:
		utils.InternalServerError(c, err.Error())
	}
}

func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(chat.DefaultPageSize)))
	if err != nil || limit < 1 {
		limit = chat.DefaultPageSize
	}
	return page, limit
}

// GetConversations returns the role-filtered conversation summaries for the
// caller.
func (h *ChatHandler) GetConversations(c *gin.Context) {
	actor := h.currentUser(c)
	if actor == nil {
		return
	}

	summaries, err := h.Policy.ListConversationsFor(c.Request.Context(), actor)
	if err != nil {
		respondChatError(c, err)
		return
	}
	utils.Success(c, "Conversations fetched successfully", summaries)
}

// GetMessages returns one page of the conversation with another user,
// chronological order. Viewing marks the caller's unseen messages as seen and
// resets their unread counter.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	actor := h.currentUser(c)
	if actor == nil {
		return
	}

	otherUserID := c.Param("otherUserId")
	if err := h.Policy.Authorize(c.Request.Context(), actor, otherUserID); err != nil {
		respondChatError(c, err)
		return
	}

	page, limit := pageParams(c)
	roomID := chat.RoomID(actor.ID, otherUserID)
	result, err := h.Store.ListPage(c.Request.Context(), roomID, actor.ID, page, limit)
	if err != nil {
		respondChatError(c, err)
		return
	}
	utils.Success(c, "Messages fetched successfully", result)
}

// GetRoomMessages returns one page of an arbitrary room addressed by its raw
// id. Superadmin only; no seen side effect.
func (h *ChatHandler) GetRoomMessages(c *gin.Context) {
	page, limit := pageParams(c)
	result, err := h.Store.ListPageRaw(c.Request.Context(), c.Param("roomId"), page, limit)
	if err != nil {
		respondChatError(c, err)
		return
	}
	utils.Success(c, "Messages fetched successfully", result)
}

// SendMessage validates the pair against the access policy, stores the
// message and updates the room summary.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	actor := h.currentUser(c)
	if actor == nil {
		return
	}

	if err := h.Policy.Authorize(c.Request.Context(), actor, req.ReceiverID); err != nil {
		respondChatError(c, err)
		return
	}

	message, err := h.Store.Send(c.Request.Context(), actor.ID, req.ReceiverID, req.Message, req.MessageType)
	if err != nil {
		respondChatError(c, err)
		return
	}
	utils.Created(c, "Message sent successfully", message)
}

// MarkSeen acknowledges the conversation with another user independent of
// listing it.
func (h *ChatHandler) MarkSeen(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	roomID := chat.RoomID(userID, c.Param("otherUserId"))
	if err := h.Store.MarkSeen(c.Request.Context(), roomID, userID); err != nil {
		respondChatError(c, err)
		return
	}
	utils.Success(c, "Messages marked as seen", nil)
}

// GetUnreadCount returns the caller's global unseen message count, used for
// the badge outside any open conversation.
func (h *ChatHandler) GetUnreadCount(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	count, err := h.Store.CountUnseen(c.Request.Context(), userID)
	if err != nil {
		respondChatError(c, err)
		return
	}
	utils.Success(c, "Unread count fetched successfully", gin.H{"unreadCount": count})
}

// SearchMessages performs a case-insensitive substring search over all
// message bodies. Superadmin only.
func (h *ChatHandler) SearchMessages(c *gin.Context) {
	page, limit := pageParams(c)
	result, err := h.Store.Search(c.Request.Context(), c.Query("query"), page, limit)
	if err != nil {
		respondChatError(c, err)
		return
	}
	utils.Success(c, "Messages searched successfully", result)
}

// GetContacts lists the identities the caller may start a conversation with.
func (h *ChatHandler) GetContacts(c *gin.Context) {
	actor := h.currentUser(c)
	if actor == nil {
		return
	}

	contacts, err := h.Policy.Contacts(c.Request.Context(), actor)
	if err != nil {
		respondChatError(c, err)
		return
	}
	utils.Success(c, "Contacts fetched successfully", contacts)
}
