package response

import "github.com/gin-gonic/gin"

// ChatResponse is the success body of POST /api/chat: sanitized HTML for
// display, the raw markdown for history, and the conversation id (freshly
// generated when the request carried none).
type ChatResponse struct {
	Response       string `json:"response"`
	RawResponse    string `json:"raw_response"`
	ConversationID string `json:"conversation_id"`
}

// Error writes the short error body used when a request is refused before
// any side effect (e.g. missing API key).
func Error(c *gin.Context, status int, err string) {
	c.JSON(status, gin.H{"error": err})
}

// ErrorWithHint writes an error body that includes remediation guidance for
// the user.
func ErrorWithHint(c *gin.Context, status int, err, hint string) {
	c.JSON(status, gin.H{"error": err, "message": hint})
}
