package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/pawsona/pawsona/internal/models"
	"github.com/pawsona/pawsona/pkg/rag"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsMessage is the frame shape in both directions. Clients send
// {"type": "chat", "content": ..., "pawna_type": ...} and receive
// "response" or "error" frames back.
type wsMessage struct {
	Type       string   `json:"type"`
	Content    string   `json:"content"`
	PawnaType  string   `json:"pawna_type,omitempty"`
	Sources    []string `json:"sources,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
}

// handleWebSocket runs an interactive chat session over one connection.
// Conversation history accumulates per connection so follow-up questions
// get the preceding turns as context.
func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	var history []models.ChatMessage
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return nil
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.writeWS(conn, wsMessage{Type: "error", Content: "invalid message frame"})
			continue
		}

		switch msg.Type {
		case "chat":
			if msg.Content == "" {
				s.writeWS(conn, wsMessage{Type: "error", Content: "content is required"})
				continue
			}

			resp := s.composer.Compose(c.Request().Context(), rag.Request{
				Query:        msg.Content,
				TypeCode:     msg.PawnaType,
				UseGenerator: true,
				History:      history,
			})
			history = append(history,
				models.ChatMessage{Role: models.RoleUser, Content: msg.Content},
				models.ChatMessage{Role: models.RoleAssistant, Content: resp.Text},
			)

			s.writeWS(conn, wsMessage{
				Type:       "response",
				Content:    resp.Text,
				Sources:    resp.Sources,
				Confidence: resp.Confidence,
			})
		default:
			s.writeWS(conn, wsMessage{Type: "error", Content: "unknown message type"})
		}
	}
}

func (s *Server) writeWS(conn *websocket.Conn, msg wsMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Warn("websocket write failed", "error", err)
	}
}
