package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"poker-quiz-service/internal/app"
	"poker-quiz-service/internal/domain"
)

// WSHandler wires websocket connections into the quiz engine. Each
// connection speaks for one authenticated user (the gateway did the
// authenticating); admin message types additionally require the shared
// admin token presented at upgrade time.
type WSHandler struct {
	service    *app.QuizService
	adminToken string
	upgrader   websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, adminToken string) *WSHandler {
	return &WSHandler{
		service:    service,
		adminToken: adminToken,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type createPayload struct {
	QuizID   string  `json:"quizId"`
	Question string  `json:"question"`
	Choices  string  `json:"choices"` // pipe-delimited
	Correct  string  `json:"correct"` // comma-separated letters
	Points   float64 `json:"points"`
}

type quizRefPayload struct {
	QuizID string `json:"quizId"`
}

type togglePayload struct {
	QuizID string `json:"quizId"`
	Letter string `json:"letter"`
}

type selectPayload struct {
	QuizID  string   `json:"quizId"`
	Letters []string `json:"letters"`
}

type freeTextPayload struct {
	QuizID string `json:"quizId"`
	Answer string `json:"answer"`
}

type pointsPayload struct {
	UserID string  `json:"userId"`
	Points float64 `json:"points"`
}

type ackPayload struct {
	OK bool `json:"ok"`
}

// ServeWS upgrades HTTP requests to websockets and runs the message loop.
// Every inbound message gets exactly one reply; errors are per-request and
// never tear down other users' sessions.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	isAdmin := h.adminToken != "" && r.URL.Query().Get("adminToken") == h.adminToken

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		reply := h.dispatch(r, userID, isAdmin, inbound)
		if err := conn.WriteJSON(reply); err != nil {
			log.Printf("ws write error: %v", err)
			return
		}
	}
}

func (h *WSHandler) dispatch(r *http.Request, userID string, isAdmin bool, inbound inboundMessage) outboundMessage[any] {
	ctx := r.Context()

	switch inbound.Type {
	case "create":
		var p createPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return errorMessage("invalid create payload")
		}
		view, err := h.service.CreateQuiz(ctx, p.QuizID, p.Question, p.Choices, p.Correct, p.Points, userID)
		if err != nil {
			return errorMessage(err.Error())
		}
		return outboundMessage[any]{Type: "quiz", Payload: view}

	case "toggle":
		var p togglePayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return errorMessage("invalid toggle payload")
		}
		sel, err := h.service.Toggle(ctx, p.QuizID, userID, p.Letter)
		if err != nil {
			return errorMessage(err.Error())
		}
		return outboundMessage[any]{Type: "selection", Payload: sel}

	case "select":
		var p selectPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return errorMessage("invalid select payload")
		}
		sel, err := h.service.SetPending(ctx, p.QuizID, userID, p.Letters)
		if err != nil {
			return errorMessage(err.Error())
		}
		return outboundMessage[any]{Type: "selection", Payload: sel}

	case "submitText":
		var p freeTextPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return errorMessage("invalid submitText payload")
		}
		sub, err := h.service.SubmitText(ctx, p.QuizID, userID, p.Answer)
		if err != nil {
			return errorMessage(err.Error())
		}
		return outboundMessage[any]{Type: "submission", Payload: sub}

	case "validate":
		var p quizRefPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return errorMessage("invalid validate payload")
		}
		sub, err := h.service.Validate(ctx, p.QuizID, userID)
		if err != nil {
			return errorMessage(err.Error())
		}
		return outboundMessage[any]{Type: "submission", Payload: sub}

	case "reveal":
		var p quizRefPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return errorMessage("invalid reveal payload")
		}
		result, err := h.service.Reveal(ctx, p.QuizID)
		if err != nil {
			return errorMessage(err.Error())
		}
		return outboundMessage[any]{Type: "reveal", Payload: result}

	case "inspect":
		var p quizRefPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return errorMessage("invalid inspect payload")
		}
		report, err := h.service.Inspect(ctx, p.QuizID, userID)
		if err != nil {
			return errorMessage(err.Error())
		}
		return outboundMessage[any]{Type: "inspect", Payload: report}

	case "leaderboard":
		return outboundMessage[any]{Type: "leaderboard", Payload: h.service.Leaderboard(ctx)}

	case "myRank":
		return outboundMessage[any]{Type: "myRank", Payload: h.service.MyRank(ctx, userID)}

	case "setPoints", "addPoints", "removePoints":
		if !isAdmin {
			return errorMessage(domain.ErrPermissionDenied.Error())
		}
		var p pointsPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return errorMessage("invalid points payload")
		}
		switch inbound.Type {
		case "setPoints":
			h.service.SetPoints(ctx, p.UserID, p.Points)
		case "addPoints":
			h.service.AddPoints(ctx, p.UserID, p.Points)
		case "removePoints":
			h.service.RemovePoints(ctx, p.UserID, p.Points)
		}
		return outboundMessage[any]{Type: "ack", Payload: ackPayload{OK: true}}

	case "resetScores":
		if !isAdmin {
			return errorMessage(domain.ErrPermissionDenied.Error())
		}
		h.service.ResetScores(ctx)
		return outboundMessage[any]{Type: "ack", Payload: ackPayload{OK: true}}

	case "syncRoles":
		if !isAdmin {
			return errorMessage(domain.ErrPermissionDenied.Error())
		}
		if err := h.service.SyncRoles(ctx); err != nil {
			return errorMessage(err.Error())
		}
		return outboundMessage[any]{Type: "ack", Payload: ackPayload{OK: true}}

	default:
		return errorMessage("unsupported message type")
	}
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}
