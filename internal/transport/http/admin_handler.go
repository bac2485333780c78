package http

import (
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// AdminHandler serves the quiz control surface: the session state machine
// commands, the live roster, and results aggregation. Admin identity is a
// shared token checked before the socket upgrade.
type AdminHandler struct {
	service  *app.Service
	token    string
	upgrader websocket.Upgrader
}

func NewAdminHandler(service *app.Service, token string) *AdminHandler {
	return &AdminHandler{
		service: service,
		token:   token,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type advancePayload struct {
	Direction string `json:"direction"` // "next" or "previous"
}

func (h *AdminHandler) authorized(r *http.Request) bool {
	token := r.URL.Query().Get("token")
	if h.token == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) == 1
}

// ServeAdminWS drives one quiz on behalf of its admin.
func (h *AdminHandler) ServeAdminWS(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, "admin token required", http.StatusUnauthorized)
		return
	}
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("admin ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	quiz, questions, err := h.service.GetQuiz(ctx, quizID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}

	quizUpdates, cancelQuiz, err := h.service.Subscribe(ctx, app.TopicQuizzes, quizID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	defer cancelQuiz()
	rosterUpdates, cancelRoster, err := h.service.Subscribe(ctx, app.TopicParticipants, quizID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	defer cancelRoster()
	answerUpdates, cancelAnswers, err := h.service.Subscribe(ctx, app.TopicAnswers, quizID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	defer cancelAnswers()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("admin ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case change, ok := <-quizUpdates:
				if !ok {
					return
				}
				if updated, ok := decodeQuiz(change); ok {
					if !h.trySend(send, closeSignals, outbound("state", updated)) {
						return
					}
				}
			case _, ok := <-rosterUpdates:
				if !ok {
					return
				}
				roster, err := h.service.Roster(ctx, quizID)
				if err != nil {
					continue
				}
				if !h.trySend(send, closeSignals, outbound("roster", roster)) {
					return
				}
			case change, ok := <-answerUpdates:
				if !ok {
					return
				}
				var answer domain.Answer
				if err := change.DecodeNew(&answer); err != nil {
					continue
				}
				if !h.trySend(send, closeSignals, outbound("answerSubmitted", answer)) {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// The admin view sees the full question set, correct answers included.
	h.trySend(send, closeSignals, outbound("state", quiz))
	h.trySend(send, closeSignals, outbound("questions", questions))
	if roster, err := h.service.Roster(ctx, quizID); err == nil {
		h.trySend(send, closeSignals, outbound("roster", roster))
	}

readLoop:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			h.reply(send, h.command(func() (domain.Quiz, error) {
				return h.service.StartQuiz(ctx, quizID)
			}))
		case "advance":
			var payload advancePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage(domain.Validationf("invalid advance payload"))
				continue
			}
			delta := 1
			if payload.Direction == "previous" {
				delta = -1
			}
			h.reply(send, h.command(func() (domain.Quiz, error) {
				return h.service.AdvanceQuiz(ctx, quizID, delta)
			}))
		case "pause":
			h.reply(send, h.command(func() (domain.Quiz, error) {
				return h.service.PauseQuiz(ctx, quizID)
			}))
		case "complete":
			h.reply(send, h.command(func() (domain.Quiz, error) {
				return h.service.CompleteQuiz(ctx, quizID)
			}))
		case "listQuizzes":
			quizzes, err := h.service.ListQuizzes(ctx)
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			send <- outbound("quizzes", quizzes)
		case "results":
			results, err := h.service.Results(ctx, quizID)
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			send <- outbound("results", results)
		case "close":
			break readLoop
		default:
			send <- errorMessage(domain.Validationf("unsupported message type %q", inbound.Type))
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// command runs a state-machine transition and shapes the reply. The quiz
// change also arrives through the subscription; the direct reply just gives
// the admin immediate feedback on their own action.
func (h *AdminHandler) command(fn func() (domain.Quiz, error)) outboundMessage[any] {
	quiz, err := fn()
	if err != nil {
		return errorMessage(err)
	}
	return outbound("state", quiz)
}

func (h *AdminHandler) reply(send chan outboundMessage[any], msg outboundMessage[any]) {
	send <- msg
}

func (h *AdminHandler) trySend(send chan outboundMessage[any], closeSignals chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-closeSignals:
		return false
	}
}
