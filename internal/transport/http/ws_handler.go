package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// WSHandler serves the participant flow: access gate on connect, live quiz
// state over the socket, answer capture with server-side timers.
type WSHandler struct {
	service  *app.Service
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.Service) *WSHandler {
	return &WSHandler{
		service: service,
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

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Value      string `json:"value"`
}

type answerResult struct {
	QuestionID string `json:"questionId"`
	Correct    bool   `json:"correct"`
	Points     int    `json:"points"`
}

type joinedPayload struct {
	Quiz        quizView           `json:"quiz"`
	Participant domain.Participant `json:"participant"`
}

// ServeWS upgrades the request and walks the participant through the flow:
// join via access code, lobby, question delivery, answer capture, results.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	name := r.URL.Query().Get("name")
	email := r.URL.Query().Get("email")
	if code == "" || name == "" {
		http.Error(w, "missing code or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	quiz, participant, err := h.service.JoinQuiz(ctx, code, name, email)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}

	quizUpdates, cancelQuiz, err := h.service.Subscribe(ctx, app.TopicQuizzes, quiz.ID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	defer cancelQuiz()
	rosterUpdates, cancelRoster, err := h.service.Subscribe(ctx, app.TopicParticipants, quiz.ID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	defer cancelRoster()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go (&pump{
		service:       h.service,
		quiz:          quiz,
		participantID: participant.ID,
		quizUpdates:   quizUpdates,
		rosterUpdates: rosterUpdates,
		send:          send,
		closeSignals:  closeSignals,
		done:          updatesDone,
	}).run(ctx)

	send <- outbound("joined", joinedPayload{Quiz: newQuizView(quiz), Participant: participant})

readLoop:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage(domain.Validationf("invalid answer payload"))
				continue
			}
			answer, err := h.service.SubmitAnswer(ctx, participant.ID, payload.QuestionID, payload.Value)
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			send <- outbound("answerResult", answerResult{
				QuestionID: answer.QuestionID,
				Correct:    answer.Correct,
				Points:     answer.Points,
			})
		case "finish":
			finished, err := h.service.FinishQuiz(ctx, participant.ID)
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			freshQuiz, _, qErr := h.service.GetQuiz(ctx, quiz.ID)
			if qErr != nil {
				freshQuiz = quiz
			}
			send <- outbound("result", newResultView(finished, freshQuiz))
		case "leave":
			if err := h.service.Leave(ctx, participant.ID); err != nil {
				send <- errorMessage(err)
				continue
			}
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

// pump owns everything pushed at the participant: state changes, roster
// changes, question delivery, and both timeout timers (per question and for
// the whole quiz). The timers live here so their auto-submits never race the
// connection teardown.
type pump struct {
	service       *app.Service
	quiz          domain.Quiz // snapshot from join, fallback only
	participantID string
	quizUpdates   <-chan app.Change
	rosterUpdates <-chan app.Change
	send          chan outboundMessage[any]
	closeSignals  chan struct{}
	done          chan struct{}

	questionTimer   *time.Timer
	questionC       <-chan time.Time
	timedQuestionID string

	quizTimer *time.Timer
	quizC     <-chan time.Time
}

func (p *pump) run(ctx context.Context) {
	defer close(p.done)
	defer p.stopQuestionTimer()
	defer p.stopQuizTimer()

	// Reconcile once on attach: events committed before the subscription was
	// established are never redelivered, so the "already playing" case must
	// come from a direct read.
	if quiz, _, err := p.service.GetQuiz(ctx, p.quiz.ID); err == nil {
		p.pushState(ctx, quiz)
	}
	p.pushRoster(ctx)

	for {
		select {
		case change, ok := <-p.quizUpdates:
			if !ok {
				return
			}
			quiz, ok := decodeQuiz(change)
			if !ok {
				continue
			}
			p.pushState(ctx, quiz)
		case _, ok := <-p.rosterUpdates:
			if !ok {
				return
			}
			p.pushRoster(ctx)
		case <-p.questionC:
			questionID := p.timedQuestionID
			p.stopQuestionTimer()
			if _, err := p.service.TimeoutAnswer(ctx, p.participantID, questionID); err != nil {
				log.Printf("timeout answer for participant %s: %v", p.participantID, err)
			}
			if !p.trySend(outbound("questionLocked", map[string]string{"questionId": questionID})) {
				return
			}
		case <-p.quizC:
			p.stopQuizTimer()
			p.stopQuestionTimer()
			if !p.finishExpired(ctx) {
				return
			}
		case <-p.closeSignals:
			return
		}
	}
}

// pushState sends the quiz snapshot and, while playing, the sanitized current
// question. Arms the timeout timers when the question or the quiz is timed.
func (p *pump) pushState(ctx context.Context, quiz domain.Quiz) {
	if !p.trySend(outbound("state", newQuizView(quiz))) {
		return
	}
	if quiz.Status != domain.QuizPlaying {
		p.stopQuestionTimer()
		if quiz.Status == domain.QuizCompleted {
			p.stopQuizTimer()
		}
		return
	}

	now := time.Now()
	// The total deadline is fixed at first start, so one timer covers the
	// whole session; it keeps running across a pause.
	if p.quizTimer == nil {
		if deadline := quiz.Deadline(); !deadline.IsZero() {
			p.quizTimer = time.NewTimer(deadline.Sub(now))
			p.quizC = p.quizTimer.C
		}
	}

	question, fresh, total, err := p.service.CurrentQuestion(ctx, quiz.ID)
	if err != nil {
		log.Printf("resolve current question for quiz %s: %v", quiz.ID, err)
		return
	}
	if p.timedQuestionID == question.ID {
		return // already delivered and timed
	}
	p.stopQuestionTimer()

	if !p.trySend(outbound("question", newQuestionView(question, fresh, total, now))) {
		return
	}
	if deadline := fresh.QuestionDeadline(question); !deadline.IsZero() {
		p.questionTimer = time.NewTimer(deadline.Sub(now))
		p.questionC = p.questionTimer.C
		p.timedQuestionID = question.ID
	}
}

// finishExpired submits the whole quiz on behalf of the participant once the
// total time limit elapses. A manual finish that raced the timer wins; its
// conflict is swallowed.
func (p *pump) finishExpired(ctx context.Context) bool {
	finished, err := p.service.FinishQuiz(ctx, p.participantID)
	if err != nil {
		if !domain.IsConflict(err) {
			log.Printf("finish expired quiz for participant %s: %v", p.participantID, err)
		}
		return true
	}
	quiz, _, err := p.service.GetQuiz(ctx, p.quiz.ID)
	if err != nil {
		quiz = p.quiz
	}
	return p.trySend(outbound("result", newResultView(finished, quiz)))
}

func (p *pump) pushRoster(ctx context.Context) {
	participants, err := p.service.Roster(ctx, p.quiz.ID)
	if err != nil {
		log.Printf("fetch roster for quiz %s: %v", p.quiz.ID, err)
		return
	}
	p.trySend(outbound("roster", newRoster(participants)))
}

func (p *pump) stopQuestionTimer() {
	if p.questionTimer != nil {
		p.questionTimer.Stop()
		p.questionTimer = nil
		p.questionC = nil
		p.timedQuestionID = ""
	}
}

func (p *pump) stopQuizTimer() {
	if p.quizTimer != nil {
		p.quizTimer.Stop()
		p.quizTimer = nil
		p.quizC = nil
	}
}

// trySend delivers unless the connection is shutting down.
func (p *pump) trySend(msg outboundMessage[any]) bool {
	select {
	case p.send <- msg:
		return true
	case <-p.closeSignals:
		return false
	}
}

