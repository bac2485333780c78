package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"live-quiz-service/internal/domain"
)

// Store is the Postgres implementation of the app store interfaces.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const quizColumns = `id, title, description, access_code, status, current_question_index,
	time_limit_minutes, question_time_limit_sec, passing_score,
	show_results, allow_retake, shuffle_questions, version,
	started_at, question_started_at, created_at, updated_at`

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz, questions []domain.Question) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Transientf(err, "begin create quiz")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `INSERT INTO quizzes (`+quizColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		quiz.ID, quiz.Title, quiz.Description, quiz.AccessCode, quiz.Status, quiz.CurrentQuestionIndex,
		quiz.TimeLimitMinutes, quiz.QuestionTimeLimitSec, quiz.PassingScore,
		quiz.ShowResults, quiz.AllowRetake, quiz.ShuffleQuestions, quiz.Version,
		quiz.StartedAt, quiz.QuestionStartedAt, quiz.CreatedAt, quiz.UpdatedAt)
	if err != nil {
		return domain.Transientf(err, "insert quiz")
	}

	for _, q := range questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `INSERT INTO questions
			(id, quiz_id, prompt, type, options, correct_answer, points, difficulty, explanation, time_limit_sec, order_index)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			q.ID, q.QuizID, q.Prompt, q.Type, options, q.CorrectAnswer, q.Points,
			q.Difficulty, q.Explanation, q.TimeLimitSec, q.OrderIndex)
		if err != nil {
			return domain.Transientf(err, "insert question")
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Transientf(err, "commit create quiz")
	}
	return nil
}

func (s *Store) QuizByID(ctx context.Context, id string) (domain.Quiz, error) {
	return s.scanQuiz(s.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id=$1`, id))
}

func (s *Store) QuizByCode(ctx context.Context, code string) (domain.Quiz, error) {
	return s.scanQuiz(s.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE access_code=$1`, code))
}

func (s *Store) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+quizColumns+` FROM quizzes ORDER BY created_at DESC`)
	if err != nil {
		return nil, domain.Transientf(err, "list quizzes")
	}
	defer rows.Close()

	var out []domain.Quiz
	for rows.Next() {
		quiz, err := s.scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, quiz)
	}
	return out, rows.Err()
}

func (s *Store) UpdateQuizState(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	row := s.pool.QueryRow(ctx, `UPDATE quizzes
		SET status=$1, current_question_index=$2, started_at=$3, question_started_at=$4,
			version=version+1, updated_at=now()
		WHERE id=$5 AND version=$6
		RETURNING `+quizColumns,
		quiz.Status, quiz.CurrentQuestionIndex, quiz.StartedAt, quiz.QuestionStartedAt,
		quiz.ID, quiz.Version)
	stored, err := s.scanQuiz(row)
	if domain.IsNotFound(err) {
		// No row matched: either the quiz is gone or another writer bumped
		// the version first.
		if _, lookupErr := s.QuizByID(ctx, quiz.ID); lookupErr != nil {
			return domain.Quiz{}, lookupErr
		}
		return domain.Quiz{}, domain.ErrVersionConflict
	}
	return stored, err
}

func (s *Store) Questions(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, quiz_id, prompt, type, options, correct_answer,
		points, difficulty, explanation, time_limit_sec, order_index
		FROM questions WHERE quiz_id=$1 ORDER BY order_index ASC`, quizID)
	if err != nil {
		return nil, domain.Transientf(err, "list questions")
	}
	defer rows.Close()

	out := make([]domain.Question, 0)
	for rows.Next() {
		var q domain.Question
		var options []byte
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Prompt, &q.Type, &options, &q.CorrectAnswer,
			&q.Points, &q.Difficulty, &q.Explanation, &q.TimeLimitSec, &q.OrderIndex); err != nil {
			return nil, domain.Transientf(err, "scan question")
		}
		if len(options) > 0 {
			if err := json.Unmarshal(options, &q.Options); err != nil {
				return nil, err
			}
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) CreateParticipant(ctx context.Context, p domain.Participant) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO participants
		(id, quiz_id, name, email, status, score, max_score, joined_at, started_at, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.QuizID, p.Name, p.Email, p.Status, p.Score, p.MaxScore, p.JoinedAt, p.StartedAt, p.CompletedAt)
	if err != nil {
		return domain.Transientf(err, "insert participant")
	}
	return nil
}

func (s *Store) ParticipantByID(ctx context.Context, id string) (domain.Participant, error) {
	return s.scanParticipant(s.pool.QueryRow(ctx, `SELECT id, quiz_id, name, email, status, score, max_score,
		joined_at, started_at, completed_at FROM participants WHERE id=$1`, id))
}

func (s *Store) ListParticipants(ctx context.Context, quizID string) ([]domain.Participant, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, quiz_id, name, email, status, score, max_score,
		joined_at, started_at, completed_at FROM participants WHERE quiz_id=$1 ORDER BY joined_at ASC`, quizID)
	if err != nil {
		return nil, domain.Transientf(err, "list participants")
	}
	defer rows.Close()

	out := make([]domain.Participant, 0)
	for rows.Next() {
		p, err := s.scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) UpdateParticipant(ctx context.Context, p domain.Participant) error {
	tag, err := s.pool.Exec(ctx, `UPDATE participants
		SET status=$1, score=$2, max_score=$3, started_at=$4, completed_at=$5
		WHERE id=$6`,
		p.Status, p.Score, p.MaxScore, p.StartedAt, p.CompletedAt, p.ID)
	if err != nil {
		return domain.Transientf(err, "update participant")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrParticipantNotFound
	}
	return nil
}

func (s *Store) DeleteParticipant(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM participants WHERE id=$1`, id); err != nil {
		return domain.Transientf(err, "delete participant")
	}
	return nil
}

func (s *Store) SetParticipantsStatus(ctx context.Context, quizID string, status domain.ParticipantStatus, at time.Time) error {
	_, err := s.pool.Exec(ctx, `UPDATE participants
		SET status=$1,
			started_at   = CASE WHEN $1='playing'   AND started_at   IS NULL THEN $2 ELSE started_at   END,
			completed_at = CASE WHEN $1='completed' AND completed_at IS NULL THEN $2 ELSE completed_at END
		WHERE quiz_id=$3`, status, at, quizID)
	if err != nil {
		return domain.Transientf(err, "bulk update participants")
	}
	return nil
}

func (s *Store) CreateAnswer(ctx context.Context, a domain.Answer) error {
	tag, err := s.pool.Exec(ctx, `INSERT INTO answers
		(id, quiz_id, participant_id, question_id, value, correct, points, time_taken_sec, submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (participant_id, question_id) DO NOTHING`,
		a.ID, a.QuizID, a.ParticipantID, a.QuestionID, a.Value, a.Correct, a.Points, a.TimeTakenSec, a.SubmittedAt)
	if err != nil {
		return domain.Transientf(err, "insert answer")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyAnswered
	}
	return nil
}

func (s *Store) ListAnswers(ctx context.Context, quizID string) ([]domain.Answer, error) {
	return s.listAnswers(ctx, `SELECT id, quiz_id, participant_id, question_id, value, correct,
		points, time_taken_sec, submitted_at FROM answers WHERE quiz_id=$1 ORDER BY submitted_at ASC`, quizID)
}

func (s *Store) ListParticipantAnswers(ctx context.Context, participantID string) ([]domain.Answer, error) {
	return s.listAnswers(ctx, `SELECT id, quiz_id, participant_id, question_id, value, correct,
		points, time_taken_sec, submitted_at FROM answers WHERE participant_id=$1 ORDER BY submitted_at ASC`, participantID)
}

func (s *Store) listAnswers(ctx context.Context, query string, arg any) ([]domain.Answer, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, domain.Transientf(err, "list answers")
	}
	defer rows.Close()

	out := make([]domain.Answer, 0)
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.ID, &a.QuizID, &a.ParticipantID, &a.QuestionID, &a.Value,
			&a.Correct, &a.Points, &a.TimeTakenSec, &a.SubmittedAt); err != nil {
			return nil, domain.Transientf(err, "scan answer")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanQuiz(row rowScanner) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := row.Scan(&quiz.ID, &quiz.Title, &quiz.Description, &quiz.AccessCode, &quiz.Status,
		&quiz.CurrentQuestionIndex, &quiz.TimeLimitMinutes, &quiz.QuestionTimeLimitSec,
		&quiz.PassingScore, &quiz.ShowResults, &quiz.AllowRetake, &quiz.ShuffleQuestions,
		&quiz.Version, &quiz.StartedAt, &quiz.QuestionStartedAt, &quiz.CreatedAt, &quiz.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, domain.Transientf(err, "scan quiz")
	}
	return quiz, nil
}

func (s *Store) scanParticipant(row rowScanner) (domain.Participant, error) {
	var p domain.Participant
	err := row.Scan(&p.ID, &p.QuizID, &p.Name, &p.Email, &p.Status, &p.Score, &p.MaxScore,
		&p.JoinedAt, &p.StartedAt, &p.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	if err != nil {
		return domain.Participant{}, domain.Transientf(err, "scan participant")
	}
	return p, nil
}
