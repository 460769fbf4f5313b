// Package protocol implements the newline-delimited text protocol spoken by
// quiz clients. Decoding returns a typed command or a DecodeError carrying
// the exact wire message, so malformed input never reaches the core.
package protocol

import (
	"errors"
	"strconv"
	"strings"

	"github.com/Michaszek224/sk2kahoot/internal/domain"
)

// Push messages emitted by the core.
const (
	MsgQuizStarted   = "Quiz has started!"
	MsgQuizEnded     = "Quiz has ended!"
	MsgQuestionAdded = "QUESTION_ADDED"
)

// Command is one decoded client command.
type Command interface{ isCommand() }

type CreateCommand struct{}

type JoinCommand struct {
	Code string
	Name string
}

type AddQuestionCommand struct {
	Question domain.Question
}

type StartCommand struct{}

type AnswerCommand struct {
	Index int
}

func (CreateCommand) isCommand()      {}
func (JoinCommand) isCommand()        {}
func (AddQuestionCommand) isCommand() {}
func (StartCommand) isCommand()       {}
func (AnswerCommand) isCommand()      {}

// DecodeError reports malformed input with its client-facing message.
type DecodeError struct {
	Message string
}

func (e *DecodeError) Error() string { return e.Message }

// WireLine is the full ERROR response for this decode failure.
func (e *DecodeError) WireLine() string { return "ERROR:" + e.Message }

func decodeErr(message string) (Command, *DecodeError) {
	return nil, &DecodeError{Message: message}
}

// Decode parses one protocol line into a typed command.
func Decode(line string) (Command, *DecodeError) {
	line = strings.TrimRight(line, "\r\n")
	verb, rest, hasRest := strings.Cut(line, ":")

	switch verb {
	case "CREATE":
		if hasRest {
			return decodeErr("Unknown command")
		}
		return CreateCommand{}, nil
	case "JOIN":
		code, name, hasName := strings.Cut(rest, ":")
		if !hasRest || code == "" {
			return decodeErr("Invalid quiz code")
		}
		if !hasName || name == "" {
			return decodeErr("Name cannot be empty")
		}
		return JoinCommand{Code: code, Name: name}, nil
	case "ADD_QUESTION":
		if !hasRest {
			return decodeErr("Invalid question format")
		}
		return decodeAddQuestion(rest)
	case "START":
		if hasRest {
			return decodeErr("Unknown command")
		}
		return StartCommand{}, nil
	case "ANSWER":
		index, err := strconv.Atoi(rest)
		if !hasRest || err != nil || index < 0 || index >= domain.AnswerCount {
			return decodeErr("Invalid answer format")
		}
		return AnswerCommand{Index: index}, nil
	}
	return decodeErr("Unknown command")
}

// decodeAddQuestion parses "<content>:<a1>:<a2>:<a3>:<a4>:<correct>:<timeLimit>".
// Question content and answers cannot contain colons.
func decodeAddQuestion(rest string) (Command, *DecodeError) {
	parts := strings.Split(rest, ":")
	if parts[0] == "" || len(parts) > domain.AnswerCount+3 {
		return decodeErr("Invalid question format")
	}
	if len(parts) < domain.AnswerCount+1 {
		return decodeErr("Invalid answer format")
	}

	q := domain.Question{Content: parts[0]}
	for i := 0; i < domain.AnswerCount; i++ {
		if parts[i+1] == "" {
			return decodeErr("Invalid answer format")
		}
		q.Answers[i] = parts[i+1]
	}

	if len(parts) < domain.AnswerCount+2 {
		return decodeErr("Missing correct answer")
	}
	correct, err := strconv.Atoi(parts[domain.AnswerCount+1])
	if err != nil || correct < 0 || correct >= domain.AnswerCount {
		return decodeErr("Invalid correct answer number")
	}
	q.CorrectIndex = correct

	if len(parts) < domain.AnswerCount+3 {
		return decodeErr("Missing time limit")
	}
	limit, err := strconv.Atoi(parts[domain.AnswerCount+2])
	if err != nil {
		return decodeErr("Missing time limit")
	}
	if limit <= 0 {
		return decodeErr("Time limit must be positive")
	}
	q.TimeLimitSec = limit

	return AddQuestionCommand{Question: q}, nil
}

// FormatQuizCode is the CREATE success response.
func FormatQuizCode(code string) string { return "QUIZ_CODE:" + code }

// FormatJoined is the JOIN success response.
func FormatJoined(code string) string { return "JOINED:" + code }

// FormatQuestion renders a question broadcast line.
func FormatQuestion(q domain.Question) string {
	parts := make([]string, 0, domain.AnswerCount+3)
	parts = append(parts, "QUESTION", q.Content)
	parts = append(parts, q.Answers[:]...)
	parts = append(parts, strconv.Itoa(q.TimeLimitSec))
	return strings.Join(parts, ":")
}

// FormatScores renders a score snapshot, one "name:score;" entry per participant.
func FormatScores(entries []domain.ScoreEntry) string {
	var b strings.Builder
	b.WriteString("SCORES:")
	for _, entry := range entries {
		b.WriteString(entry.DisplayName)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(entry.Score))
		b.WriteByte(';')
	}
	return b.String()
}

// FormatPlayerAnswer renders the creator-only answer mirror.
func FormatPlayerAnswer(name string, index int) string {
	return "PLAYER_ANSWER:" + name + ":" + strconv.Itoa(index)
}

// ErrorLine maps a core error to its wire ERROR response.
func ErrorLine(err error) string {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.WireLine()
	}
	switch {
	case errors.Is(err, domain.ErrEmptyName):
		return "ERROR:Name cannot be empty"
	case errors.Is(err, domain.ErrSessionNotFound):
		return "ERROR:Invalid quiz code"
	case errors.Is(err, domain.ErrNameTaken):
		return "ERROR:Name already taken"
	case errors.Is(err, domain.ErrNotMember):
		return "ERROR:Not part of any quiz"
	case errors.Is(err, domain.ErrAlreadyMember):
		return "ERROR:Already in a quiz"
	case errors.Is(err, domain.ErrOnlyCreatorAdds):
		return "ERROR:Only quiz creator can add questions"
	case errors.Is(err, domain.ErrOnlyCreatorStarts):
		return "ERROR:Only quiz creator can start the quiz"
	case errors.Is(err, domain.ErrQuizStarted):
		return "ERROR:Quiz already started"
	case errors.Is(err, domain.ErrQuizNotStarted):
		return "ERROR:Quiz has not started"
	case errors.Is(err, domain.ErrQuizEnded):
		return "ERROR:Quiz already ended"
	case errors.Is(err, domain.ErrNoQuestions):
		return "ERROR:Cannot start quiz without questions"
	}
	return "ERROR:" + err.Error()
}
