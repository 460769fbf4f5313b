package domain

import "errors"

var (
	// ErrSessionNotFound is returned for an unknown or dead quiz code.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrNotMember is returned when a connection acts before joining or creating a quiz.
	ErrNotMember = errors.New("connection not part of any quiz")
	// ErrAlreadyMember is returned when a connection tries to join while already in a quiz.
	ErrAlreadyMember = errors.New("connection already in a quiz")
	// ErrEmptyName rejects blank display names on join.
	ErrEmptyName = errors.New("display name is empty")
	// ErrNameTaken rejects a display name already used in the session.
	ErrNameTaken = errors.New("display name already taken")
	// ErrOnlyCreatorAdds guards question authoring.
	ErrOnlyCreatorAdds = errors.New("only the quiz creator can add questions")
	// ErrOnlyCreatorStarts guards starting the quiz.
	ErrOnlyCreatorStarts = errors.New("only the quiz creator can start the quiz")
	// ErrQuizStarted rejects question authoring after the lobby phase.
	ErrQuizStarted = errors.New("quiz already started")
	// ErrQuizNotStarted rejects answers sent while the quiz is still in the lobby.
	ErrQuizNotStarted = errors.New("quiz has not started")
	// ErrQuizEnded rejects commands against an ended session.
	ErrQuizEnded = errors.New("quiz already ended")
	// ErrNoQuestions rejects starting a quiz with an empty question set.
	ErrNoQuestions = errors.New("quiz has no questions")
)
