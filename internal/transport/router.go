// Package transport routes decoded protocol lines into the quiz service.
// The TCP and WebSocket carriers share this dispatch so the two surfaces
// cannot drift apart.
package transport

import (
	"github.com/Michaszek224/sk2kahoot/internal/app"
	"github.com/Michaszek224/sk2kahoot/internal/protocol"
)

// HandleLine decodes and dispatches one line for a connection. The returned
// reply is empty for commands that have no direct response (START and ANSWER
// answer through broadcasts only).
func HandleLine(svc *app.Service, connID, line string) string {
	cmd, derr := protocol.Decode(line)
	if derr != nil {
		return derr.WireLine()
	}

	switch c := cmd.(type) {
	case protocol.CreateCommand:
		code, err := svc.Create(connID)
		if err != nil {
			return protocol.ErrorLine(err)
		}
		return protocol.FormatQuizCode(code)
	case protocol.JoinCommand:
		if err := svc.Join(connID, c.Code, c.Name); err != nil {
			return protocol.ErrorLine(err)
		}
		return protocol.FormatJoined(c.Code)
	case protocol.AddQuestionCommand:
		if err := svc.AddQuestion(connID, c.Question); err != nil {
			return protocol.ErrorLine(err)
		}
		return protocol.MsgQuestionAdded
	case protocol.StartCommand:
		if err := svc.Start(connID); err != nil {
			return protocol.ErrorLine(err)
		}
		return ""
	case protocol.AnswerCommand:
		if err := svc.Answer(connID, c.Index); err != nil {
			return protocol.ErrorLine(err)
		}
		return ""
	}
	return protocol.ErrorLine(&protocol.DecodeError{Message: "Unknown command"})
}
