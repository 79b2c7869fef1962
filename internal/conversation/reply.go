package conversation

import "boulderbot/internal/models"

// Button is one inline keyboard button.
type Button struct {
	Text string
	Data string
}

// Reply is what the controller wants shown after handling an input.
//
// An empty Text means the current message stays as it is. Notice is a short
// toast shown for button presses. State is the conversation state after the
// input was handled.
type Reply struct {
	Text    string
	Buttons [][]Button
	Notice  string
	State   models.State
}

// HasMessage reports whether the reply replaces or sends a message.
func (r Reply) HasMessage() bool {
	return r.Text != ""
}

func button(text string, ev Event) Button {
	return Button{Text: text, Data: ev.Data()}
}

func noopButton(text string) Button {
	return Button{Text: text, Data: tokenNoop}
}
