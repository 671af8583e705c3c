package entity

const (
	EventGameStart            = "gameStart"
	EventYourTurn             = "yourTurn"
	EventOpponentTurn         = "opponentTurn"
	EventGameOver             = "gameOver"
	EventInvalidMove          = "invalidMove"
	EventOpponentDisconnected = "opponentDisconnected"
)

const (
	MessageWin  = "You win!"
	MessageLose = "You lose!"
	MessageDraw = "It's a draw!"
)

// Event is an outbound message for a single connection.
type Event interface {
	EventName() string
}

type GameStart struct {
	Symbol    Symbol    `json:"symbol"`
	SessionID SessionID `json:"sessionId"`
}

type YourTurn struct {
	Board Board `json:"board"`
}

type OpponentTurn struct {
	Board Board `json:"board"`
}

type GameOver struct {
	Message string `json:"message"`
}

type InvalidMove struct{}

type OpponentDisconnected struct{}

func (GameStart) EventName() string            { return EventGameStart }
func (YourTurn) EventName() string             { return EventYourTurn }
func (OpponentTurn) EventName() string         { return EventOpponentTurn }
func (GameOver) EventName() string             { return EventGameOver }
func (InvalidMove) EventName() string          { return EventInvalidMove }
func (OpponentDisconnected) EventName() string { return EventOpponentDisconnected }
