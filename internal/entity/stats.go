package entity

// StatsEvent - a session lifecycle transition that is counted.
type StatsEvent string

const (
	StatsStarted   StatsEvent = "started"
	StatsWon       StatsEvent = "won"
	StatsDraw      StatsEvent = "draw"
	StatsAbandoned StatsEvent = "abandoned"
)

type Stats struct {
	Started   int64 `json:"started"`
	Won       int64 `json:"won"`
	Draw      int64 `json:"draw"`
	Abandoned int64 `json:"abandoned"`
}
