package discord

type BotInfo struct {
	Version        string `json:"version"`
	Commit         string `json:"commit"`
	Season         int    `json:"season"`
	TotalPlayers   int64  `json:"totalPlayers"`
	TotalMatches   int64  `json:"totalMatches"`
	ActiveSessions int    `json:"activeSessions"`
}

// embed colors
const (
	ColorGreen     = 3066993
	ColorDarkGreen = 2067276
	ColorGold      = 15844367
	ColorRed       = 15158332
	ColorBlue      = 3447003
	ColorPurple    = 10181046
	ColorDarkGrey  = 9807270
)
