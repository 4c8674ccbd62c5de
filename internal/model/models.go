package model

import (
	"time"

	"gorm.io/datatypes"
)

// HandRecord is one finished hand. Hands are unique per room and number.
type HandRecord struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	RoomCode    string `gorm:"size:16;not null;uniqueIndex:idx_room_hand"`
	HandNumber  int    `gorm:"not null;uniqueIndex:idx_room_hand"`
	WinnerTeam  string `gorm:"size:8"` // team1/team2, empty when void
	Stake       int    `gorm:"not null;default:0"`
	Reason      string `gorm:"size:16;not null"` // rounds/rejection/void
	RoundsJSON  datatypes.JSON
	PlayersJSON datatypes.JSON
	GamesTeam1  int
	GamesTeam2  int
	SetsTeam1   int
	SetsTeam2   int
	FinishedAt  time.Time
	CreatedAt   time.Time
}

type SetRecord struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	RoomCode    string `gorm:"size:16;not null;index"`
	HandNumber  int    `gorm:"not null"`
	WinnerTeam  string `gorm:"size:8;not null"`
	SetsTeam1   int
	SetsTeam2   int
	WinnersJSON datatypes.JSON // player names on the winning team
	CreatedAt   time.Time
}
