package history

import (
	"context"
	"encoding/json"

	"truco-service/internal/model"
	"truco-service/internal/service/game"
	"truco-service/internal/truco"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service keeps the log of finished hands and won sets.
type Service struct {
	db *gorm.DB
}

type HandListResult struct {
	Items []model.HandRecord `json:"items"`
	Total int64              `json:"total"`
}

type playerEntry struct {
	Seat  int        `json:"seat"`
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Team  truco.Team `json:"team"`
	IsBot bool       `json:"isBot"`
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// HandFinished records the hand and, when it won a set, the set. A report
// for a hand already on record is ignored.
func (s *Service) HandFinished(ctx context.Context, report game.HandReport) error {
	out := report.Outcome
	players := make([]playerEntry, 0, truco.Seats)
	var winners []string
	for seat, m := range report.Members {
		team := truco.TeamForSeat(seat)
		players = append(players, playerEntry{Seat: seat, ID: m.ID, Name: m.Name, Team: team, IsBot: m.IsBot})
		if out.SetWinner != truco.NoTeam && team == out.SetWinner {
			winners = append(winners, m.Name)
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		hand := model.HandRecord{
			RoomCode:    report.RoomCode,
			HandNumber:  out.HandNumber,
			WinnerTeam:  string(out.Winner),
			Stake:       out.Awarded,
			Reason:      out.Reason,
			RoundsJSON:  mustJSON(out.RoundResults),
			PlayersJSON: mustJSON(players),
			GamesTeam1:  out.Games.Team1,
			GamesTeam2:  out.Games.Team2,
			SetsTeam1:   out.Sets.Team1,
			SetsTeam2:   out.Sets.Team2,
			FinishedAt:  report.FinishedAt,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&hand)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 || out.SetWinner == truco.NoTeam {
			return nil
		}
		set := model.SetRecord{
			RoomCode:    report.RoomCode,
			HandNumber:  out.HandNumber,
			WinnerTeam:  string(out.SetWinner),
			SetsTeam1:   out.Sets.Team1,
			SetsTeam2:   out.Sets.Team2,
			WinnersJSON: mustJSON(winners),
		}
		return tx.Create(&set).Error
	})
}

func (s *Service) ListHands(ctx context.Context, roomCode string, page, size int) (*HandListResult, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	var total int64
	if err := s.db.WithContext(ctx).
		Model(&model.HandRecord{}).
		Where("room_code = ?", roomCode).
		Count(&total).Error; err != nil {
		return nil, err
	}

	hands := []model.HandRecord{}
	if total > 0 {
		offset := (page - 1) * size
		if err := s.db.WithContext(ctx).
			Where("room_code = ?", roomCode).
			Order("hand_number DESC").
			Limit(size).
			Offset(offset).
			Find(&hands).Error; err != nil {
			return nil, err
		}
	}
	return &HandListResult{Items: hands, Total: total}, nil
}

func (s *Service) ListSets(ctx context.Context, roomCode string) ([]model.SetRecord, error) {
	sets := []model.SetRecord{}
	if err := s.db.WithContext(ctx).
		Where("room_code = ?", roomCode).
		Order("id ASC").
		Find(&sets).Error; err != nil {
		return nil, err
	}
	return sets, nil
}

func mustJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("null")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(raw)
}
