package match

import (
	"errors"
	"sort"

	"truco-service/internal/service/room"
	appErr "truco-service/pkg/errors"
	"truco-service/pkg/logger"

	"go.uber.org/zap"
)

// Service seats players in public rooms that are still gathering a table.
type Service struct {
	rooms room.Registry
}

func NewService(rooms room.Registry) *Service {
	return &Service{rooms: rooms}
}

// QuickJoin seats name in the open public room with the most humans,
// oldest first, and opens a new room when none has a free seat.
func (s *Service) QuickJoin(name string) (room.Room, room.Player, error) {
	for _, candidate := range s.candidates() {
		rm, player, err := s.rooms.Join(candidate.Code, name, "")
		if err == nil {
			logger.Log.Info("quick match joined room",
				zap.String("room", rm.Code),
				zap.Int("seat", player.Seat),
			)
			return rm, player, nil
		}
		// Another request took the last seat or the table started.
		if errors.Is(err, appErr.ErrRoomFull) || errors.Is(err, appErr.ErrGameInProgress) || errors.Is(err, appErr.ErrRoomNotFound) {
			continue
		}
		return room.Room{}, room.Player{}, err
	}

	created, err := s.rooms.Create(room.GameTypeTruco, "")
	if err != nil {
		return room.Room{}, room.Player{}, err
	}
	logger.Log.Info("quick match opened room", zap.String("room", created.Code))
	return s.rooms.Join(created.Code, name, "")
}

func (s *Service) candidates() []room.Room {
	var open []room.Room
	for _, r := range s.rooms.List() {
		if r.Private || r.InGame || r.Full() || r.GameType != room.GameTypeTruco {
			continue
		}
		open = append(open, r)
	}
	sort.SliceStable(open, func(i, j int) bool {
		return open[i].HumanCount() > open[j].HumanCount()
	})
	return open
}
