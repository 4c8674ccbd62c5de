package game

import (
	"context"
	"errors"
	"time"

	"truco-service/internal/truco"
)

// HandReport is published once per finished hand.
type HandReport struct {
	RoomCode   string
	Outcome    truco.HandOutcome
	Members    [truco.Seats]truco.Member
	FinishedAt time.Time
}

//go:generate mockgen -source=sink.go -destination=sink_mock_test.go -package=game

// ResultSink receives finished hands outside the room lock.
type ResultSink interface {
	HandFinished(ctx context.Context, report HandReport) error
}

// MultiSink fans a report out to every sink and joins their errors.
type MultiSink []ResultSink

func (m MultiSink) HandFinished(ctx context.Context, report HandReport) error {
	var errs []error
	for _, s := range m {
		if err := s.HandFinished(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
