package game

import (
	"encoding/json"
	"fmt"

	"truco-service/internal/truco"
	appErr "truco-service/pkg/errors"
)

type ActionType string

const (
	ActionReady           ActionType = "ready"
	ActionRejoin          ActionType = "rejoin"
	ActionPing            ActionType = "ping"
	ActionPlayCard        ActionType = "playCard"
	ActionRequestTruco    ActionType = "requestTruco"
	ActionRespondTruco    ActionType = "respondTruco"
	ActionBotTurnComplete ActionType = "botTurnComplete"
)

// Action is the closed set of inbound room actions.
type Action interface {
	Type() ActionType
	isAction()
}

type Ready struct{}

type Rejoin struct{}

type Ping struct{}

// SeatRef names the seat an action is submitted for. Bot is set when a
// human client relays the action on behalf of a bot seat.
type SeatRef struct {
	PlayerIndex int
	Bot         bool
}

type PlayCard struct {
	SeatRef
	CardIndex int
}

type RequestTruco struct {
	SeatRef
}

type RespondTruco struct {
	SeatRef
	Response truco.Response
}

type BotTurnComplete struct {
	PlayerIndex int
	RoundNumber int
}

func (Ready) Type() ActionType           { return ActionReady }
func (Rejoin) Type() ActionType          { return ActionRejoin }
func (Ping) Type() ActionType            { return ActionPing }
func (PlayCard) Type() ActionType        { return ActionPlayCard }
func (RequestTruco) Type() ActionType    { return ActionRequestTruco }
func (RespondTruco) Type() ActionType    { return ActionRespondTruco }
func (BotTurnComplete) Type() ActionType { return ActionBotTurnComplete }

func (Ready) isAction()           {}
func (Rejoin) isAction()          {}
func (Ping) isAction()            {}
func (PlayCard) isAction()        {}
func (RequestTruco) isAction()    {}
func (RespondTruco) isAction()    {}
func (BotTurnComplete) isAction() {}

type actionPayload struct {
	PlayerIndex    *int   `json:"playerIndex"`
	BotPlayerIndex *int   `json:"botPlayerIndex"`
	CardIndex      *int   `json:"cardIndex"`
	Response       string `json:"response"`
	RoundNumber    int    `json:"roundNumber"`
}

func (p actionPayload) seat() (SeatRef, error) {
	switch {
	case p.BotPlayerIndex != nil:
		return SeatRef{PlayerIndex: *p.BotPlayerIndex, Bot: true}, nil
	case p.PlayerIndex != nil:
		return SeatRef{PlayerIndex: *p.PlayerIndex}, nil
	default:
		return SeatRef{}, fmt.Errorf("%w: playerIndex is required", appErr.ErrInvalidPlayer)
	}
}

// DecodeAction parses a wire message of the given type.
func DecodeAction(typ string, data json.RawMessage) (Action, error) {
	var p actionPayload
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", typ, err)
		}
	}

	switch ActionType(typ) {
	case ActionReady:
		return Ready{}, nil
	case ActionRejoin:
		return Rejoin{}, nil
	case ActionPing:
		return Ping{}, nil
	case ActionPlayCard:
		ref, err := p.seat()
		if err != nil {
			return nil, err
		}
		if p.CardIndex == nil {
			return nil, fmt.Errorf("%w: cardIndex is required", appErr.ErrInvalidCardIndex)
		}
		return PlayCard{SeatRef: ref, CardIndex: *p.CardIndex}, nil
	case ActionRequestTruco:
		ref, err := p.seat()
		if err != nil {
			return nil, err
		}
		return RequestTruco{SeatRef: ref}, nil
	case ActionRespondTruco:
		ref, err := p.seat()
		if err != nil {
			return nil, err
		}
		resp, err := truco.ParseResponse(p.Response)
		if err != nil {
			return nil, err
		}
		return RespondTruco{SeatRef: ref, Response: resp}, nil
	case ActionBotTurnComplete:
		ref, err := p.seat()
		if err != nil {
			return nil, err
		}
		return BotTurnComplete{PlayerIndex: ref.PlayerIndex, RoundNumber: p.RoundNumber}, nil
	default:
		return nil, fmt.Errorf("%w: %s", appErr.ErrUnknownAction, typ)
	}
}
