package grid

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"github.com/pkg/errors"
	"github.com/zeu5/tabular-marl/types"
)

// Position of an agent on the grid
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

var _ types.State = Position{}

func (p Position) Hash() uint64 {
	bs, _ := p.MarshalBinary()
	h := fnv.New64a()
	h.Write(bs)
	return h.Sum64()
}

func (p Position) Equal(other types.State) bool {
	o, ok := other.(Position)
	return ok && o.Row == p.Row && o.Col == p.Col
}

func (p Position) Copy() types.State {
	return p
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.Row, p.Col)
}

func (p Position) MarshalBinary() ([]byte, error) {
	bs := make([]byte, 16)
	binary.BigEndian.PutUint64(bs[:8], uint64(int64(p.Row)))
	binary.BigEndian.PutUint64(bs[8:], uint64(int64(p.Col)))
	return bs, nil
}

// DecodePosition is the inverse of MarshalBinary
func DecodePosition(bs []byte) (types.State, error) {
	if len(bs) != 16 {
		return nil, errors.Errorf("invalid position encoding of length %d", len(bs))
	}
	return Position{
		Row: int(int64(binary.BigEndian.Uint64(bs[:8]))),
		Col: int(int64(binary.BigEndian.Uint64(bs[8:]))),
	}, nil
}

// Movement actions of the grid
const (
	Stay types.Action = iota
	Up
	Down
	Left
	Right
)

var movementNames = []string{"Stay", "Up", "Down", "Left", "Right"}

// MovementName returns the name of the action
func MovementName(a types.Action) string {
	if a < 0 || int(a) >= len(movementNames) {
		return "Unknown"
	}
	return movementNames[a]
}

// move applies the action, staying within the height x width bounds
func move(p Position, a types.Action, height, width int) Position {
	next := p
	switch a {
	case Up:
		next.Row = max(0, p.Row-1)
	case Down:
		next.Row = min(height-1, p.Row+1)
	case Left:
		next.Col = max(0, p.Col-1)
	case Right:
		next.Col = min(width-1, p.Col+1)
	}
	return next
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
