package gen

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

var Module = fx.Module("snowflake", fx.Provide(NewNode))

// NodeID identifies this process in generated ids.
type NodeID int64

type nodeParams struct {
	fx.In
	ID NodeID `optional:"true"`
}

func NewNode(p nodeParams) (*snowflake.Node, error) {
	id := int64(p.ID)
	if id == 0 {
		id = 1
	}
	return snowflake.NewNode(id)
}
