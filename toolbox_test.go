package cairn_test

import (
	"testing"

	"github.com/cairnhq/cairn"
	"github.com/stretchr/testify/require"
)

func TestToolboxFilter(t *testing.T) {
	for _, tc := range []struct {
		name   string
		input  cairn.Toolbox
		output cairn.Toolbox
	}{
		{"Nil", nil, make(cairn.Toolbox, 0)},
		{"Zero", make(cairn.Toolbox, 0), make(cairn.Toolbox, 0)},
		{"Filter-All", make(cairn.Toolbox, 4), make(cairn.Toolbox, 0)},
		{
			"From-4-To-1",
			cairn.Toolbox{
				{}, {}, {},
				{Actions: make([]cairn.ToolAction, 1)},
			},
			cairn.Toolbox{{Actions: make([]cairn.ToolAction, 1)}},
		},
		{
			"Keep-All",
			cairn.Toolbox{
				{Actions: make([]cairn.ToolAction, 1)},
				{Actions: make([]cairn.ToolAction, 1)},
			},
			cairn.Toolbox{
				{Actions: make([]cairn.ToolAction, 1)},
				{Actions: make([]cairn.ToolAction, 1)},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.output, tc.input.Filter())
		})
	}
}

func TestToolRender(t *testing.T) {
	for _, tc := range []struct {
		name   string
		input  []cairn.ToolAction
		output bool
	}{
		{"Nil", nil, false},
		{"Zero", make([]cairn.ToolAction, 0), false},
		{"Has-Some", make([]cairn.ToolAction, 3), true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			actual := cairn.Tool{Actions: tc.input}
			require.Equal(t, tc.output, actual.Render())
		})
	}
}
