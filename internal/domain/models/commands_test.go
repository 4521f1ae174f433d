package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in       string
		wantType CommandType
		wantArgs []string
	}{
		{in: "/bottles Cust42 5", wantType: CommandBottles, wantArgs: []string{"Cust42", "5"}},
		{in: "  Delivery abc 2 ", wantType: CommandBottles, wantArgs: []string{"abc", "2"}},
		{in: "/PAY x 10.5", wantType: CommandPay, wantArgs: []string{"x", "10.5"}},
		{in: "due x", wantType: CommandBalance, wantArgs: []string{"x"}},
		{in: "/report", wantType: CommandReport},
		{in: "/help", wantType: CommandHelp},
		{in: "", wantType: CommandUnknown},
		{in: "good morning", wantType: CommandUnknown, wantArgs: []string{"morning"}},
	}

	for _, tt := range tests {
		cmd := ParseCommand(tt.in)
		assert.Equal(t, tt.wantType, cmd.Type, "input %q", tt.in)
		assert.Equal(t, tt.wantArgs, cmd.Args, "input %q", tt.in)
		assert.Equal(t, tt.in, cmd.Raw)
	}
}
