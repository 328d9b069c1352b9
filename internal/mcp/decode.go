package mcp

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tabvault/tabvault/internal/errors"
)

// decode binds a tool call's arguments to a typed request struct. A bind
// failure is always the caller's fault, so it comes back as an
// INVALID_REQUEST VaultError ready for errorResult.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var input T
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return input, errors.NewInvalidRequest("invalid tool arguments: " + err.Error())
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		return input, errors.NewInvalidRequest("invalid tool arguments: " + err.Error())
	}
	return input, nil
}
