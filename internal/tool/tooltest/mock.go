// Package tooltest provides test helpers and mocks for the tool package.
package tooltest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/opsgate/opsgate/internal/tool"
)

// MockTool is a configurable mock implementation of tool.Tool.
type MockTool struct {
	NameValue    string
	RiskValue    tool.Risk
	IdemValue    bool
	ValidateFunc func(ctx context.Context, args json.RawMessage) error
	ExecuteFunc  func(ctx context.Context, args json.RawMessage) (json.RawMessage, error)

	mu           sync.Mutex
	ExecuteCalls int
}

// Name implements tool.Tool.
func (m *MockTool) Name() string {
	if m.NameValue != "" {
		return m.NameValue
	}
	return "mock_tool"
}

// Description implements tool.Tool.
func (m *MockTool) Description() string { return "a mock tool" }

// Method implements tool.Tool.
func (m *MockTool) Method() string { return "POST" }

// Path implements tool.Tool.
func (m *MockTool) Path() string { return "/tools/" + m.Name() }

// Risk implements tool.Tool.
func (m *MockTool) Risk() tool.Risk {
	if m.RiskValue != "" {
		return m.RiskValue
	}
	return tool.RiskLow
}

// Idempotent implements tool.Tool.
func (m *MockTool) Idempotent() bool { return m.IdemValue }

// InputSchema implements tool.Tool.
func (m *MockTool) InputSchema() json.RawMessage { return json.RawMessage(`{}`) }

// OutputSchema implements tool.Tool.
func (m *MockTool) OutputSchema() json.RawMessage { return json.RawMessage(`{}`) }

// Validate implements tool.Validator. It delegates to ValidateFunc when set,
// otherwise accepts everything.
func (m *MockTool) Validate(ctx context.Context, args json.RawMessage) error {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, args)
	}
	return nil
}

// Execute implements tool.Tool. It counts calls and delegates to ExecuteFunc
// when set, otherwise returns {"ok":true}.
func (m *MockTool) Execute(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	m.mu.Lock()
	m.ExecuteCalls++
	m.mu.Unlock()

	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, args)
	}
	return json.RawMessage(`{"ok":true}`), nil
}

// Calls returns how many times Execute was invoked.
func (m *MockTool) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ExecuteCalls
}
