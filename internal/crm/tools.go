package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opsgate/opsgate/internal/event"
	"github.com/opsgate/opsgate/internal/tool"
)

// def is a declaratively described tool: metadata, a pre-execution check,
// and a handler.
type def struct {
	name        string
	description string
	risk        tool.Risk
	idempotent  bool
	in          json.RawMessage
	out         json.RawMessage
	check       func(ctx context.Context, args json.RawMessage) error
	run         func(ctx context.Context, args json.RawMessage) (json.RawMessage, error)
}

func (d *def) Name() string                  { return d.name }
func (d *def) Description() string           { return d.description }
func (d *def) Method() string                { return "POST" }
func (d *def) Path() string                  { return "/tools/" + d.name }
func (d *def) Risk() tool.Risk               { return d.risk }
func (d *def) Idempotent() bool              { return d.idempotent }
func (d *def) InputSchema() json.RawMessage  { return d.in }
func (d *def) OutputSchema() json.RawMessage { return d.out }

// Validate implements tool.Validator.
func (d *def) Validate(ctx context.Context, args json.RawMessage) error {
	if d.check == nil {
		return nil
	}
	return d.check(ctx, args)
}

func (d *def) Execute(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	return d.run(ctx, args)
}

// Tools builds the CRM tool set over the given store. The events publisher
// receives outbound message notifications; pass nil to discard them.
func Tools(store Store, events event.Publisher) []tool.Tool {
	if events == nil {
		events = event.NopPublisher{}
	}
	return []tool.Tool{
		searchCustomerTool(store),
		createTicketTool(store),
		updateCustomerStatusTool(store),
		sendMessageTool(events),
		incidentImpactTool(store),
	}
}

type searchInput struct {
	Query string `json:"query"`
}

func parseSearchInput(args json.RawMessage) (searchInput, error) {
	var in searchInput
	if err := json.Unmarshal(args, &in); err != nil {
		return searchInput{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	in.Query = strings.TrimSpace(in.Query)
	if in.Query == "" {
		return searchInput{}, fmt.Errorf("%w: query must not be empty", ErrInvalidInput)
	}
	return in, nil
}

func searchCustomerTool(store Store) tool.Tool {
	return &def{
		name:        "search_customer",
		description: "Search customers by name substring.",
		risk:        tool.RiskLow,
		in: json.RawMessage(`{
			"type": "object",
			"properties": {"query": {"type": "string", "minLength": 1}},
			"required": ["query"]
		}`),
		out: json.RawMessage(`{
			"type": "object",
			"properties": {"results": {"type": "array"}},
			"required": ["results"]
		}`),
		check: func(_ context.Context, args json.RawMessage) error {
			_, err := parseSearchInput(args)
			return err
		},
		run: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
			in, err := parseSearchInput(args)
			if err != nil {
				return nil, err
			}

			results, err := store.SearchCustomers(ctx, in.Query)
			if err != nil {
				return nil, err
			}
			if results == nil {
				results = []Customer{}
			}
			return json.Marshal(map[string]any{"results": results})
		},
	}
}

type ticketInput struct {
	CustomerID  int64  `json:"customer_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

func parseTicketInput(args json.RawMessage) (ticketInput, error) {
	var in ticketInput
	if err := json.Unmarshal(args, &in); err != nil {
		return ticketInput{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	in.Title = strings.TrimSpace(in.Title)
	if len(in.Title) < 3 {
		return ticketInput{}, fmt.Errorf("%w: title must be at least 3 characters", ErrInvalidInput)
	}
	in.Description = strings.TrimSpace(in.Description)
	in.Priority = strings.ToLower(strings.TrimSpace(in.Priority))
	if in.Priority == "" {
		in.Priority = "medium"
	}
	return in, nil
}

func createTicketTool(store Store) tool.Tool {
	return &def{
		name:        "create_ticket",
		description: "Create a ticket for a customer. Supports Idempotency-Key header.",
		risk:        tool.RiskMedium,
		idempotent:  true,
		in: json.RawMessage(`{
			"type": "object",
			"properties": {
				"customer_id": {"type": "integer"},
				"title": {"type": "string", "minLength": 3},
				"description": {"type": "string"},
				"priority": {"type": "string", "default": "medium"}
			},
			"required": ["customer_id", "title"]
		}`),
		out: json.RawMessage(`{
			"type": "object",
			"properties": {"ticket": {"type": "object"}},
			"required": ["ticket"]
		}`),
		check: func(ctx context.Context, args json.RawMessage) error {
			in, err := parseTicketInput(args)
			if err != nil {
				return err
			}
			_, err = store.GetCustomer(ctx, in.CustomerID)
			return err
		},
		run: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
			in, err := parseTicketInput(args)
			if err != nil {
				return nil, err
			}

			t, err := store.CreateTicket(ctx, Ticket{
				CustomerID:  in.CustomerID,
				Title:       in.Title,
				Description: in.Description,
				Priority:    in.Priority,
			})
			if err != nil {
				return nil, err
			}
			return json.Marshal(map[string]any{"ticket": t})
		},
	}
}

type statusInput struct {
	CustomerID int64  `json:"customer_id"`
	NewStatus  string `json:"new_status"`
}

func parseStatusInput(args json.RawMessage) (statusInput, error) {
	var in statusInput
	if err := json.Unmarshal(args, &in); err != nil {
		return statusInput{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	in.NewStatus = strings.TrimSpace(in.NewStatus)
	if len(in.NewStatus) < 2 {
		return statusInput{}, fmt.Errorf("%w: new_status must be at least 2 characters", ErrInvalidInput)
	}
	return in, nil
}

func updateCustomerStatusTool(store Store) tool.Tool {
	return &def{
		name:        "update_customer_status",
		description: "Update a customer's status. Requires human confirmation unless confirm=true.",
		risk:        tool.RiskHigh,
		in: json.RawMessage(`{
			"type": "object",
			"properties": {
				"customer_id": {"type": "integer"},
				"new_status": {"type": "string", "minLength": 2},
				"confirm": {"type": "boolean", "default": false}
			},
			"required": ["customer_id", "new_status"]
		}`),
		out: json.RawMessage(`{
			"type": "object",
			"properties": {
				"requires_confirmation": {"type": "boolean"},
				"pending_action_id": {"type": ["string", "null"]},
				"customer": {"type": ["object", "null"]}
			}
		}`),
		check: func(ctx context.Context, args json.RawMessage) error {
			in, err := parseStatusInput(args)
			if err != nil {
				return err
			}
			// The customer must exist before the action is parked for
			// approval; it is checked again at approval time.
			_, err = store.GetCustomer(ctx, in.CustomerID)
			return err
		},
		run: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
			in, err := parseStatusInput(args)
			if err != nil {
				return nil, err
			}

			c, err := store.UpdateCustomerStatus(ctx, in.CustomerID, in.NewStatus)
			if err != nil {
				return nil, err
			}
			return json.Marshal(map[string]any{"customer": c})
		},
	}
}

type messageInput struct {
	Channel string `json:"channel"`
	Message string `json:"message"`
}

func parseMessageInput(args json.RawMessage) (messageInput, error) {
	var in messageInput
	if err := json.Unmarshal(args, &in); err != nil {
		return messageInput{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if strings.TrimSpace(in.Channel) == "" || strings.TrimSpace(in.Message) == "" {
		return messageInput{}, fmt.Errorf("%w: channel and message must not be empty", ErrInvalidInput)
	}
	return in, nil
}

func sendMessageTool(events event.Publisher) tool.Tool {
	return &def{
		name:        "send_message",
		description: "Send a message to a channel (broadcast on the operator feed).",
		risk:        tool.RiskLow,
		in: json.RawMessage(`{
			"type": "object",
			"properties": {
				"channel": {"type": "string", "minLength": 1},
				"message": {"type": "string", "minLength": 1}
			},
			"required": ["channel", "message"]
		}`),
		out: json.RawMessage(`{
			"type": "object",
			"properties": {"sent": {"type": "boolean"}, "channel": {"type": "string"}},
			"required": ["sent", "channel"]
		}`),
		check: func(_ context.Context, args json.RawMessage) error {
			_, err := parseMessageInput(args)
			return err
		},
		run: func(_ context.Context, args json.RawMessage) (json.RawMessage, error) {
			in, err := parseMessageInput(args)
			if err != nil {
				return nil, err
			}

			events.Publish(event.Event{
				Type:   event.TypeMessageSent,
				Tool:   "send_message",
				Detail: in.Channel + ": " + in.Message,
			})
			return json.Marshal(map[string]any{"sent": true, "channel": in.Channel})
		},
	}
}

func incidentImpactTool(store Store) tool.Tool {
	return &def{
		name:        "get_incident_impact",
		description: "Get which customers are affected by an incident (placeholder).",
		risk:        tool.RiskLow,
		in: json.RawMessage(`{
			"type": "object",
			"properties": {"incident_id": {"type": "string"}},
			"required": ["incident_id"]
		}`),
		out: json.RawMessage(`{
			"type": "object",
			"properties": {
				"incident_id": {"type": "string"},
				"affected_customers": {"type": "array"}
			},
			"required": ["incident_id", "affected_customers"]
		}`),
		run: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
			var in struct {
				IncidentID string `json:"incident_id"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}

			// Placeholder: no relation data yet, report every customer.
			customers, err := store.ListCustomers(ctx)
			if err != nil {
				return nil, err
			}
			if customers == nil {
				customers = []Customer{}
			}
			return json.Marshal(map[string]any{
				"incident_id":        in.IncidentID,
				"affected_customers": customers,
			})
		},
	}
}
