package crm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/opsgate/opsgate/internal/event"
	"github.com/opsgate/opsgate/internal/tool"
)

// fakeStore is an in-memory Store for tool tests.
type fakeStore struct {
	customers map[int64]Customer
	tickets   []Ticket
	nextID    int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		customers: map[int64]Customer{
			1: {ID: 1, Name: "ACME AB", Status: "Active"},
			2: {ID: 2, Name: "Nordic Widgets", Status: "Active"},
		},
		nextID: 1,
	}
}

func (s *fakeStore) SearchCustomers(_ context.Context, query string) ([]Customer, error) {
	var out []Customer
	q := strings.ToLower(query)
	for id := int64(1); id <= int64(len(s.customers)); id++ {
		c, ok := s.customers[id]
		if ok && strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeStore) GetCustomer(_ context.Context, id int64) (Customer, error) {
	c, ok := s.customers[id]
	if !ok {
		return Customer{}, fmt.Errorf("%w: %d", ErrCustomerNotFound, id)
	}
	return c, nil
}

func (s *fakeStore) ListCustomers(_ context.Context) ([]Customer, error) {
	var out []Customer
	for id := int64(1); id <= int64(len(s.customers)); id++ {
		if c, ok := s.customers[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateCustomerStatus(_ context.Context, id int64, status string) (Customer, error) {
	c, ok := s.customers[id]
	if !ok {
		return Customer{}, fmt.Errorf("%w: %d", ErrCustomerNotFound, id)
	}
	c.Status = status
	s.customers[id] = c
	return c, nil
}

func (s *fakeStore) CreateTicket(_ context.Context, t Ticket) (Ticket, error) {
	if _, ok := s.customers[t.CustomerID]; !ok {
		return Ticket{}, fmt.Errorf("%w: %d", ErrCustomerNotFound, t.CustomerID)
	}
	t.ID = s.nextID
	s.nextID++
	t.CreatedAt = time.Now().UTC()
	s.tickets = append(s.tickets, t)
	return t, nil
}

func (s *fakeStore) CountTickets(_ context.Context) (int, error) {
	return len(s.tickets), nil
}

type capturePublisher struct {
	events []event.Event
}

func (p *capturePublisher) Publish(ev event.Event) { p.events = append(p.events, ev) }

func toolByName(t *testing.T, tools []tool.Tool, name string) tool.Tool {
	t.Helper()
	for _, tl := range tools {
		if tl.Name() == name {
			return tl
		}
	}
	t.Fatalf("tool %s not in set", name)
	return nil
}

func TestToolsMetadata(t *testing.T) {
	t.Parallel()

	tools := Tools(newFakeStore(), nil)
	if len(tools) != 5 {
		t.Fatalf("expected 5 tools, got %d", len(tools))
	}

	cases := []struct {
		name string
		risk tool.Risk
		idem bool
	}{
		{"search_customer", tool.RiskLow, false},
		{"create_ticket", tool.RiskMedium, true},
		{"update_customer_status", tool.RiskHigh, false},
		{"send_message", tool.RiskLow, false},
		{"get_incident_impact", tool.RiskLow, false},
	}
	for _, tc := range cases {
		tl := toolByName(t, tools, tc.name)
		if tl.Risk() != tc.risk {
			t.Fatalf("%s: expected risk %q, got %q", tc.name, tc.risk, tl.Risk())
		}
		if tl.Idempotent() != tc.idem {
			t.Fatalf("%s: expected idempotent=%v", tc.name, tc.idem)
		}
		if tl.Method() != "POST" || tl.Path() != "/tools/"+tc.name {
			t.Fatalf("%s: unexpected surface %s %s", tc.name, tl.Method(), tl.Path())
		}
	}
}

func TestSearchCustomerTool(t *testing.T) {
	t.Parallel()

	tl := toolByName(t, Tools(newFakeStore(), nil), "search_customer")

	resp, err := tl.Execute(context.Background(), json.RawMessage(`{"query":"acme"}`))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	var out struct {
		Results []Customer `json:"results"`
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.Results) != 1 || out.Results[0].Name != "ACME AB" {
		t.Fatalf("unexpected results: %+v", out.Results)
	}
}

func TestSearchCustomerToolEmptyQuery(t *testing.T) {
	t.Parallel()

	tl := toolByName(t, Tools(newFakeStore(), nil), "search_customer")
	_, err := tl.Execute(context.Background(), json.RawMessage(`{"query":"  "}`))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSearchCustomerToolNoMatchIsEmptyArray(t *testing.T) {
	t.Parallel()

	tl := toolByName(t, Tools(newFakeStore(), nil), "search_customer")
	resp, err := tl.Execute(context.Background(), json.RawMessage(`{"query":"globex"}`))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(string(resp), `"results":[]`) {
		t.Fatalf("expected empty results array, got %s", resp)
	}
}

func TestCreateTicketTool(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	tl := toolByName(t, Tools(store, nil), "create_ticket")

	resp, err := tl.Execute(context.Background(),
		json.RawMessage(`{"customer_id":1,"title":"Printer on fire"}`))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	var out struct {
		Ticket Ticket `json:"ticket"`
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Ticket.ID == 0 {
		t.Fatal("expected assigned ticket id")
	}
	if out.Ticket.Priority != "medium" {
		t.Fatalf("expected default priority medium, got %q", out.Ticket.Priority)
	}
}

func TestCreateTicketToolShortTitle(t *testing.T) {
	t.Parallel()

	tl := toolByName(t, Tools(newFakeStore(), nil), "create_ticket")
	_, err := tl.Execute(context.Background(),
		json.RawMessage(`{"customer_id":1,"title":"ab"}`))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateTicketToolUnknownCustomer(t *testing.T) {
	t.Parallel()

	tl := toolByName(t, Tools(newFakeStore(), nil), "create_ticket")
	_, err := tl.Execute(context.Background(),
		json.RawMessage(`{"customer_id":999,"title":"Orphan ticket"}`))
	if !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestUpdateCustomerStatusTool(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	tl := toolByName(t, Tools(store, nil), "update_customer_status")

	resp, err := tl.Execute(context.Background(),
		json.RawMessage(`{"customer_id":1,"new_status":"Churned"}`))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	var out struct {
		Customer Customer `json:"customer"`
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Customer.Status != "Churned" {
		t.Fatalf("expected Churned, got %q", out.Customer.Status)
	}
	if store.customers[1].Status != "Churned" {
		t.Fatal("status change not applied to store")
	}
}

func TestUpdateCustomerStatusToolShortStatus(t *testing.T) {
	t.Parallel()

	tl := toolByName(t, Tools(newFakeStore(), nil), "update_customer_status")
	_, err := tl.Execute(context.Background(),
		json.RawMessage(`{"customer_id":1,"new_status":"x"}`))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func asValidator(t *testing.T, tl tool.Tool) tool.Validator {
	t.Helper()
	v, ok := tl.(tool.Validator)
	if !ok {
		t.Fatalf("tool %s does not implement Validator", tl.Name())
	}
	return v
}

func TestUpdateCustomerStatusToolValidate(t *testing.T) {
	t.Parallel()

	v := asValidator(t, toolByName(t, Tools(newFakeStore(), nil), "update_customer_status"))
	ctx := context.Background()

	if err := v.Validate(ctx, json.RawMessage(`{"customer_id":1,"new_status":"Churned"}`)); err != nil {
		t.Fatalf("valid payload must pass, got %v", err)
	}
	err := v.Validate(ctx, json.RawMessage(`{"customer_id":999,"new_status":"Churned"}`))
	if !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
	err = v.Validate(ctx, json.RawMessage(`{"customer_id":1,"new_status":"x"}`))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateTicketToolValidate(t *testing.T) {
	t.Parallel()

	v := asValidator(t, toolByName(t, Tools(newFakeStore(), nil), "create_ticket"))
	ctx := context.Background()

	if err := v.Validate(ctx, json.RawMessage(`{"customer_id":1,"title":"Printer on fire"}`)); err != nil {
		t.Fatalf("valid payload must pass, got %v", err)
	}
	err := v.Validate(ctx, json.RawMessage(`{"customer_id":999,"title":"Printer on fire"}`))
	if !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestSendMessageToolPublishes(t *testing.T) {
	t.Parallel()

	pub := &capturePublisher{}
	tl := toolByName(t, Tools(newFakeStore(), pub), "send_message")

	resp, err := tl.Execute(context.Background(),
		json.RawMessage(`{"channel":"ops","message":"incident resolved"}`))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(string(resp), `"sent":true`) {
		t.Fatalf("expected sent:true, got %s", resp)
	}
	if len(pub.events) != 1 || pub.events[0].Type != event.TypeMessageSent {
		t.Fatalf("expected a message_sent event, got %+v", pub.events)
	}
}

func TestSendMessageToolEmptyChannel(t *testing.T) {
	t.Parallel()

	tl := toolByName(t, Tools(newFakeStore(), nil), "send_message")
	_, err := tl.Execute(context.Background(),
		json.RawMessage(`{"channel":"","message":"hi"}`))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIncidentImpactTool(t *testing.T) {
	t.Parallel()

	tl := toolByName(t, Tools(newFakeStore(), nil), "get_incident_impact")
	resp, err := tl.Execute(context.Background(),
		json.RawMessage(`{"incident_id":"INC-42"}`))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	var out struct {
		IncidentID string     `json:"incident_id"`
		Affected   []Customer `json:"affected_customers"`
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.IncidentID != "INC-42" {
		t.Fatalf("expected INC-42, got %q", out.IncidentID)
	}
	if len(out.Affected) != 2 {
		t.Fatalf("expected 2 affected customers, got %d", len(out.Affected))
	}
}
