package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/transport"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/transport/retry"
)

type FakeStates struct {
	State *models.UserState
	Err   error
}

func (f *FakeStates) Get(ctx context.Context, userID string) (*models.UserState, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if f.State == nil {
		return nil, apperr.NotFound("user", userID)
	}
	return f.State, nil
}

type FakeTransport struct {
	Err      error
	Topic    string
	Payloads []*transport.Payload
}

func (f *FakeTransport) Name() string { return "fake" }

func (f *FakeTransport) Publish(ctx context.Context, topic string, p *transport.Payload) error {
	if f.Err != nil {
		return f.Err
	}
	f.Topic = topic
	f.Payloads = append(f.Payloads, p)
	return nil
}

type FakeCounter map[string]int

func (c FakeCounter) IncrementCustom(name string) { c[name]++ }

var gateAlert = models.Alert{
	AlertID:  "a1",
	Type:     models.AlertGateChange,
	Priority: 5,
	Title:    "Gate Change",
	Message:  "Flight AF1234 now departs from gate B7",
}

func TestNotify(t *testing.T) {
	tests := []struct {
		name       string
		states     *FakeStates
		transport  *FakeTransport
		want       bool
		wantSent   int
		wantMetric string
	}{
		{
			name: "sends with recipient",
			states: &FakeStates{State: &models.UserState{
				UserID:      "u1",
				Preferences: models.Preferences{Email: "traveler@example.com"},
			}},
			transport:  &FakeTransport{},
			want:       true,
			wantSent:   1,
			wantMetric: "notifications_sent",
		},
		{
			name: "opted out",
			states: &FakeStates{State: &models.UserState{
				UserID:      "u1",
				Preferences: models.Preferences{Notifications: map[string]bool{"gate_change": false}},
			}},
			transport:  &FakeTransport{},
			want:       true,
			wantSent:   0,
			wantMetric: "notifications_suppressed",
		},
		{
			name:       "unknown user uses defaults",
			states:     &FakeStates{},
			transport:  &FakeTransport{},
			want:       true,
			wantSent:   1,
			wantMetric: "notifications_sent",
		},
		{
			name:       "store failure uses defaults",
			states:     &FakeStates{Err: errors.New("timeout")},
			transport:  &FakeTransport{},
			want:       true,
			wantSent:   1,
			wantMetric: "notifications_sent",
		},
		{
			name:       "transport failure",
			states:     &FakeStates{},
			transport:  &FakeTransport{Err: errors.New("AuthorizationError")},
			want:       false,
			wantMetric: "notifications_failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := FakeCounter{}
			got := New(tt.states, tt.transport, counter).Notify(context.Background(), "u1", gateAlert)
			if got != tt.want {
				t.Errorf("Notify() = %v, want %v", got, tt.want)
			}
			if len(tt.transport.Payloads) != tt.wantSent {
				t.Errorf("sent %d payloads, want %d", len(tt.transport.Payloads), tt.wantSent)
			}
			if counter[tt.wantMetric] != 1 {
				t.Errorf("%s = %d, want 1", tt.wantMetric, counter[tt.wantMetric])
			}
			if tt.wantSent > 0 && tt.transport.Topic != "travel-alerts-u1" {
				t.Errorf("topic = %s, want travel-alerts-u1", tt.transport.Topic)
			}
		})
	}
}

func TestBuildPayload(t *testing.T) {
	p := BuildPayload("u1", gateAlert, models.Preferences{Email: "traveler@example.com"})

	if p.Default != gateAlert.Message {
		t.Errorf("Default = %q", p.Default)
	}
	if p.Email != "Travel Alert: Gate Change\n\nFlight AF1234 now departs from gate B7" {
		t.Errorf("Email = %q", p.Email)
	}
	if p.SMS != "Gate Change" || p.Subject != "Gate Change" {
		t.Errorf("SMS = %q, Subject = %q", p.SMS, p.Subject)
	}
	if p.Recipient != "traveler@example.com" || p.Priority != 5 || p.AlertType != "gate_change" {
		t.Errorf("payload = %+v", p)
	}
}

func TestBuildPayload_Defaults(t *testing.T) {
	long := strings.Repeat("✈", 200)
	p := BuildPayload("u1", models.Alert{Title: long, Message: "m"}, models.Preferences{})
	if n := utf8.RuneCountInString(p.SMS); n != MaxSMSRunes {
		t.Errorf("SMS runes = %d, want %d", n, MaxSMSRunes)
	}
	if p.Recipient != "" {
		t.Errorf("Recipient = %q, want empty", p.Recipient)
	}

	untitled := BuildPayload("u1", models.Alert{Message: "m"}, models.Preferences{})
	if untitled.Subject != DefaultSubject {
		t.Errorf("Subject = %q, want %q", untitled.Subject, DefaultSubject)
	}
}

func TestChannels(t *testing.T) {
	single := New(&FakeStates{}, &FakeTransport{}, nil)
	if got := single.Channels(); len(got) != 1 || got[0] != "fake" {
		t.Errorf("Channels() = %v, want [fake]", got)
	}

	fan := New(&FakeStates{}, transport.NewFanout(retry.None(), &FakeTransport{}, transport.Log{}), nil)
	got := fan.Channels()
	if len(got) != 2 || got[0] != "fake" || got[1] != "log" {
		t.Errorf("Channels() = %v, want [fake log]", got)
	}
}
