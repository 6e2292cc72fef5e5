package events

import (
	"testing"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestEncodeDecode(t *testing.T) {
	at := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	data, err := Encode(NewRefreshRequested("u1", "booking_confirmed", at))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	got, err := Decode(ContentTypeProtobuf, data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.UserID != "u1" || got.Reason != "booking_confirmed" || got.SchemaVersion != SchemaVersion {
		t.Errorf("Decode() = %+v", got)
	}
	if !got.RequestedAt.Equal(at) {
		t.Errorf("RequestedAt = %v, want %v", got.RequestedAt, at)
	}
}

func TestDecode(t *testing.T) {
	missingUser, _ := proto.Marshal(&structpb.Struct{Fields: map[string]*structpb.Value{
		"reason": structpb.NewStringValue("scheduled"),
	}})
	badTime, _ := proto.Marshal(&structpb.Struct{Fields: map[string]*structpb.Value{
		"user_id":      structpb.NewStringValue("u1"),
		"requested_at": structpb.NewStringValue("yesterday"),
	}})

	tests := []struct {
		name        string
		contentType string
		data        []byte
		wantUser    string
		wantErr     bool
	}{
		{
			name:        "json",
			contentType: ContentTypeJSON,
			data:        []byte(`{"user_id":"u2","requested_at":"2026-10-15T09:30:00Z","schema_version":1}`),
			wantUser:    "u2",
		},
		{
			name:        "malformed json",
			contentType: ContentTypeJSON,
			data:        []byte(`{"user_id":`),
			wantErr:     true,
		},
		{
			name:        "garbage protobuf",
			contentType: "",
			data:        []byte{0xff, 0xff, 0xff},
			wantErr:     true,
		},
		{
			name:        "missing user id",
			contentType: ContentTypeProtobuf,
			data:        missingUser,
			wantErr:     true,
		},
		{
			name:        "unparseable timestamp",
			contentType: ContentTypeProtobuf,
			data:        badTime,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.contentType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got.UserID != tt.wantUser {
				t.Errorf("UserID = %q, want %q", got.UserID, tt.wantUser)
			}
		})
	}
}
