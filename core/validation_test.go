package core

import (
	"errors"
	"testing"
)

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  *Record
		wantErr error
	}{
		{
			name: "valid record",
			record: &Record{Fields: []FieldValue{
				{Name: "name", Value: "alice"},
			}},
			wantErr: nil,
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: ErrInvalidRecord,
		},
		{
			name:    "no fields",
			record:  &Record{},
			wantErr: ErrNoFields,
		},
		{
			name: "empty field name",
			record: &Record{Fields: []FieldValue{
				{Name: "", Value: "x"},
			}},
			wantErr: ErrEmptyFieldName,
		},
		{
			name: "empty value is allowed",
			record: &Record{Fields: []FieldValue{
				{Name: "name", Value: ""},
			}},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecord(tt.record)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateRecord() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRecord() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateIndexName(t *testing.T) {
	for _, name := range []string{"logs", "logs-2026", "a.b_c", "X9"} {
		if err := ValidateIndexName(name); err != nil {
			t.Errorf("ValidateIndexName(%q) = %v, want nil", name, err)
		}
	}
	for _, name := range []string{"", "has space", "tab\tname", "nl\nname", "comma,name"} {
		if err := ValidateIndexName(name); !errors.Is(err, ErrInvalidIndexName) {
			t.Errorf("ValidateIndexName(%q) = %v, want ErrInvalidIndexName", name, err)
		}
	}
}
