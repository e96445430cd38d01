package txn

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsNotSupported(t *testing.T) {
	standalone := mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unrelated", errors.New("connection reset by peer"), false},
		{"duplicate key", mongo.CommandError{Code: 11000, Message: "E11000 duplicate key error"}, false},
		{"standalone server", standalone, true},
		{"wrapped standalone server", fmt.Errorf("accept application: %w", standalone), true},
		{"not supported in transaction", mongo.CommandError{Code: 263, Message: "Cannot run 'create' in a multi-document transaction"}, true},
		{"code 51", mongo.CommandError{Code: 51}, true},
		{"message only", errors.New("Transaction numbers are only allowed on a Replica Set member"), true},
		{"sessions unsupported", errors.New("sessions are not supported by this deployment"), true},
		{"transaction alone", errors.New("transaction aborted"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
