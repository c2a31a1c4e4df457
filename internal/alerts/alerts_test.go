package alerts

import "testing"

func TestNewPublisher_RejectsInvalidParams(t *testing.T) {
	tests := []struct {
		name    string
		brokers string
		topic   string
	}{
		{"empty brokers", "", "notifications.overload"},
		{"empty topic", "localhost:9092", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPublisher(tt.brokers, tt.topic)
			if err == nil {
				p.Close()
				t.Fatal("NewPublisher() error = nil, want validation error")
			}
		})
	}
}
