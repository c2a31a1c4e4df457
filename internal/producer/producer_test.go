package producer

import "testing"

func TestNewProducer_RejectsInvalidParams(t *testing.T) {
	tests := []struct {
		name    string
		brokers string
		topic   string
	}{
		{"empty brokers", "", "notifications.ready"},
		{"empty topic", "localhost:9092", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProducer(tt.brokers, tt.topic)
			if err == nil {
				p.Close()
				t.Fatal("NewProducer() error = nil, want validation error")
			}
		})
	}
}
