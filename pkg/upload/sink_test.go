package upload

import "testing"

func TestParseAuthHeader(t *testing.T) {
	tests := []struct {
		in        string
		wantName  string
		wantValue string
		wantOK    bool
	}{
		{"Memfault-Project-Key:abc123", "Memfault-Project-Key", "abc123", true},
		{"Memfault-Project-Key: abc123 ", "Memfault-Project-Key", "abc123", true},
		{" X-Key :a:b", "X-Key", "a:b", true},
		{"X-Empty:", "X-Empty", "", true},
		{"InvalidFormatNoColon", "", "", false},
		{":value", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		name, value, ok := ParseAuthHeader(tt.in)
		if ok != tt.wantOK || name != tt.wantName || value != tt.wantValue {
			t.Errorf("ParseAuthHeader(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.in, name, value, ok, tt.wantName, tt.wantValue, tt.wantOK)
		}
	}
}

func TestSinkFunc(t *testing.T) {
	var got []byte
	var sink Sink = SinkFunc(func(uri, auth string, data []byte) error {
		got = data
		return nil
	})
	if err := sink.Upload("u", "a:b", []byte{1}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("SinkFunc did not receive the data")
	}
}
