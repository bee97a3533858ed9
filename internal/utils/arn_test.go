package utils

import "testing"

func TestShortName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"arn:aws:iam::123456:role/service-role/probe-role", "probe-role"},
		{"arn:aws:sts::123456:assumed-role/my-role/i-0abc", "i-0abc"},
		{"plain-string", "plain-string"},
		{"single/segment", "segment"},
		{"", ""},
	}

	for _, tt := range tests {
		got := ShortName(tt.input)
		if got != tt.want {
			t.Errorf("ShortName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSecondToLast(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"arn:aws:sts::123456:assumed-role/my-role/i-0abc", "my-role"},
		{"a/b", "a"},
		{"no-slash", "no-slash"},
	}

	for _, tt := range tests {
		got := SecondToLast(tt.input)
		if got != tt.want {
			t.Errorf("SecondToLast(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAssumedRole(t *testing.T) {
	tests := []struct {
		name        string
		arn         string
		wantRole    string
		wantSession string
		wantOK      bool
	}{
		{"instance profile", "arn:aws:sts::123456789012:assumed-role/ec2-s3-role/i-0123456789abcdef0", "ec2-s3-role", "i-0123456789abcdef0", true},
		{"china partition", "arn:aws-cn:sts::123456789012:assumed-role/probe/session", "probe", "session", true},
		{"iam user", "arn:aws:iam::123456789012:user/alice", "", "", false},
		{"missing session", "arn:aws:sts::123456789012:assumed-role/probe", "", "", false},
		{"not an arn", "assumed-role/a/b", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, session, ok := AssumedRole(tt.arn)
			if ok != tt.wantOK || role != tt.wantRole || session != tt.wantSession {
				t.Errorf("AssumedRole(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.arn, role, session, ok, tt.wantRole, tt.wantSession, tt.wantOK)
			}
		})
	}
}
