//go:build linux

package platform

import "testing"

func TestParseInhibitCookie(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    uint32
		wantErr bool
	}{
		{
			name:  "typical reply",
			reply: "method return time=1717401600.123 sender=:1.42 -> destination=:1.99 serial=3 reply_serial=2\n   uint32 1234",
			want:  1234,
		},
		{
			name:  "cookie only",
			reply: "uint32 7",
			want:  7,
		},
		{
			name:    "no cookie",
			reply:   "method return time=1717401600.123",
			wantErr: true,
		},
		{
			name:    "empty reply",
			reply:   "",
			wantErr: true,
		},
		{
			name:    "malformed cookie",
			reply:   "uint32 not-a-number",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseInhibitCookie(tt.reply)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseInhibitCookie(%q) expected error, got %d", tt.reply, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseInhibitCookie(%q) unexpected error: %v", tt.reply, err)
			}
			if got != tt.want {
				t.Errorf("parseInhibitCookie(%q) = %d, want %d", tt.reply, got, tt.want)
			}
		})
	}
}

func TestParseMouseLocation(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		wantX   int
		wantY   int
		wantErr bool
	}{
		{
			name:   "typical output",
			output: "X=640\nY=480\nSCREEN=0\nWINDOW=12345678",
			wantX:  640,
			wantY:  480,
		},
		{
			name:   "negative coordinates on secondary monitor",
			output: "X=-1920\nY=32\nSCREEN=1\nWINDOW=1",
			wantX:  -1920,
			wantY:  32,
		},
		{
			name:    "missing Y line",
			output:  "X=640\nSCREEN=0",
			wantErr: true,
		},
		{
			name:    "empty output",
			output:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, err := parseMouseLocation(tt.output)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseMouseLocation(%q) expected error, got (%d, %d)", tt.output, x, y)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseMouseLocation(%q) unexpected error: %v", tt.output, err)
			}
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("parseMouseLocation(%q) = (%d, %d), want (%d, %d)", tt.output, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}
