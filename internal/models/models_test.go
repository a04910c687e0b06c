package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "150", want: 15000},
		{in: "150.5", want: 15050},
		{in: "150.05", want: 15005},
		{in: " 0.99 ", want: 99},
		{in: ".5", want: 50},
		{in: "-3.10", want: -310},
		{in: "", wantErr: true},
		{in: "1.234", wantErr: true},
		{in: "12.", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "1.x", wantErr: true},
		{in: "9999999999.99", want: 999999999999},
		{in: "10000000000", wantErr: true},
		{in: "100000000000000000", wantErr: true},
		{in: "200000000000000000", wantErr: true},
		{in: "92233720368547758.08", wantErr: true},
		{in: "-100000000000000000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.00", FormatAmount(0))
	assert.Equal(t, "150.05", FormatAmount(15005))
	assert.Equal(t, "-3.10", FormatAmount(-310))
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" Inspector ")
	assert.True(t, ok)
	assert.Equal(t, RoleInspector, r)

	_, ok = ParseRole("superuser")
	assert.False(t, ok)
}

func TestUserCanInspect(t *testing.T) {
	u := User{Role: RoleInspector}
	assert.False(t, u.CanInspect())
	assert.True(t, u.IsPendingInspector())

	u.IsApproved = true
	assert.True(t, u.CanInspect())

	u.IsBanned = true
	assert.False(t, u.CanInspect())

	owner := User{Role: RoleOwner, IsApproved: true}
	assert.False(t, owner.CanInspect())
	assert.False(t, owner.IsPendingInspector())
}

func TestDecisionStatus(t *testing.T) {
	assert.Equal(t, StatusApproved, DecisionApproved.Status())
	assert.Equal(t, StatusRejected, DecisionRejected.Status())
	assert.False(t, Decision("Maybe").Valid())
}

func TestPreview(t *testing.T) {
	short := "short body"
	assert.Equal(t, short, Preview(short))

	long := strings.Repeat("a", PreviewLength+10)
	got := Preview(long)
	assert.Equal(t, strings.Repeat("a", PreviewLength)+"...", got)
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	s := Session{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(time.Minute)))
}
