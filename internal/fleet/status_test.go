package fleet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want Status
	}{
		{"AVAILABLE", StatusAvailable},
		{"WARNING", StatusWarning},
		{"WOUNDED", StatusWounded},
		{"ZOMBIE", StatusZombie},
		{"OUT_OF_SERVICE", StatusOutOfService},
		{"MAINTENANCE", StatusOutOfService},
		{"HARD", StatusWounded},
		{"CASH", StatusOutOfService},
		{"UNAVAILABLE", StatusOutOfService},
		{"SUPERVISOR", StatusWarning},
		{"LOW_CASH", StatusWarning},
		{"OFFLINE", StatusZombie},
		{"maintenance", StatusOutOfService},
		{"  hard  ", StatusWounded},
		{"Available", StatusAvailable},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			require.Equal(t, tc.want, NormalizeStatus(tc.raw))
		})
	}
}

func TestNormalizeStatusUnknownCodes(t *testing.T) {
	for _, raw := range []string{"", "FROZEN", "STATE_47", "???"} {
		require.Equal(t, StatusZombie, NormalizeStatus(raw), "raw=%q", raw)
	}
}

func TestNormalizeStatusAlwaysCanonical(t *testing.T) {
	inputs := []string{
		"AVAILABLE", "MAINTENANCE", "HARD", "CASH", "UNAVAILABLE",
		"warning", "weird-code", "", "OUT_OF_SERVICE",
	}
	for _, raw := range inputs {
		require.True(t, NormalizeStatus(raw).IsValid(), "raw=%q", raw)
	}
}
